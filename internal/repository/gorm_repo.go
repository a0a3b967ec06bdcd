package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"proxybid/internal/biddingerrors"
	model "proxybid/internal/models"

	"gorm.io/gorm"
)

// GormRepo persists auctions and their ledgers in a SQL database
type GormRepo struct {
	db *gorm.DB
}

// NewGormRepo wraps an open gorm connection
func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{db: db}
}

// Migrate creates or updates the auctions and bids tables
func (r *GormRepo) Migrate() error {
	return r.db.AutoMigrate(&model.Auction{}, &model.Bid{})
}

// CreateAuction inserts a new auction row
func (r *GormRepo) CreateAuction(ctx context.Context, auction model.Auction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&model.Auction{}).Where("id = ?", auction.ID).Count(&exists).Error; err != nil {
			return fmt.Errorf("create auction %s: %w", auction.ID, err)
		}
		if exists > 0 {
			return fmt.Errorf("create auction %s: %w", auction.ID, biddingerrors.ErrAuctionExists)
		}
		if err := tx.Create(&auction).Error; err != nil {
			return fmt.Errorf("create auction %s: %w", auction.ID, err)
		}
		return nil
	})
}

// GetAuction reads the committed auction row
func (r *GormRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	var a model.Auction
	if err := r.db.WithContext(ctx).First(&a, "id = ?", auctionID).Error; err != nil {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, notFound(err))
	}
	return a, nil
}

// CommitBid updates the auction row guarded by its version and appends the ledger row in one transaction
func (r *GormRepo) CommitBid(ctx context.Context, updated model.Auction, expectedVersion int64, bid model.Bid) (model.Auction, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Auction{}).
			Where("id = ? AND version = ?", updated.ID, expectedVersion).
			Updates(map[string]any{
				"current_bid":       updated.CurrentBid,
				"leading_bidder_id": updated.LeadingBidderID,
				"leading_max_bid":   updated.LeadingMaxBid,
				"bid_count":         updated.BidCount,
				"status":            updated.Status,
				"updated_at":        updated.UpdatedAt,
				"version":           expectedVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return r.missOrConflict(tx, updated.ID)
		}
		return tx.Create(&bid).Error
	})
	if err != nil {
		return model.Auction{}, fmt.Errorf("commit bid for auction %s: %w", updated.ID, err)
	}

	updated.Version = expectedVersion + 1
	return updated, nil
}

// UpdateStatus changes the status of an auction still at expectedVersion
func (r *GormRepo) UpdateStatus(ctx context.Context, auctionID string, expectedVersion int64, status model.AuctionStatus, at time.Time) (model.Auction, error) {
	var out model.Auction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Auction{}).
			Where("id = ? AND version = ?", auctionID, expectedVersion).
			Updates(map[string]any{
				"status":     status,
				"updated_at": at,
				"version":    expectedVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return r.missOrConflict(tx, auctionID)
		}
		return tx.First(&out, "id = ?", auctionID).Error
	})
	if err != nil {
		return model.Auction{}, fmt.Errorf("update status of auction %s: %w", auctionID, err)
	}
	return out, nil
}

// GetBidsByAuction returns a page of the ledger, newest first
func (r *GormRepo) GetBidsByAuction(ctx context.Context, auctionID string, limit, offset int) ([]model.Bid, error) {
	db := r.db.WithContext(ctx)

	var exists int64
	if err := db.Model(&model.Auction{}).Where("id = ?", auctionID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}

	out := make([]model.Bid, 0)
	if err := db.Where("auction_id = ?", auctionID).
		Order("sequence DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
	}
	return out, nil
}

// ListDueTransitions returns auctions whose start or end time has passed without a status change
func (r *GormRepo) ListDueTransitions(ctx context.Context, now time.Time, limit int) ([]model.Auction, error) {
	out := make([]model.Auction, 0)
	err := r.db.WithContext(ctx).
		Where("(status = ? AND (start_time <= ? OR end_time <= ?)) OR (status = ? AND end_time <= ?)",
			model.StatusScheduled, now, now, model.StatusActive, now).
		Order("end_time ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list due transitions: %w", err)
	}
	return out, nil
}

// missOrConflict explains why a versioned update touched no rows
func (r *GormRepo) missOrConflict(tx *gorm.DB, auctionID string) error {
	var exists int64
	if err := tx.Model(&model.Auction{}).Where("id = ?", auctionID).Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return biddingerrors.ErrAuctionNotFound
	}
	return biddingerrors.ErrVersionConflict
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return biddingerrors.ErrAuctionNotFound
	}
	return err
}
