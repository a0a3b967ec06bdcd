package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"proxybid/internal/biddingerrors"
	model "proxybid/internal/models"
)

//go:generate mockgen -destination=mock_repository.go -package=repository proxybid/internal/repository AuctionDB

// AuctionDB defines the auction state and bid ledger storage for the auction system.
// CommitBid and UpdateStatus are compare-and-swap on the auction version so that
// no two commits can be based on the same pre-state.
type AuctionDB interface {
	CreateAuction(ctx context.Context, auction model.Auction) error
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	CommitBid(ctx context.Context, updated model.Auction, expectedVersion int64, bid model.Bid) (model.Auction, error)
	UpdateStatus(ctx context.Context, auctionID string, expectedVersion int64, status model.AuctionStatus, at time.Time) (model.Auction, error)
	GetBidsByAuction(ctx context.Context, auctionID string, limit, offset int) ([]model.Bid, error)
	ListDueTransitions(ctx context.Context, now time.Time, limit int) ([]model.Auction, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction // key: auctionID -> value: auction row
	bids     map[string][]model.Bid   // key: auctionID -> value: ledger in commit order
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions: make(map[string]model.Auction),
		bids:     make(map[string][]model.Bid),
	}
}

// CreateAuction stores a new auction
func (r *MemoryRepo) CreateAuction(_ context.Context, auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[auction.ID]; ok {
		return fmt.Errorf("create auction %s: %w", auction.ID, biddingerrors.ErrAuctionExists)
	}
	r.auctions[auction.ID] = auction
	return nil
}

// GetAuction returns a snapshot of an auction
func (r *MemoryRepo) GetAuction(_ context.Context, auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return a, nil
}

// CommitBid writes the resolved auction and appends its ledger row as one unit
func (r *MemoryRepo) CommitBid(_ context.Context, updated model.Auction, expectedVersion int64, bid model.Bid) (model.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.auctions[updated.ID]
	if !ok {
		return model.Auction{}, fmt.Errorf("commit bid for auction %s: %w", updated.ID, biddingerrors.ErrAuctionNotFound)
	}
	if current.Version != expectedVersion {
		return model.Auction{}, fmt.Errorf("commit bid for auction %s at version %d (stored %d): %w",
			updated.ID, expectedVersion, current.Version, biddingerrors.ErrVersionConflict)
	}

	updated.Version = expectedVersion + 1
	r.auctions[updated.ID] = updated
	r.bids[updated.ID] = append(r.bids[updated.ID], bid)

	return updated, nil
}

// UpdateStatus moves an auction to a new status if it is still at expectedVersion
func (r *MemoryRepo) UpdateStatus(_ context.Context, auctionID string, expectedVersion int64, status model.AuctionStatus, at time.Time) (model.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("update status of auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	if current.Version != expectedVersion {
		return model.Auction{}, fmt.Errorf("update status of auction %s: %w", auctionID, biddingerrors.ErrVersionConflict)
	}

	current.Status = status
	current.UpdatedAt = at
	current.Version++
	r.auctions[auctionID] = current
	return current, nil
}

// GetBidsByAuction returns a page of the ledger, newest first
func (r *MemoryRepo) GetBidsByAuction(_ context.Context, auctionID string, limit, offset int) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}

	ledger := r.bids[auctionID]
	page := make([]model.Bid, 0, min(limit, len(ledger)))
	for i := len(ledger) - 1 - offset; i >= 0 && len(page) < limit; i-- {
		page = append(page, ledger[i])
	}
	return page, nil
}

// ListDueTransitions returns auctions whose start or end time has passed without a status change
func (r *MemoryRepo) ListDueTransitions(_ context.Context, now time.Time, limit int) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	due := make([]model.Auction, 0)
	for _, a := range r.auctions {
		if transitionDue(a, now) {
			due = append(due, a)
		}
	}

	sort.Slice(due, func(i, j int) bool { return due[i].EndTime.Before(due[j].EndTime) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func transitionDue(a model.Auction, now time.Time) bool {
	switch a.Status {
	case model.StatusScheduled:
		return !now.Before(a.StartTime) || !now.Before(a.EndTime)
	case model.StatusActive:
		return !now.Before(a.EndTime)
	default:
		return false
	}
}
