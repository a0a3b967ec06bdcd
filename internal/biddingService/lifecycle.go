package bidding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"proxybid/internal/biddingerrors"
	"proxybid/internal/models"
	"proxybid/utils"

	"github.com/shopspring/decimal"
)

const sweepBatch = 100

// CreateAuction registers a listing published as a timed auction
func (s *BiddingService) CreateAuction(ctx context.Context, p models.CreateAuctionParams) (models.AuctionState, error) {
	now := s.now().UTC()
	if err := validateParams(p, now); err != nil {
		return models.AuctionState{}, err
	}

	id := p.ID
	if id == "" {
		id = utils.GenerateID()
	}
	start := p.StartTime.UTC()
	if p.StartTime.IsZero() {
		start = now
	}
	status := models.StatusActive
	if start.After(now) {
		status = models.StatusScheduled
	}

	auction := models.Auction{
		ID:           id,
		Title:        p.Title,
		StartingBid:  p.StartingBid,
		ReservePrice: p.ReservePrice,
		CurrentBid:   p.StartingBid,
		StartTime:    start,
		EndTime:      p.EndTime.UTC(),
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateAuction(ctx, auction); err != nil {
		return models.AuctionState{}, fmt.Errorf("service: failed to create auction %s: %w", id, err)
	}

	s.publishState(context.WithoutCancel(ctx), auction, now)
	utils.Info("CreateAuction: auction created", map[string]any{
		"auction_id":   id,
		"starting_bid": auction.StartingBid.String(),
		"status":       string(status),
		"end_time":     auction.EndTime.Format(time.RFC3339),
	})
	return stateView(auction, "", now), nil
}

// CloseAuction ends an active auction before its end time
func (s *BiddingService) CloseAuction(ctx context.Context, auctionID string) (models.AuctionState, error) {
	return s.transition(ctx, auctionID, func(a models.Auction, now time.Time) (models.AuctionStatus, error) {
		if effectiveStatus(a, now) != models.StatusActive {
			return "", biddingerrors.NewBidError(biddingerrors.KindInvalidTransition,
				fmt.Sprintf("cannot close auction in status %s", effectiveStatus(a, now)))
		}
		return models.StatusEnded, nil
	})
}

// CancelAuction cancels any auction that has not reached a terminal status
func (s *BiddingService) CancelAuction(ctx context.Context, auctionID string) (models.AuctionState, error) {
	return s.transition(ctx, auctionID, func(a models.Auction, now time.Time) (models.AuctionStatus, error) {
		if a.Status.Terminal() {
			return "", biddingerrors.NewBidError(biddingerrors.KindInvalidTransition,
				fmt.Sprintf("cannot cancel auction in status %s", a.Status))
		}
		return models.StatusCancelled, nil
	})
}

// RunLifecycle applies time-driven status changes every interval until ctx is done
func (s *BiddingService) RunLifecycle(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				utils.Error("RunLifecycle: sweep failed", map[string]any{"error": err.Error()})
			}
		}
	}
}

// SweepOnce starts due scheduled auctions and ends expired ones, returning how many changed
func (s *BiddingService) SweepOnce(ctx context.Context) (int, error) {
	due, err := s.repo.ListDueTransitions(ctx, s.now().UTC(), sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("service: failed to list due auctions: %w", err)
	}

	changed := 0
	for _, a := range due {
		_, err := s.transition(ctx, a.ID, func(a models.Auction, now time.Time) (models.AuctionStatus, error) {
			target := effectiveStatus(a, now)
			if target == a.Status {
				return "", errNothingDue
			}
			return target, nil
		})
		switch {
		case err == nil:
			changed++
		case errors.Is(err, errNothingDue):
		default:
			utils.Warn("SweepOnce: transition failed", map[string]any{"auction_id": a.ID, "error": err.Error()})
		}
	}
	return changed, nil
}

var errNothingDue = errors.New("no transition due")

// transition changes an auction's status under its lock, retrying on version conflicts
func (s *BiddingService) transition(ctx context.Context, auctionID string,
	decide func(a models.Auction, now time.Time) (models.AuctionStatus, error)) (models.AuctionState, error) {

	if auctionID == "" {
		return models.AuctionState{}, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidAuction)
	}

	release, err := s.locks.acquire(ctx, auctionID, s.lockWait)
	if err != nil {
		return models.AuctionState{}, err
	}
	defer release()

	for attempt := 0; attempt <= s.maxConflictRetries; attempt++ {
		a, err := s.repo.GetAuction(ctx, auctionID)
		if err != nil {
			return models.AuctionState{}, storeError("failed to read auction "+auctionID, err)
		}

		now := s.now().UTC()
		target, err := decide(a, now)
		if err != nil {
			return models.AuctionState{}, err
		}

		stored, err := s.repo.UpdateStatus(ctx, auctionID, a.Version, target, now)
		if errors.Is(err, biddingerrors.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return models.AuctionState{}, storeError("failed to update auction "+auctionID, err)
		}

		s.publishState(context.WithoutCancel(ctx), stored, now)
		utils.Info("transition: auction status changed", map[string]any{
			"auction_id": auctionID,
			"from":       string(a.Status),
			"to":         string(target),
			"bid_count":  stored.BidCount,
		})
		return stateView(stored, "", now), nil
	}

	return models.AuctionState{}, biddingerrors.NewBidError(biddingerrors.KindConcurrentConflict,
		fmt.Sprintf("auction %s kept changing, retry", auctionID))
}

// validateParams checks a new listing before it becomes an auction
func validateParams(p models.CreateAuctionParams, now time.Time) error {
	if !p.StartingBid.IsPositive() {
		return fmt.Errorf("service: %w - starting bid must be positive", biddingerrors.ErrInvalidAuction)
	}
	if !p.StartingBid.Equal(p.StartingBid.Round(2)) {
		return fmt.Errorf("service: %w - starting bid has more than two decimal places", biddingerrors.ErrInvalidAuction)
	}
	if p.ReservePrice != nil && p.ReservePrice.LessThan(decimal.Zero) {
		return fmt.Errorf("service: %w - reserve price must not be negative", biddingerrors.ErrInvalidAuction)
	}
	if p.EndTime.IsZero() || !p.EndTime.After(now) {
		return fmt.Errorf("service: %w - end time must be in the future", biddingerrors.ErrInvalidAuction)
	}
	if !p.StartTime.IsZero() && !p.EndTime.After(p.StartTime) {
		return fmt.Errorf("service: %w - end time must be after start time", biddingerrors.ErrInvalidAuction)
	}
	return nil
}
