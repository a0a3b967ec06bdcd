package bidding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"proxybid/internal/biddingerrors"
	"proxybid/internal/increment"
	"proxybid/internal/models"
	"proxybid/internal/notifier"
	"proxybid/internal/repository"
	"proxybid/internal/resolver"
	"proxybid/utils"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultLockWait        = 2 * time.Second
	defaultConflictRetries = 3
	defaultHistoryLimit    = 50
	defaultHistoryMaxLimit = 200
)

// Option configures a BiddingService
type Option func(*BiddingService)

// WithLockWait bounds how long a submission waits for its auction
func WithLockWait(d time.Duration) Option {
	return func(s *BiddingService) { s.lockWait = d }
}

// WithMaxConflictRetries bounds re-resolution after optimistic write conflicts
func WithMaxConflictRetries(n int) Option {
	return func(s *BiddingService) { s.maxConflictRetries = n }
}

// WithHistoryMaxLimit caps the page size of bid history queries
func WithHistoryMaxLimit(n int) Option {
	return func(s *BiddingService) { s.historyMaxLimit = n }
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *BiddingService) { s.now = now }
}

// BiddingService is the only writer of auction state and bid ledgers.
// Submissions for one auction are serialized; different auctions never contend.
type BiddingService struct {
	repo      repository.AuctionDB
	publisher notifier.Publisher
	locks     *lockTable
	tracer    trace.Tracer

	lockWait           time.Duration
	maxConflictRetries int
	historyMaxLimit    int
	now                func() time.Time
}

// NewBiddingService creates a new BiddingService instance.
// A nil publisher disables change notifications.
func NewBiddingService(repo repository.AuctionDB, publisher notifier.Publisher, opts ...Option) *BiddingService {
	if publisher == nil {
		publisher = notifier.Fanout{}
	}
	s := &BiddingService{
		repo:               repo,
		publisher:          publisher,
		locks:              newLockTable(),
		tracer:             otel.Tracer("proxybid/internal/biddingService"),
		lockWait:           defaultLockWait,
		maxConflictRetries: defaultConflictRetries,
		historyMaxLimit:    defaultHistoryMaxLimit,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceBid submits bidderID's confidential maximum and returns the public outcome
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID, bidderID string, maxBid decimal.Decimal) (models.PlaceBidResult, error) {
	ctx, span := s.tracer.Start(ctx, "BiddingService.PlaceBid", trace.WithAttributes(
		attribute.String("auction.id", auctionID),
	))
	defer span.End()

	res, err := s.placeBid(ctx, auctionID, bidderID, maxBid)
	if err != nil {
		kind := biddingerrors.KindOf(err)
		span.SetAttributes(attribute.String("bid.rejection", string(kind)))
		if kind == biddingerrors.KindInternal {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return models.PlaceBidResult{}, err
	}
	span.SetAttributes(attribute.Bool("bid.leading", res.IsLeading))
	return res, nil
}

func (s *BiddingService) placeBid(ctx context.Context, auctionID, bidderID string, maxBid decimal.Decimal) (models.PlaceBidResult, error) {
	if err := validateSubmission(auctionID, bidderID, maxBid); err != nil {
		return models.PlaceBidResult{}, err
	}

	release, err := s.locks.acquire(ctx, auctionID, s.lockWait)
	if err != nil {
		utils.Warn("PlaceBid: lock wait exceeded", map[string]any{
			"auction_id": auctionID,
			"bidder":     utils.MaskBidder(bidderID),
		})
		return models.PlaceBidResult{}, err
	}
	defer release()

	sub := resolver.Submission{BidderID: bidderID, MaxBid: maxBid}

	for attempt := 0; attempt <= s.maxConflictRetries; attempt++ {
		auction, err := s.repo.GetAuction(ctx, auctionID)
		if err != nil {
			return models.PlaceBidResult{}, storeError("failed to read auction "+auctionID, err)
		}

		now := s.now().UTC()
		out, err := resolver.Resolve(auction, sub, now)
		if err != nil {
			utils.Info("PlaceBid: bid rejected", map[string]any{
				"auction_id": auctionID,
				"bidder":     utils.MaskBidder(bidderID),
				"reason":     string(biddingerrors.KindOf(err)),
			})
			return models.PlaceBidResult{}, err
		}

		next := resolver.Apply(auction, out, now)
		bid := models.Bid{
			ID:                  utils.GenerateOrderedID(),
			AuctionID:           auctionID,
			Sequence:            next.BidCount,
			BidderID:            bidderID,
			MaxBidAmount:        maxBid,
			ResultingCurrentBid: next.CurrentBid,
			BecameLeader:        out.ChallengerBecameLeader,
			CreatedAt:           now,
		}

		stored, err := s.repo.CommitBid(ctx, next, auction.Version, bid)
		if errors.Is(err, biddingerrors.ErrVersionConflict) {
			utils.Warn("PlaceBid: version conflict, re-resolving", map[string]any{
				"auction_id": auctionID,
				"attempt":    attempt + 1,
			})
			continue
		}
		if err != nil {
			return models.PlaceBidResult{}, storeError("failed to commit bid on auction "+auctionID, err)
		}

		s.publishBid(ctx, stored, bid, now)

		utils.Info("PlaceBid: bid accepted", map[string]any{
			"auction_id":    auctionID,
			"bid_id":        bid.ID,
			"bidder":        utils.MaskBidder(bidderID),
			"current_bid":   stored.CurrentBid.String(),
			"leader_change": out.ChallengerBecameLeader,
			"bid_count":     stored.BidCount,
		})

		return models.PlaceBidResult{
			Accepted:       true,
			BidID:          bid.ID,
			CurrentBid:     stored.CurrentBid,
			IsLeading:      out.SubmitterLeads,
			MinimumNextBid: increment.MinimumNextBid(stored.CurrentBid),
		}, nil
	}

	return models.PlaceBidResult{}, biddingerrors.NewBidError(biddingerrors.KindConcurrentConflict,
		fmt.Sprintf("auction %s changed %d times while resolving, retry", auctionID, s.maxConflictRetries+1))
}

// GetAuctionState returns the public view of an auction; viewerID may be empty
func (s *BiddingService) GetAuctionState(ctx context.Context, auctionID, viewerID string) (models.AuctionState, error) {
	if auctionID == "" {
		return models.AuctionState{}, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.AuctionState{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	return stateView(auction, viewerID, s.now().UTC()), nil
}

// GetBidHistory returns a page of the ledger, newest first, with other bidders masked
func (s *BiddingService) GetBidHistory(ctx context.Context, auctionID, viewerID string, limit, offset int) ([]models.BidView, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}
	if offset < 0 {
		return nil, fmt.Errorf("service: %w - negative offset", biddingerrors.ErrInvalidBid)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > s.historyMaxLimit {
		limit = s.historyMaxLimit
	}

	bids, err := s.repo.GetBidsByAuction(ctx, auctionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}

	views := make([]models.BidView, 0, len(bids))
	for _, b := range bids {
		views = append(views, bidView(b, viewerID))
	}
	return views, nil
}

// validateSubmission checks input validity before any state is read
func validateSubmission(auctionID, bidderID string, maxBid decimal.Decimal) error {
	if auctionID == "" || bidderID == "" {
		return biddingerrors.NewBidError(biddingerrors.KindInvalidBid, "missing auction ID or bidder ID")
	}
	if !maxBid.IsPositive() {
		return biddingerrors.NewBidError(biddingerrors.KindInvalidBid, "max bid must be positive")
	}
	if !maxBid.Equal(maxBid.Round(2)) {
		return biddingerrors.NewBidError(biddingerrors.KindInvalidBid, "max bid has more than two decimal places")
	}
	return nil
}

// storeError maps storage failures onto caller-facing kinds
func storeError(msg string, err error) error {
	switch {
	case errors.Is(err, biddingerrors.ErrAuctionNotFound):
		return biddingerrors.NewBidError(biddingerrors.KindAuctionNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return biddingerrors.NewBidError(biddingerrors.KindTimeout, err.Error())
	default:
		return fmt.Errorf("service: %s: %w", msg, err)
	}
}

// publishBid announces a committed bid. Delivery failures are logged, never returned:
// the bid is already durable.
func (s *BiddingService) publishBid(ctx context.Context, auction models.Auction, bid models.Bid, now time.Time) {
	ctx = context.WithoutCancel(ctx)
	view := bidView(bid, "")
	s.publish(ctx, notifier.Event{
		ID:         utils.GenerateOrderedID(),
		Type:       notifier.EventBidInserted,
		AuctionID:  auction.ID,
		OccurredAt: now,
		Bid:        &view,
	})
	s.publishState(ctx, auction, now)
}

func (s *BiddingService) publishState(ctx context.Context, auction models.Auction, now time.Time) {
	state := stateView(auction, "", now)
	s.publish(ctx, notifier.Event{
		ID:         utils.GenerateOrderedID(),
		Type:       notifier.EventStateChanged,
		AuctionID:  auction.ID,
		OccurredAt: now,
		State:      &state,
	})
}

func (s *BiddingService) publish(ctx context.Context, ev notifier.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		utils.Error("publish: failed to deliver event", map[string]any{
			"auction_id": ev.AuctionID,
			"type":       string(ev.Type),
			"error":      err.Error(),
		})
	}
}
