package resolver

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"proxybid/internal/biddingerrors"
	"proxybid/internal/increment"
	"proxybid/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(s string) *string {
	return &s
}

// Helper to create an open auction
func newAuction(startingBid string) models.Auction {
	return models.Auction{
		ID:          "auction1",
		StartingBid: d(startingBid),
		CurrentBid:  d(startingBid),
		StartTime:   now.Add(-time.Hour),
		EndTime:     now.Add(time.Hour),
		Status:      models.StatusActive,
	}
}

// place resolves and applies a submission, failing the test on rejection
func place(t *testing.T, a models.Auction, bidder, maxBid string) (models.Auction, Outcome) {
	t.Helper()
	out, err := Resolve(a, Submission{BidderID: bidder, MaxBid: d(maxBid)}, now)
	require.NoError(t, err)
	return Apply(a, out, now), out
}

func TestResolve_Scenarios(t *testing.T) {
	t.Parallel()

	a := newAuction("150")

	// Scenario A: first bid keeps the starting price visible
	a, out := place(t, a, "X", "160")
	require.True(t, d("150").Equal(a.CurrentBid))
	require.Equal(t, "X", *a.LeadingBidderID)
	require.True(t, out.SubmitterLeads)
	require.True(t, out.ChallengerBecameLeader)

	// Scenario B: weaker challenger forces the incumbent up
	a, out = place(t, a, "Y", "155")
	require.True(t, d("155").Equal(a.CurrentBid))
	require.Equal(t, "X", *a.LeadingBidderID)
	require.False(t, out.SubmitterLeads)

	// Scenario C: stronger challenger takes the lead at one increment over the old max
	a, out = place(t, a, "Y", "165")
	require.True(t, d("165").Equal(a.CurrentBid))
	require.Equal(t, "Y", *a.LeadingBidderID)
	require.True(t, d("165").Equal(a.LeadingMaxBid))
	require.True(t, out.ChallengerBecameLeader)
	require.Equal(t, 3, a.BidCount)
}

func TestResolve_Rejections(t *testing.T) {
	t.Parallel()

	led := newAuction("150")
	led.LeadingBidderID = ptr("X")
	led.LeadingMaxBid = d("200")
	led.CurrentBid = d("160")

	ended := newAuction("150")
	ended.Status = models.StatusEnded

	expired := newAuction("150")
	expired.EndTime = now

	cancelled := newAuction("150")
	cancelled.Status = models.StatusCancelled

	notOpen := newAuction("150")
	notOpen.Status = models.StatusScheduled
	notOpen.StartTime = now.Add(time.Minute)

	tests := []struct {
		name         string
		auction      models.Auction
		bidder       string
		maxBid       string
		wantKind     biddingerrors.Kind
		wantSentinel error
		wantMinimum  string
	}{
		{name: "below_minimum_first_bid", auction: newAuction("150"), bidder: "X", maxBid: "154.99", wantKind: biddingerrors.KindBidTooLow, wantSentinel: biddingerrors.ErrBidTooLow, wantMinimum: "155"},
		{name: "equal_to_current", auction: led, bidder: "Y", maxBid: "160", wantKind: biddingerrors.KindBidTooLow, wantSentinel: biddingerrors.ErrBidTooLow, wantMinimum: "165"},
		{name: "leader_lowering_max", auction: led, bidder: "X", maxBid: "180", wantKind: biddingerrors.KindNoOpBid, wantSentinel: biddingerrors.ErrNoOpBid},
		{name: "leader_same_max", auction: led, bidder: "X", maxBid: "200", wantKind: biddingerrors.KindNoOpBid, wantSentinel: biddingerrors.ErrNoOpBid},
		{name: "ended", auction: ended, bidder: "X", maxBid: "500", wantKind: biddingerrors.KindAuctionClosed, wantSentinel: biddingerrors.ErrAuctionClosed},
		{name: "at_end_time", auction: expired, bidder: "X", maxBid: "500", wantKind: biddingerrors.KindAuctionClosed, wantSentinel: biddingerrors.ErrAuctionClosed},
		{name: "cancelled", auction: cancelled, bidder: "X", maxBid: "500", wantKind: biddingerrors.KindAuctionClosed, wantSentinel: biddingerrors.ErrAuctionClosed},
		{name: "not_started", auction: notOpen, bidder: "X", maxBid: "500", wantKind: biddingerrors.KindAuctionClosed, wantSentinel: biddingerrors.ErrAuctionClosed},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Resolve(tc.auction, Submission{BidderID: tc.bidder, MaxBid: d(tc.maxBid)}, now)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.wantSentinel), "expected error: %v, got: %v", tc.wantSentinel, err)
			require.Equal(t, tc.wantKind, biddingerrors.KindOf(err))

			var be *biddingerrors.BidError
			require.True(t, errors.As(err, &be))
			if tc.wantMinimum != "" {
				require.NotNil(t, be.MinimumNextBid)
				require.True(t, d(tc.wantMinimum).Equal(*be.MinimumNextBid))
				require.Contains(t, err.Error(), d(tc.wantMinimum).StringFixed(2))
			}
			require.False(t, be.Retryable())
		})
	}
}

func TestResolve_TieKeepsIncumbent(t *testing.T) {
	t.Parallel()

	a := newAuction("150")
	a, _ = place(t, a, "X", "200")
	a, out := place(t, a, "Y", "200")

	require.Equal(t, "X", *a.LeadingBidderID)
	require.False(t, out.SubmitterLeads)
	require.False(t, out.ChallengerBecameLeader)
	require.True(t, d("200").Equal(a.CurrentBid))
	require.Equal(t, 2, a.BidCount)
}

func TestResolve_ChallengerAboveMinimumRaisesIncumbentToChallengerMax(t *testing.T) {
	t.Parallel()

	a := newAuction("150")
	a, _ = place(t, a, "X", "200")
	a, _ = place(t, a, "Y", "172")

	require.Equal(t, "X", *a.LeadingBidderID)
	require.True(t, d("172").Equal(a.CurrentBid))
}

func TestResolve_NewLeaderCappedAtOwnMax(t *testing.T) {
	t.Parallel()

	a := newAuction("40")
	a, _ = place(t, a, "X", "45")
	// one increment over 45 would be 46, challenger only offers 45.50
	a, out := place(t, a, "Y", "45.50")

	require.Equal(t, "Y", *a.LeadingBidderID)
	require.True(t, out.ChallengerBecameLeader)
	require.True(t, d("45.50").Equal(a.CurrentBid))
}

func TestResolve_LeaderRaisesOwnMax(t *testing.T) {
	t.Parallel()

	a := newAuction("150")
	a, _ = place(t, a, "X", "160")
	a, _ = place(t, a, "Y", "155")
	a, out := place(t, a, "X", "300")

	require.True(t, out.SubmitterLeads)
	require.False(t, out.ChallengerBecameLeader)
	require.True(t, d("155").Equal(a.CurrentBid), "raising your own max never raises the price")
	require.True(t, d("300").Equal(a.LeadingMaxBid))
}

func TestResolve_ActivatesScheduledAuction(t *testing.T) {
	t.Parallel()

	a := newAuction("10")
	a.Status = models.StatusScheduled
	a.StartTime = now.Add(-time.Second)

	a, out := place(t, a, "X", "20")
	require.True(t, out.Activated)
	require.Equal(t, models.StatusActive, a.Status)
}

func TestResolve_ReserveNeverGatesAcceptance(t *testing.T) {
	t.Parallel()

	a := newAuction("100")
	reserve := d("1000")
	a.ReservePrice = &reserve

	a, _ = place(t, a, "X", "110")
	require.False(t, a.ReserveMet())

	a, _ = place(t, a, "Y", "2000")
	require.True(t, d("115").Equal(a.CurrentBid))
	require.False(t, a.ReserveMet())
}

// Randomized fold over many submissions checking the price and leader invariants
func TestResolve_InvariantsHoldOverRandomSequences(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(42))
	bidders := []string{"A", "B", "C", "D"}

	for round := 0; round < 200; round++ {
		a := newAuction("25")
		for i := 0; i < 60; i++ {
			bidder := bidders[rnd.Intn(len(bidders))]
			maxBid := a.CurrentBid.Add(decimal.New(int64(rnd.Intn(6000)-500), -2))

			before := a
			out, err := Resolve(a, Submission{BidderID: bidder, MaxBid: maxBid}, now)
			if err != nil {
				// rejections leave the snapshot untouched by construction
				require.True(t, maxBid.LessThan(increment.MinimumNextBid(a.CurrentBid)) || a.IsLeader(bidder))
				continue
			}
			a = Apply(a, out, now)

			require.True(t, a.CurrentBid.GreaterThanOrEqual(before.CurrentBid), "current bid must not decrease")
			require.True(t, a.CurrentBid.GreaterThanOrEqual(a.StartingBid))
			require.True(t, a.LeadingMaxBid.GreaterThanOrEqual(a.CurrentBid), "leader max must cover current bid")
			require.True(t, a.HasLeader())

			if before.HasLeader() && *before.LeadingBidderID != *a.LeadingBidderID {
				require.True(t, maxBid.GreaterThan(before.LeadingMaxBid), "lead only changes on a strictly higher max")
			}
		}
	}
}
