// Package resolver computes the outcome of a proxy bid against an auction snapshot.
//
// The resolver is pure: it never reads storage or the clock, so the coordinator can
// re-run it against a fresh snapshot whenever an optimistic write loses a race.
package resolver

import (
	"fmt"
	"time"

	"proxybid/internal/biddingerrors"
	"proxybid/internal/increment"
	"proxybid/internal/models"

	"github.com/shopspring/decimal"
)

// Submission is one bidder's request to set their confidential maximum
type Submission struct {
	BidderID string
	MaxBid   decimal.Decimal
}

// Outcome is the state an accepted submission produces
type Outcome struct {
	NewCurrentBid decimal.Decimal
	NewLeaderID   string
	NewLeaderMax  decimal.Decimal

	// ChallengerBecameLeader is true when the lead moved to the submitter
	ChallengerBecameLeader bool

	// SubmitterLeads is true when the submitter leads after this bid,
	// including a leader raising their own maximum.
	SubmitterLeads bool

	// Activated is true when a scheduled auction whose start time has
	// passed accepts its first submission.
	Activated bool
}

// AcceptingBids reports whether the auction takes bids at now.
// A scheduled auction counts as active once its start time is reached.
func AcceptingBids(a models.Auction, now time.Time) bool {
	if !now.Before(a.EndTime) {
		return false
	}
	switch a.Status {
	case models.StatusActive:
		return true
	case models.StatusScheduled:
		return !now.Before(a.StartTime)
	default:
		return false
	}
}

// Resolve applies a submission to the auction snapshot.
//
// Processing flow:
//  1. Reject closed auctions, bids under the minimum next bid, and leader self-raises
//     that do not increase their maximum.
//  2. First bid: submitter leads and the visible price stays at the starting bid.
//  3. Leader raising their own maximum: only the maximum changes.
//  4. Challenger at or under the leader's maximum: leader keeps the lead (ties go to the
//     earlier bidder) and is raised to the challenger's level, capped at their maximum.
//  5. Challenger over the leader's maximum: challenger leads and pays one increment over
//     the previous maximum, capped at their own maximum.
func Resolve(a models.Auction, sub Submission, now time.Time) (Outcome, error) {
	if !AcceptingBids(a, now) {
		return Outcome{}, biddingerrors.NewBidError(biddingerrors.KindAuctionClosed,
			fmt.Sprintf("auction %s is %s", a.ID, describeClosed(a, now)))
	}

	minimum := increment.MinimumNextBid(a.CurrentBid)
	if sub.MaxBid.LessThan(minimum) {
		return Outcome{}, biddingerrors.TooLow(minimum)
	}

	activated := a.Status == models.StatusScheduled

	if !a.HasLeader() {
		return Outcome{
			NewCurrentBid:          a.StartingBid,
			NewLeaderID:            sub.BidderID,
			NewLeaderMax:           sub.MaxBid,
			ChallengerBecameLeader: true,
			SubmitterLeads:         true,
			Activated:              activated,
		}, nil
	}

	leaderID := *a.LeadingBidderID
	leaderMax := a.LeadingMaxBid

	if leaderID == sub.BidderID {
		if sub.MaxBid.LessThanOrEqual(leaderMax) {
			return Outcome{}, biddingerrors.NewBidError(biddingerrors.KindNoOpBid,
				"new maximum must exceed your current maximum")
		}
		return Outcome{
			NewCurrentBid:  a.CurrentBid,
			NewLeaderID:    leaderID,
			NewLeaderMax:   sub.MaxBid,
			SubmitterLeads: true,
			Activated:      activated,
		}, nil
	}

	if sub.MaxBid.LessThanOrEqual(leaderMax) {
		raised := decimal.Min(leaderMax, decimal.Max(minimum, sub.MaxBid))
		return Outcome{
			NewCurrentBid: decimal.Max(raised, a.CurrentBid),
			NewLeaderID:   leaderID,
			NewLeaderMax:  leaderMax,
			Activated:     activated,
		}, nil
	}

	return Outcome{
		NewCurrentBid:          decimal.Min(sub.MaxBid, increment.MinimumNextBid(leaderMax)),
		NewLeaderID:            sub.BidderID,
		NewLeaderMax:           sub.MaxBid,
		ChallengerBecameLeader: true,
		SubmitterLeads:         true,
		Activated:              activated,
	}, nil
}

// Apply returns the auction after an accepted outcome, with the bid counted.
// The version is left untouched; the store bumps it on commit.
func Apply(a models.Auction, out Outcome, now time.Time) models.Auction {
	next := a
	leader := out.NewLeaderID
	next.LeadingBidderID = &leader
	next.LeadingMaxBid = out.NewLeaderMax
	next.CurrentBid = out.NewCurrentBid
	next.BidCount = a.BidCount + 1
	if out.Activated {
		next.Status = models.StatusActive
	}
	next.UpdatedAt = now
	return next
}

func describeClosed(a models.Auction, now time.Time) string {
	switch {
	case a.Status == models.StatusScheduled && now.Before(a.StartTime):
		return "not open yet"
	case a.Status.Terminal():
		return string(a.Status)
	default:
		return "past its end time"
	}
}
