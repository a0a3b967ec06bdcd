package bidding

import (
	"time"

	"proxybid/internal/increment"
	"proxybid/internal/models"
	"proxybid/internal/resolver"
	"proxybid/utils"
)

// stateView projects an auction for viewerID. No maximum bid ever leaves this function.
func stateView(a models.Auction, viewerID string, now time.Time) models.AuctionState {
	state := models.AuctionState{
		AuctionID:      a.ID,
		Title:          a.Title,
		CurrentBid:     a.CurrentBid,
		HasReserve:     a.ReservePrice != nil,
		ReserveMet:     a.ReserveMet(),
		BidCount:       a.BidCount,
		MinimumNextBid: increment.MinimumNextBid(a.CurrentBid),
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
		Status:         effectiveStatus(a, now),
	}
	if a.HasLeader() {
		state.Leader = utils.MaskBidder(*a.LeadingBidderID)
		state.IsLeading = viewerID != "" && a.IsLeader(viewerID)
	}
	return state
}

// bidView projects a ledger row; only the bidder themself sees it unmasked
func bidView(b models.Bid, viewerID string) models.BidView {
	view := models.BidView{
		Sequence:            b.Sequence,
		Bidder:              utils.MaskBidder(b.BidderID),
		ResultingCurrentBid: b.ResultingCurrentBid,
		BecameLeader:        b.BecameLeader,
		CreatedAt:           b.CreatedAt,
	}
	if viewerID != "" && viewerID == b.BidderID {
		view.Bidder = b.BidderID
		view.IsYou = true
	}
	return view
}

// effectiveStatus reports the status the clock implies, ahead of the lifecycle sweep
func effectiveStatus(a models.Auction, now time.Time) models.AuctionStatus {
	if a.Status.Terminal() {
		return a.Status
	}
	if !now.Before(a.EndTime) {
		return models.StatusEnded
	}
	if resolver.AcceptingBids(a, now) {
		return models.StatusActive
	}
	return a.Status
}
