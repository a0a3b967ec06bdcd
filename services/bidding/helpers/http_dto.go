package helpers

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	BidderID string          `json:"bidder_id" binding:"required"`
	MaxBid   decimal.Decimal `json:"max_bid"`
}

type PlaceBidResponse struct {
	BidID          string `json:"bid_id"`
	AuctionID      string `json:"auction_id"`
	CurrentBid     string `json:"current_bid"`
	IsLeading      bool   `json:"is_leading"`
	MinimumNextBid string `json:"minimum_next_bid"`
}

type CreateAuctionRequest struct {
	AuctionID    string           `json:"auction_id"`
	Title        string           `json:"title" binding:"required"`
	StartingBid  decimal.Decimal  `json:"starting_bid"`
	ReservePrice *decimal.Decimal `json:"reserve_price"`
	StartTime    *time.Time       `json:"start_time"`
	EndTime      time.Time        `json:"end_time"`
}

// HistoryQuery binds GET /auctions/:auction_id/bids
type HistoryQuery struct {
	ViewerID string `form:"viewer_id"`
	Limit    int    `form:"limit" binding:"gte=0"`
	Offset   int    `form:"offset" binding:"gte=0"`
}
