package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus is the lifecycle state of an auction
type AuctionStatus string

const (
	StatusScheduled AuctionStatus = "scheduled"
	StatusActive    AuctionStatus = "active"
	StatusEnded     AuctionStatus = "ended"
	StatusCancelled AuctionStatus = "cancelled"
)

// Terminal reports whether no further transition is possible
func (s AuctionStatus) Terminal() bool {
	return s == StatusEnded || s == StatusCancelled
}

// Auction is the aggregate root owned by the bidding coordinator.
// LeadingMaxBid is confidential and never serialized.
type Auction struct {
	ID              string           `json:"auction_id" gorm:"primaryKey"`
	Title           string           `json:"title"`
	StartingBid     decimal.Decimal  `json:"starting_bid" gorm:"type:numeric(20,2);not null"`
	ReservePrice    *decimal.Decimal `json:"-" gorm:"type:numeric(20,2)"`
	CurrentBid      decimal.Decimal  `json:"current_bid" gorm:"type:numeric(20,2);not null"`
	LeadingBidderID *string          `json:"-" gorm:"index"`
	LeadingMaxBid   decimal.Decimal  `json:"-" gorm:"type:numeric(20,2);not null"`
	BidCount        int              `json:"bid_count" gorm:"not null;default:0"`
	StartTime       time.Time        `json:"start_time" gorm:"index"`
	EndTime         time.Time        `json:"end_time" gorm:"index"`
	Status          AuctionStatus    `json:"status" gorm:"index;not null"`
	Version         int64            `json:"-" gorm:"not null;default:0"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// HasLeader reports whether a bidder currently leads the auction
func (a Auction) HasLeader() bool {
	return a.LeadingBidderID != nil && *a.LeadingBidderID != ""
}

// IsLeader reports whether bidderID is the current leader
func (a Auction) IsLeader(bidderID string) bool {
	return a.HasLeader() && *a.LeadingBidderID == bidderID
}

// ReserveMet reports whether the public price has reached the reserve.
// Auctions without a reserve always report true.
func (a Auction) ReserveMet() bool {
	if a.ReservePrice == nil {
		return true
	}
	return a.HasLeader() && a.CurrentBid.GreaterThanOrEqual(*a.ReservePrice)
}

// Bid is an immutable ledger entry for one accepted submission
type Bid struct {
	ID                  string          `json:"bid_id" gorm:"primaryKey"`
	AuctionID           string          `json:"auction_id" gorm:"index:idx_bids_auction_seq,unique,priority:1;not null"`
	Sequence            int             `json:"sequence" gorm:"index:idx_bids_auction_seq,unique,priority:2;not null"`
	BidderID            string          `json:"-" gorm:"index;not null"`
	MaxBidAmount        decimal.Decimal `json:"-" gorm:"type:numeric(20,2);not null"`
	ResultingCurrentBid decimal.Decimal `json:"resulting_current_bid" gorm:"type:numeric(20,2);not null"`
	BecameLeader        bool            `json:"became_leader"`
	CreatedAt           time.Time       `json:"created_at"`
}

// CreateAuctionParams describes a listing published as a timed auction
type CreateAuctionParams struct {
	ID           string
	Title        string
	StartingBid  decimal.Decimal
	ReservePrice *decimal.Decimal
	StartTime    time.Time
	EndTime      time.Time
}

// AuctionState is the public read model of an auction
type AuctionState struct {
	AuctionID      string          `json:"auction_id"`
	Title          string          `json:"title"`
	CurrentBid     decimal.Decimal `json:"current_bid"`
	Leader         string          `json:"leader,omitempty"`
	IsLeading      bool            `json:"is_leading"`
	HasReserve     bool            `json:"has_reserve"`
	ReserveMet     bool            `json:"reserve_met"`
	BidCount       int             `json:"bid_count"`
	MinimumNextBid decimal.Decimal `json:"minimum_next_bid"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	Status         AuctionStatus   `json:"status"`
}

// BidView is the public read model of a ledger entry
type BidView struct {
	Sequence            int             `json:"sequence"`
	Bidder              string          `json:"bidder"`
	IsYou               bool            `json:"is_you"`
	ResultingCurrentBid decimal.Decimal `json:"resulting_current_bid"`
	BecameLeader        bool            `json:"became_leader"`
	CreatedAt           time.Time       `json:"created_at"`
}

// PlaceBidResult is returned to the bidder that submitted
type PlaceBidResult struct {
	Accepted       bool            `json:"accepted"`
	BidID          string          `json:"bid_id"`
	CurrentBid     decimal.Decimal `json:"current_bid"`
	IsLeading      bool            `json:"is_leading"`
	MinimumNextBid decimal.Decimal `json:"minimum_next_bid"`
}
