package biddingerrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Repository-level errors
var (
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrAuctionExists    = errors.New("auction already exists")
	ErrVersionConflict  = errors.New("auction version conflict")
	ErrConcurrentUpdate = errors.New("concurrent update retries exhausted")
)

// business logic errors
var (
	ErrInvalidBid        = errors.New("invalid bid")
	ErrBidTooLow         = errors.New("bid amount too low")
	ErrNoOpBid           = errors.New("max bid does not raise your current maximum")
	ErrAuctionClosed     = errors.New("auction is not accepting bids")
	ErrTimeout           = errors.New("timed out waiting for auction")
	ErrInvalidAuction    = errors.New("invalid auction")
	ErrInvalidTransition = errors.New("invalid auction status transition")
)

// Kind is the caller-facing classification of a failed submission
type Kind string

const (
	KindBidTooLow          Kind = "BID_TOO_LOW"
	KindNoOpBid            Kind = "NO_OP_BID"
	KindAuctionClosed      Kind = "AUCTION_CLOSED"
	KindAuctionNotFound    Kind = "AUCTION_NOT_FOUND"
	KindTimeout            Kind = "TIMEOUT"
	KindConcurrentConflict Kind = "CONCURRENT_CONFLICT"
	KindInvalidBid         Kind = "INVALID_BID"
	KindInvalidTransition  Kind = "INVALID_TRANSITION"
	KindInvalidAuction     Kind = "INVALID_AUCTION"
	KindAuctionExists      Kind = "AUCTION_EXISTS"
	KindInternal           Kind = "INTERNAL"
)

var kindSentinels = map[Kind]error{
	KindBidTooLow:          ErrBidTooLow,
	KindNoOpBid:            ErrNoOpBid,
	KindAuctionClosed:      ErrAuctionClosed,
	KindAuctionNotFound:    ErrAuctionNotFound,
	KindTimeout:            ErrTimeout,
	KindConcurrentConflict: ErrConcurrentUpdate,
	KindInvalidBid:         ErrInvalidBid,
	KindInvalidTransition:  ErrInvalidTransition,
	KindInvalidAuction:     ErrInvalidAuction,
	KindAuctionExists:      ErrAuctionExists,
}

// BidError is a typed rejection of a bid submission.
// MinimumNextBid is set whenever the bidder can fix the submission by bidding more.
type BidError struct {
	Kind           Kind
	MinimumNextBid *decimal.Decimal
	Detail         string
}

// NewBidError builds a rejection of the given kind
func NewBidError(kind Kind, detail string) *BidError {
	return &BidError{Kind: kind, Detail: detail}
}

// TooLow builds a BID_TOO_LOW rejection carrying the required minimum
func TooLow(minimum decimal.Decimal) *BidError {
	return &BidError{
		Kind:           KindBidTooLow,
		MinimumNextBid: &minimum,
		Detail:         fmt.Sprintf("minimum next bid is %s", minimum.StringFixed(2)),
	}
}

func (e *BidError) Error() string {
	base := string(e.Kind)
	if s, ok := kindSentinels[e.Kind]; ok {
		base = s.Error()
	}
	if e.Detail == "" {
		return base
	}
	return base + ": " + e.Detail
}

// Unwrap lets errors.Is match the sentinel for the kind
func (e *BidError) Unwrap() error {
	return kindSentinels[e.Kind]
}

// Retryable reports whether the caller may safely resubmit once
func (e *BidError) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindConcurrentConflict
}

// KindOf classifies any error returned by the bidding service
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var be *BidError
	if errors.As(err, &be) {
		return be.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindInternal
}

// IsRetryable reports whether err is a transient failure
func IsRetryable(err error) bool {
	k := KindOf(err)
	return k == KindTimeout || k == KindConcurrentConflict
}
