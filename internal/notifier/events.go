// Package notifier publishes committed auction changes to subscribers.
package notifier

import (
	"context"
	"errors"
	"time"

	model "proxybid/internal/models"
)

// EventType names a change notification; it doubles as the AMQP routing key
type EventType string

const (
	EventStateChanged EventType = "auction.state_changed"
	EventBidInserted  EventType = "auction.bid_inserted"
)

// Event carries only public data; bidder identities are masked before publishing
type Event struct {
	ID         string              `json:"event_id"`
	Type       EventType           `json:"type"`
	AuctionID  string              `json:"auction_id"`
	OccurredAt time.Time           `json:"occurred_at"`
	State      *model.AuctionState `json:"state,omitempty"`
	Bid        *model.BidView      `json:"bid,omitempty"`
}

// Publisher delivers events to some transport
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Fanout publishes every event to all of its publishers
type Fanout []Publisher

// Publish delivers to each publisher and joins their errors
func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
