package notifier

import (
	"context"
	"sync"
)

const subscriberBuffer = 64

type subscriber struct {
	auctionID string
	ch        chan Event
}

// Hub is an in-process fan-out of events to per-auction subscribers.
// State events are dropped for slow subscribers since a later state supersedes them;
// a subscriber too slow to take a bid event is evicted and its channel closed.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscriber
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[int]subscriber)}
}

// Subscribe registers for events of one auction. The cancel func is idempotent.
func (h *Hub) Subscribe(auctionID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = subscriber{auctionID: auctionID, ch: ch}

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.remove(id) })
	}
}

// Publish delivers the event to subscribers of its auction without blocking
func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, s := range h.subs {
		if s.auctionID != ev.AuctionID {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			if ev.Type == EventBidInserted {
				close(s.ch)
				delete(h.subs, id)
			}
		}
	}
	return nil
}

// Subscribers counts live subscriptions for an auction
func (h *Hub) Subscribers(auctionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, s := range h.subs {
		if s.auctionID == auctionID {
			n++
		}
	}
	return n
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.subs[id]; ok {
		close(s.ch)
		delete(h.subs, id)
	}
}
