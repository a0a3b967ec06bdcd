package bidding

import (
	"context"
	"sync"
	"time"

	"proxybid/internal/biddingerrors"
)

// auctionLock is a one-slot semaphore; holders counts goroutines holding or waiting
type auctionLock struct {
	slot    chan struct{}
	holders int
}

// lockTable hands out one exclusive section per auction ID.
// Entries are dropped once nobody holds or waits for them.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*auctionLock
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*auctionLock)}
}

// acquire blocks until the auction's section is free, wait elapses, or ctx is done.
// The returned func releases the section and must be called exactly once.
func (t *lockTable) acquire(ctx context.Context, auctionID string, wait time.Duration) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, biddingerrors.NewBidError(biddingerrors.KindTimeout, err.Error())
	}

	l := t.ref(auctionID)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case l.slot <- struct{}{}:
		return func() {
			<-l.slot
			t.unref(auctionID)
		}, nil
	case <-timer.C:
		t.unref(auctionID)
		return nil, biddingerrors.NewBidError(biddingerrors.KindTimeout, "auction is busy, retry")
	case <-ctx.Done():
		t.unref(auctionID)
		return nil, biddingerrors.NewBidError(biddingerrors.KindTimeout, ctx.Err().Error())
	}
}

func (t *lockTable) ref(auctionID string) *auctionLock {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.locks[auctionID]
	if !ok {
		l = &auctionLock{slot: make(chan struct{}, 1)}
		t.locks[auctionID] = l
	}
	l.holders++
	return l
}

func (t *lockTable) unref(auctionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.locks[auctionID]
	if !ok {
		return
	}
	l.holders--
	if l.holders == 0 {
		delete(t.locks, auctionID)
	}
}

// size reports how many auctions have holders or waiters
func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
