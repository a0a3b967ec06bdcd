package biddingerrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestBidError_UnwrapsToSentinel(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("service: %w", TooLow(decimal.NewFromInt(155)))

	require.True(t, errors.Is(err, ErrBidTooLow))
	require.Equal(t, KindBidTooLow, KindOf(err))
	require.Contains(t, err.Error(), "155.00")

	var be *BidError
	require.True(t, errors.As(err, &be))
	require.True(t, decimal.NewFromInt(155).Equal(*be.MinimumNextBid))
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "typed_timeout", err: NewBidError(KindTimeout, "busy"), want: KindTimeout},
		{name: "wrapped_sentinel", err: fmt.Errorf("get auction x: %w", ErrAuctionNotFound), want: KindAuctionNotFound},
		{name: "transition", err: fmt.Errorf("service: %w", ErrInvalidTransition), want: KindInvalidTransition},
		{name: "unknown", err: context.Canceled, want: KindInternal},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	require.True(t, NewBidError(KindTimeout, "").Retryable())
	require.True(t, NewBidError(KindConcurrentConflict, "").Retryable())
	require.False(t, NewBidError(KindBidTooLow, "").Retryable())
	require.False(t, NewBidError(KindAuctionClosed, "").Retryable())

	require.True(t, IsRetryable(fmt.Errorf("wrapped: %w", NewBidError(KindTimeout, ""))))
	require.False(t, IsRetryable(errors.New("boom")))
	require.Equal(t, "timed out waiting for auction", NewBidError(KindTimeout, "").Error())
}
