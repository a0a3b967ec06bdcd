package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"proxybid/internal/biddingerrors"

	"github.com/stretchr/testify/require"
)

func TestMapErrorToHTTP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not_found_sentinel", fmt.Errorf("service: %w", biddingerrors.ErrAuctionNotFound), http.StatusNotFound},
		{"not_found_kind", biddingerrors.NewBidError(biddingerrors.KindAuctionNotFound, ""), http.StatusNotFound},
		{"invalid_bid", biddingerrors.NewBidError(biddingerrors.KindInvalidBid, "x"), http.StatusBadRequest},
		{"invalid_auction", fmt.Errorf("service: %w", biddingerrors.ErrInvalidAuction), http.StatusBadRequest},
		{"too_low", biddingerrors.ErrBidTooLow, http.StatusConflict},
		{"no_op", biddingerrors.NewBidError(biddingerrors.KindNoOpBid, ""), http.StatusConflict},
		{"closed", biddingerrors.NewBidError(biddingerrors.KindAuctionClosed, ""), http.StatusConflict},
		{"exists", fmt.Errorf("create: %w", biddingerrors.ErrAuctionExists), http.StatusConflict},
		{"transition", biddingerrors.NewBidError(biddingerrors.KindInvalidTransition, ""), http.StatusConflict},
		{"conflict", biddingerrors.NewBidError(biddingerrors.KindConcurrentConflict, ""), http.StatusConflict},
		{"timeout", biddingerrors.NewBidError(biddingerrors.KindTimeout, ""), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			status, msg := MapErrorToHTTP(tc.err)
			require.Equal(t, tc.wantStatus, status)
			require.NotEmpty(t, msg)
		})
	}
}
