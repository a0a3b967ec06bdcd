package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"proxybid/internal/biddingerrors"
	"proxybid/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch biddingerrors.KindOf(err) {
	case biddingerrors.KindAuctionNotFound:
		return http.StatusNotFound, "auction not found"
	case biddingerrors.KindInvalidBid:
		return http.StatusBadRequest, "invalid bid details"
	case biddingerrors.KindInvalidAuction:
		return http.StatusBadRequest, "invalid auction details"
	case biddingerrors.KindBidTooLow:
		return http.StatusConflict, "bid amount too low"
	case biddingerrors.KindNoOpBid:
		return http.StatusConflict, "max bid does not raise your current maximum"
	case biddingerrors.KindAuctionClosed:
		return http.StatusConflict, "auction is not accepting bids"
	case biddingerrors.KindAuctionExists:
		return http.StatusConflict, "auction already exists"
	case biddingerrors.KindInvalidTransition:
		return http.StatusConflict, "invalid auction status transition"
	case biddingerrors.KindConcurrentConflict:
		return http.StatusConflict, "auction changed concurrently, retry"
	case biddingerrors.KindTimeout:
		return http.StatusServiceUnavailable, "auction is busy, retry"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// WriteServiceError sends the mapped error with its machine-readable kind.
// Rejections the bidder can fix carry the minimum next bid.
func WriteServiceError(c *gin.Context, err error) int {
	status, message := MapErrorToHTTP(err)
	details := gin.H{
		"kind":      string(biddingerrors.KindOf(err)),
		"retryable": biddingerrors.IsRetryable(err),
	}
	var be *biddingerrors.BidError
	if errors.As(err, &be) && be.MinimumNextBid != nil {
		details["minimum_next_bid"] = be.MinimumNextBid.StringFixed(2)
	}
	respErr := fmt.Errorf("%s: %w", message, err)
	if status == http.StatusInternalServerError {
		// storage causes stay in the logs
		respErr = errors.New(message)
	}
	utils.JSONErrorWithDetails(c, status, respErr, message, details)
	return status
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
