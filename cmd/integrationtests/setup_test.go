package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	bidding "proxybid/internal/biddingService"
	"proxybid/internal/notifier"
	"proxybid/internal/repository"
	"proxybid/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// SetupTestRouter initializes the router with an in-memory repository for integration testing.
func SetupTestRouter(t *testing.T) *gin.Engine {
	return SetupTestRouterWithStore(t, "memory", "")
}

// SetupTestRouterWithStore wires the full stack on the given store driver.
func SetupTestRouterWithStore(t *testing.T, driver, dsn string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo, closeRepo, err := repository.Open(driver, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeRepo() })

	hub := notifier.NewHub()
	service := bidding.NewBiddingService(repo, notifier.Fanout{hub})
	return server.SetupRouter(service, hub)
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}

// CreateAuction opens an auction ending in one hour and fails the test otherwise.
func CreateAuction(t *testing.T, router *gin.Engine, auctionID, startingBid string) {
	t.Helper()
	_, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/auctions", map[string]any{
		"auction_id":   auctionID,
		"title":        "Integration lot " + auctionID,
		"starting_bid": startingBid,
		"end_time":     time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

// PlaceBid submits a max bid and returns the response body and status
func PlaceBid(t *testing.T, router *gin.Engine, auctionID, bidderID, maxBid string) (map[string]any, int) {
	t.Helper()
	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/auctions/"+auctionID+"/bids", map[string]any{
		"bidder_id": bidderID,
		"max_bid":   maxBid,
	})
	return resp, w.Code
}
