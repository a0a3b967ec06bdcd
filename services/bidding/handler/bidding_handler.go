package handler

import (
	"context"
	"net/http"

	"proxybid/internal/models"
	"proxybid/services/bidding/helpers"
	"proxybid/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mock_bidding_service.go -package=handler proxybid/services/bidding/handler BiddingServiceInterface

type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, auctionID, bidderID string, maxBid decimal.Decimal) (models.PlaceBidResult, error)
	GetAuctionState(ctx context.Context, auctionID, viewerID string) (models.AuctionState, error)
	GetBidHistory(ctx context.Context, auctionID, viewerID string, limit, offset int) ([]models.BidView, error)
	CreateAuction(ctx context.Context, params models.CreateAuctionParams) (models.AuctionState, error)
	CloseAuction(ctx context.Context, auctionID string) (models.AuctionState, error)
	CancelAuction(ctx context.Context, auctionID string) (models.AuctionState, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
	events  Subscriber
}

// NewBiddingHandler wires the HTTP surface; events may be nil when streaming is disabled
func NewBiddingHandler(service BiddingServiceInterface, events Subscriber) *BiddingHandler {
	return &BiddingHandler{service: service, events: events}
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	res, err := h.service.PlaceBid(c.Request.Context(), auctionID, req.BidderID, req.MaxBid)
	if err != nil {
		status := helpers.WriteServiceError(c, err)
		fields := map[string]any{
			"handler":    "PlaceBidHandler",
			"auction_id": auctionID,
			"bidder":     utils.MaskBidder(req.BidderID),
			"status":     status,
			"error":      err.Error(),
		}
		if status == http.StatusInternalServerError {
			utils.Error("PlaceBidHandler: failed to place bid", fields)
		} else {
			utils.Info("PlaceBidHandler: bid rejected", fields)
		}
		return
	}

	resp := helpers.PlaceBidResponse{
		BidID:          res.BidID,
		AuctionID:      auctionID,
		CurrentBid:     res.CurrentBid.StringFixed(2),
		IsLeading:      res.IsLeading,
		MinimumNextBid: res.MinimumNextBid.StringFixed(2),
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid accepted")
	helpers.LogSuccess("PlaceBidHandler", "bid accepted", map[string]any{
		"bid_id":      res.BidID,
		"auction_id":  auctionID,
		"bidder":      utils.MaskBidder(req.BidderID),
		"current_bid": resp.CurrentBid,
		"is_leading":  res.IsLeading,
	})
}

// GetAuctionStateHandler handles GET /auctions/:auction_id
func (h *BiddingHandler) GetAuctionStateHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	state, err := h.service.GetAuctionState(c.Request.Context(), auctionID, c.Query("viewer_id"))
	if err != nil {
		helpers.WriteServiceError(c, err)
		utils.Warn("GetAuctionStateHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, state, "auction retrieved successfully")
}

// GetBidHistoryHandler handles GET /auctions/:auction_id/bids
func (h *BiddingHandler) GetBidHistoryHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var q helpers.HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		helpers.HandleBindError(c, "GetBidHistoryHandler", err)
		return
	}

	bids, err := h.service.GetBidHistory(c.Request.Context(), auctionID, q.ViewerID, q.Limit, q.Offset)
	if err != nil {
		helpers.WriteServiceError(c, err)
		utils.Warn("GetBidHistoryHandler: error retrieving bids", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	if bids == nil {
		bids = []models.BidView{}
	}

	utils.JSONResponse(c, http.StatusOK, bids, "bids retrieved successfully")
	helpers.LogSuccess("GetBidHistoryHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(bids),
	})
}

// CreateAuctionHandler handles POST /auctions
func (h *BiddingHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	params := models.CreateAuctionParams{
		ID:           req.AuctionID,
		Title:        req.Title,
		StartingBid:  req.StartingBid,
		ReservePrice: req.ReservePrice,
		EndTime:      req.EndTime,
	}
	if req.StartTime != nil {
		params.StartTime = *req.StartTime
	}

	state, err := h.service.CreateAuction(c.Request.Context(), params)
	if err != nil {
		helpers.WriteServiceError(c, err)
		utils.Warn("CreateAuctionHandler: failed to create auction", map[string]any{"auction_id": req.AuctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, state, "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": state.AuctionID,
		"status":     string(state.Status),
	})
}

// CloseAuctionHandler handles POST /auctions/:auction_id/close
func (h *BiddingHandler) CloseAuctionHandler(c *gin.Context) {
	h.transition(c, "CloseAuctionHandler", "auction closed", h.service.CloseAuction)
}

// CancelAuctionHandler handles POST /auctions/:auction_id/cancel
func (h *BiddingHandler) CancelAuctionHandler(c *gin.Context) {
	h.transition(c, "CancelAuctionHandler", "auction cancelled", h.service.CancelAuction)
}

func (h *BiddingHandler) transition(c *gin.Context, handlerName, message string,
	op func(ctx context.Context, auctionID string) (models.AuctionState, error)) {

	auctionID := c.Param("auction_id")
	state, err := op(c.Request.Context(), auctionID)
	if err != nil {
		helpers.WriteServiceError(c, err)
		utils.Warn(handlerName+": transition failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, state, message)
	helpers.LogSuccess(handlerName, message, map[string]any{"auction_id": auctionID})
}
