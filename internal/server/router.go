package server

import (
	"net/http"

	handler "proxybid/services/bidding/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application.
// events may be nil, which disables the websocket stream.
func SetupRouter(biddingService handler.BiddingServiceInterface, events handler.Subscriber) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	biddingHandler := handler.NewBiddingHandler(biddingService, events)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auctions := router.Group("/auctions")
	{
		auctions.POST("", biddingHandler.CreateAuctionHandler)
		auctions.GET("/:auction_id", biddingHandler.GetAuctionStateHandler)
		auctions.POST("/:auction_id/close", biddingHandler.CloseAuctionHandler)
		auctions.POST("/:auction_id/cancel", biddingHandler.CancelAuctionHandler)
		auctions.GET("/:auction_id/bids", biddingHandler.GetBidHistoryHandler)
		auctions.POST("/:auction_id/bids", biddingHandler.PlaceBidHandler)
		auctions.GET("/:auction_id/stream", biddingHandler.StreamHandler)
	}

	return router
}
