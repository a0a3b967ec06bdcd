package handler

import (
	"errors"
	"net/http"
	"time"

	"proxybid/internal/notifier"
	"proxybid/services/bidding/helpers"
	"proxybid/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 30 * time.Second
)

var errNoStreaming = errors.New("no event hub configured")

// Subscriber hands out per-auction event feeds
type Subscriber interface {
	Subscribe(auctionID string) (<-chan notifier.Event, func())
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// public data only, any origin may watch
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamFrame is one websocket message; the first frame is the auction snapshot
type streamFrame struct {
	Type  string          `json:"type"`
	Event *notifier.Event `json:"event,omitempty"`
	State any             `json:"state,omitempty"`
}

// StreamHandler handles GET /auctions/:auction_id/stream.
// Subscribers receive the current state, then every change event for the auction.
func (h *BiddingHandler) StreamHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	if h.events == nil {
		utils.JSONError(c, http.StatusNotFound, errNoStreaming, "streaming disabled")
		return
	}

	// subscribe before the snapshot so no change falls between them
	events, cancel := h.events.Subscribe(auctionID)
	defer cancel()

	state, err := h.service.GetAuctionState(c.Request.Context(), auctionID, c.Query("viewer_id"))
	if err != nil {
		helpers.WriteServiceError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Warn("StreamHandler: upgrade failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}
	defer conn.Close()

	// read pump only detects the peer going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeFrame(conn, streamFrame{Type: "snapshot", State: state}); err != nil {
		return
	}

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	utils.Info("StreamHandler: subscriber connected", map[string]any{"auction_id": auctionID})
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// evicted as a slow consumer
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"),
					time.Now().Add(streamWriteWait))
				return
			}
			if err := writeFrame(conn, streamFrame{Type: string(ev.Type), Event: &ev}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, f streamFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(f)
}
