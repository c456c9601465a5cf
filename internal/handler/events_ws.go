package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/molla202/broadcast-service/internal/service"
	"go.uber.org/zap"
)

// EventsWSHandler handles WebSocket subscriptions for channel lifecycle events.
type EventsWSHandler struct {
	hub      *service.EventHub
	channels *service.ChannelService
	logger   *zap.Logger
}

// NewEventsWSHandler creates the events WebSocket handler.
func NewEventsWSHandler(hub *service.EventHub, channels *service.ChannelService, logger *zap.Logger) *EventsWSHandler {
	return &EventsWSHandler{hub: hub, channels: channels, logger: logger}
}

// ServeWS upgrades the request and streams lifecycle events for the channel.
// Path: /ws/channels/:id/events
func (h *EventsWSHandler) ServeWS(c *gin.Context) {
	channelID := c.Param("id")
	if channelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel id required"})
		return
	}
	if _, err := h.channels.Get(c.Request.Context(), channelID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}

	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	w, cleanup := h.hub.Register(channelID, conn)
	defer cleanup()

	go h.writePump(w)
	h.readPump(w)
}

// readPump drains the connection until the watcher disconnects. Watchers are
// receive-only; any inbound payload is discarded.
func (h *EventsWSHandler) readPump(w *service.Watcher) {
	defer func() {
		_ = w.Conn.Close()
	}()
	for {
		if _, _, err := w.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.Error(err))
			}
			break
		}
	}
}

func (h *EventsWSHandler) writePump(w *service.Watcher) {
	defer func() {
		_ = w.Conn.Close()
	}()
	for data := range w.Send {
		if err := w.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
}
