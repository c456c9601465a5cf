package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ChannelEvent is a lifecycle transition published to watchers.
type ChannelEvent struct {
	ChannelID string    `json:"channel_id"`
	Event     string    `json:"event"` // started, stopped, switched_live, switched_broadcast
	Mode      string    `json:"mode"`
	At        time.Time `json:"at"`
}

// Watcher is a WebSocket subscriber for a channel's lifecycle events.
type Watcher struct {
	ChannelID string
	Conn      *websocket.Conn
	Send      chan []byte
}

// EventHub fans lifecycle events out to per-channel WebSocket watchers.
type EventHub struct {
	mu       sync.RWMutex
	watchers map[string]map[*Watcher]struct{} // channelID -> set of watchers
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewEventHub creates an event hub.
func NewEventHub(log *zap.Logger) *EventHub {
	return &EventHub{
		watchers: make(map[string]map[*Watcher]struct{}),
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Allow all origins for dev; in prod set CheckOrigin.
		},
	}
}

// Upgrader returns the WebSocket upgrader for HTTP handlers.
func (h *EventHub) Upgrader() *websocket.Upgrader {
	return &h.upgrader
}

// Register adds a watcher for a channel and returns a cleanup function.
func (h *EventHub) Register(channelID string, conn *websocket.Conn) (*Watcher, func()) {
	w := &Watcher{
		ChannelID: channelID,
		Conn:      conn,
		Send:      make(chan []byte, 64),
	}
	h.mu.Lock()
	if h.watchers[channelID] == nil {
		h.watchers[channelID] = make(map[*Watcher]struct{})
	}
	h.watchers[channelID][w] = struct{}{}
	h.mu.Unlock()

	h.log.Info("watcher registered", zap.String("channel_id", channelID))

	cleanup := func() {
		h.unregister(channelID, w)
	}
	return w, cleanup
}

func (h *EventHub) unregister(channelID string, w *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.watchers[channelID]; ok {
		delete(m, w)
		if len(m) == 0 {
			delete(h.watchers, channelID)
		}
	}
	close(w.Send)
	h.log.Info("watcher unregistered", zap.String("channel_id", channelID))
}

// Publish sends an event to all watchers of the channel. Watchers with a full
// buffer are skipped.
func (h *EventHub) Publish(evt ChannelEvent) {
	raw, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.mu.RLock()
	m, ok := h.watchers[evt.ChannelID]
	if !ok {
		h.mu.RUnlock()
		return
	}
	// Copy watchers so we don't hold the lock while writing.
	watchers := make([]*Watcher, 0, len(m))
	for w := range m {
		watchers = append(watchers, w)
	}
	h.mu.RUnlock()

	for _, w := range watchers {
		select {
		case w.Send <- raw:
		default:
			h.log.Warn("watcher send buffer full", zap.String("channel_id", evt.ChannelID))
		}
	}
}

// CloseChannel closes all watcher connections for the channel.
func (h *EventHub) CloseChannel(channelID string) {
	h.mu.Lock()
	m, ok := h.watchers[channelID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.watchers, channelID)
	h.mu.Unlock()

	closeMsg := map[string]string{"event": "channel_closed", "channel_id": channelID}
	raw, _ := json.Marshal(closeMsg)
	for w := range m {
		_ = w.Conn.WriteMessage(websocket.TextMessage, raw)
		close(w.Send)
		_ = w.Conn.Close()
	}
	h.log.Info("channel watchers closed", zap.String("channel_id", channelID))
}

// WatcherCount returns the number of watchers for a channel (for debugging).
func (h *EventHub) WatcherCount(channelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[channelID])
}
