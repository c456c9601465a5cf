package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/molla202/broadcast-service/internal/errs"
	"github.com/molla202/broadcast-service/internal/model"
	"github.com/molla202/broadcast-service/internal/service"
)

// StreamHandler handles lifecycle transitions: start, stop, ingest callbacks
// and status.
type StreamHandler struct {
	lifecycle *service.LifecycleController
}

// NewStreamHandler creates a stream lifecycle handler.
func NewStreamHandler(lifecycle *service.LifecycleController) *StreamHandler {
	return &StreamHandler{lifecycle: lifecycle}
}

// Start godoc
// POST /channels/:id/start
func (h *StreamHandler) Start(c *gin.Context) {
	if err := h.lifecycle.Start(c.Request.Context(), c.Param("id")); err != nil {
		h.writeLifecycleError(c, err, "failed to start channel")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

// Stop godoc
// POST /channels/:id/stop
func (h *StreamHandler) Stop(c *gin.Context) {
	if err := h.lifecycle.Stop(c.Request.Context(), c.Param("id")); err != nil {
		h.writeLifecycleError(c, err, "failed to stop channel")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

// SwitchToLive godoc
// POST /channels/:id/live (ingest-started callback from the media server)
func (h *StreamHandler) SwitchToLive(c *gin.Context) {
	var req model.SwitchToLiveRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	if err := h.lifecycle.SwitchToLive(c.Request.Context(), c.Param("id")); err != nil {
		h.writeLifecycleError(c, err, "failed to switch to live")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "live"})
}

// SwitchToBroadcast godoc
// POST /channels/:id/broadcast (ingest-ended callback from the media server)
func (h *StreamHandler) SwitchToBroadcast(c *gin.Context) {
	var req model.SwitchToBroadcastRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	if err := h.lifecycle.SwitchToBroadcast(c.Request.Context(), c.Param("id"), req.PlaybackID); err != nil {
		h.writeLifecycleError(c, err, "failed to switch to broadcast")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "broadcast"})
}

// Status godoc
// GET /channels/:id/status
func (h *StreamHandler) Status(c *gin.Context) {
	st, err := h.lifecycle.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get status"})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *StreamHandler) writeLifecycleError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, errs.ErrChannelNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
	case errors.Is(err, errs.ErrAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "channel is already running"})
	case errors.Is(err, errs.ErrSlotInvariant):
		c.JSON(http.StatusConflict, gin.H{"error": "slot window conflict"})
	case errors.Is(err, errs.ErrPlayoutRequest):
		c.JSON(http.StatusBadGateway, gin.H{"error": "playout backend request failed"})
	case errors.Is(err, errs.ErrPartnerCreate):
		c.JSON(http.StatusBadGateway, gin.H{"error": "partner platform provisioning failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
