package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/molla202/broadcast-service/internal/errs"
	"github.com/molla202/broadcast-service/internal/model"
	"github.com/molla202/broadcast-service/internal/service"
)

// ChannelHandler handles REST API for channels and connected channels.
type ChannelHandler struct {
	svc *service.ChannelService
}

// NewChannelHandler creates a channel handler.
func NewChannelHandler(svc *service.ChannelService) *ChannelHandler {
	return &ChannelHandler{svc: svc}
}

// CreateChannel godoc
// POST /channels
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	var req model.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	ch, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create channel"})
		return
	}
	c.JSON(http.StatusCreated, service.ToResponse(ch))
}

// GetChannel godoc
// GET /channels/:id
func (h *ChannelHandler) GetChannel(c *gin.Context) {
	ch, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get channel"})
		return
	}
	c.JSON(http.StatusOK, service.ToResponse(ch))
}

// ListChannels godoc
// GET /channels
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	channels, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list channels"})
		return
	}
	out := make([]model.ChannelResponse, 0, len(channels))
	for i := range channels {
		out = append(out, service.ToResponse(&channels[i]))
	}
	c.JSON(http.StatusOK, gin.H{"channels": out})
}

// AddConnectedChannel godoc
// POST /channels/:id/connected-channels
func (h *ChannelHandler) AddConnectedChannel(c *gin.Context) {
	var req model.AddConnectedChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	cc, err := h.svc.AddConnectedChannel(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrChannelNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		case errors.Is(err, errs.ErrConnectedChannelExists):
			c.JSON(http.StatusConflict, gin.H{"error": "connected channel already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add connected channel"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":                  cc.ID,
		"platform":            cc.Platform,
		"platform_channel_id": cc.PlatformChannelID,
	})
}

// UpdateLiveText godoc
// PUT /channels/:id/live-text
func (h *ChannelHandler) UpdateLiveText(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	if err := h.svc.SetLiveText(c.Request.Context(), c.Param("id"), req.Text); err != nil {
		if errors.Is(err, errs.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update live text"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
