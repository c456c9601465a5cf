package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/molla202/broadcast-service/internal/errs"
	"github.com/molla202/broadcast-service/internal/model"
	"github.com/molla202/broadcast-service/internal/service"
)

// DestinationHandler handles REST API for channel destinations.
type DestinationHandler struct {
	registry *service.DestinationRegistry
}

// NewDestinationHandler creates a destination handler.
func NewDestinationHandler(registry *service.DestinationRegistry) *DestinationHandler {
	return &DestinationHandler{registry: registry}
}

// AddDestination godoc
// POST /channels/:id/destinations
func (h *DestinationHandler) AddDestination(c *gin.Context) {
	var req model.AddDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	dest, err := h.registry.Add(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrChannelNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		case errors.Is(err, errs.ErrDestinationExists):
			c.JSON(http.StatusConflict, gin.H{"error": "destination already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add destination"})
		}
		return
	}
	c.JSON(http.StatusCreated, dest)
}

// UpdateDestination godoc
// PATCH /channels/:id/destinations/:destination_id
func (h *DestinationHandler) UpdateDestination(c *gin.Context) {
	var patch model.DestinationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	dest, err := h.registry.Update(c.Request.Context(), c.Param("id"), c.Param("destination_id"), patch)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrChannelNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		case errors.Is(err, errs.ErrDestinationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "destination not found"})
		case errors.Is(err, errs.ErrDestinationExists):
			c.JSON(http.StatusConflict, gin.H{"error": "destination already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update destination"})
		}
		return
	}
	c.JSON(http.StatusOK, dest)
}

// RemoveDestination godoc
// DELETE /channels/:id/destinations/:destination_id
func (h *DestinationHandler) RemoveDestination(c *gin.Context) {
	err := h.registry.Remove(c.Request.Context(), c.Param("id"), c.Param("destination_id"))
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrChannelNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		case errors.Is(err, errs.ErrDestinationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "destination not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove destination"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}
