package handler

import (
	"errors"
	"net/http"

	"tripsync/internal/middleware"
	"tripsync/internal/repository"
	"tripsync/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PresenceHandler struct {
	hub      *ws.PresenceHub
	tripRepo *repository.TripRepository
}

func NewPresenceHandler(hub *ws.PresenceHub, tripRepo *repository.TripRepository) *PresenceHandler {
	return &PresenceHandler{hub: hub, tripRepo: tripRepo}
}

// List returns the trip's currently-active members (stale entries filtered).
// This is the REST read model mirroring the websocket sync payload.
func (h *PresenceHandler) List(c *gin.Context) {
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}
	if _, err := h.tripRepo.GetMember(tripID, middleware.GetUserID(c)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return
	}
	members := h.hub.ActiveEntries(tripID)
	c.JSON(http.StatusOK, gin.H{"members": members, "count": len(members)})
}
