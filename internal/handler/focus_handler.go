package handler

import (
	"errors"
	"net/http"
	"time"

	"tripsync/internal/middleware"
	"tripsync/internal/service"

	"github.com/gin-gonic/gin"
)

type FocusHandler struct {
	focusSvc *service.FocusService
}

func NewFocusHandler(focusSvc *service.FocusService) *FocusHandler {
	return &FocusHandler{focusSvc: focusSvc}
}

// GetActive returns the trip's active focus session or null. Expired sessions
// read as inactive; the membership gate applies to writes only.
func (h *FocusHandler) GetActive(c *gin.Context) {
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}
	session, err := h.focusSvc.GetActive(c.Request.Context(), tripID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// Start begins a focus session, deactivating any other active session for the
// trip first. Admin/editor members only.
func (h *FocusHandler) Start(c *gin.Context) {
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}
	var req struct {
		SectionID   uint       `json:"section_id" binding:"required"`
		SectionPath string     `json:"section_path" binding:"max=512"`
		SectionName string     `json:"section_name" binding:"required,max=255"`
		Message     string     `json:"message" binding:"max=512"`
		ExpiresAt   *time.Time `json:"expires_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "section_id and section_name are required"})
		return
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expires_at must be in the future"})
		return
	}
	session, err := h.focusSvc.StartSession(c.Request.Context(), tripID, middleware.GetUserID(c), service.StartFocusInput{
		SectionID:   req.SectionID,
		SectionPath: req.SectionPath,
		SectionName: req.SectionName,
		Message:     req.Message,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start focus session"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// End deactivates the named session. Admin/editor members only.
func (h *FocusHandler) End(c *gin.Context) {
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}
	var req struct {
		SessionID uint `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	err := h.focusSvc.EndSession(c.Request.Context(), tripID, middleware.GetUserID(c), req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPermissionDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		case errors.Is(err, service.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no such active session"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not end focus session"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}
