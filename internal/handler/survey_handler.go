package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"tripsync/internal/models"
	"tripsync/internal/repository"
	"tripsync/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SurveyHandler struct {
	surveySvc  *service.SurveyService
	surveyRepo *repository.SurveyRepository
}

func NewSurveyHandler(surveySvc *service.SurveyService, surveyRepo *repository.SurveyRepository) *SurveyHandler {
	return &SurveyHandler{surveySvc: surveySvc, surveyRepo: surveyRepo}
}

// GetForm returns the form definition plus its derived milestone grouping.
// Forms resolve by numeric id or by slug.
func (h *SurveyHandler) GetForm(c *gin.Context) {
	param := c.Param("form_id")
	var form *models.SurveyForm
	var err error
	if id, perr := strconv.ParseUint(param, 10, 32); perr == nil {
		form, err = h.surveyRepo.GetForm(uint(id))
	} else {
		form, err = h.surveyRepo.GetFormBySlug(param)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"form":       form,
		"milestones": service.GroupMilestones(form.Fields),
	})
}

// SubmitResponses persists one milestone's answer batch. Missing required
// answers are reported field-by-field and nothing is written.
func (h *SurveyHandler) SubmitResponses(c *gin.Context) {
	var req struct {
		FormID      uint                   `json:"form_id" binding:"required"`
		SessionID   string                 `json:"session_id" binding:"required,max=64"`
		MilestoneID string                 `json:"milestone_id" binding:"required,max=64"`
		Responses   map[string]interface{} `json:"responses" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.surveySvc.SubmitMilestone(service.SubmitMilestoneInput{
		FormID:      req.FormID,
		SessionID:   req.SessionID,
		MilestoneID: req.MilestoneID,
		Responses:   req.Responses,
	})
	if err != nil {
		var missing *service.MissingFieldsError
		switch {
		case errors.As(err, &missing):
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required answers", "fields": missing.Fields})
		case errors.Is(err, service.ErrUnknownMilestone):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown milestone"})
		case errors.Is(err, service.ErrMilestoneOutOfOrder):
			c.JSON(http.StatusBadRequest, gin.H{"error": "earlier milestones not submitted"})
		case errors.Is(err, service.ErrMilestoneAlreadySubmitted):
			c.JSON(http.StatusConflict, gin.H{"error": "milestone already submitted"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "submission failed"})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// TrackEvent is fire-and-forget telemetry: always 202, store failures are
// logged and never surfaced to the respondent.
func (h *SurveyHandler) TrackEvent(c *gin.Context) {
	var req struct {
		SessionID string                 `json:"session_id" binding:"required,max=64"`
		EventType string                 `json:"event_type" binding:"required,max=64"`
		Details   map[string]interface{} `json:"details"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.surveySvc.TrackEvent(req.SessionID, req.EventType, req.Details); err != nil {
		log.Printf("research: track %s failed: %v", req.EventType, err)
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "ok"})
}
