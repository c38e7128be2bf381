package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"tripsync/internal/middleware"
	"tripsync/internal/models"
	"tripsync/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ItineraryHandler struct {
	itineraryRepo *repository.ItineraryRepository
	tripRepo      *repository.TripRepository
}

func NewItineraryHandler(itineraryRepo *repository.ItineraryRepository, tripRepo *repository.TripRepository) *ItineraryHandler {
	return &ItineraryHandler{itineraryRepo: itineraryRepo, tripRepo: tripRepo}
}

func (h *ItineraryHandler) member(c *gin.Context, tripID uint) (*models.TripMember, bool) {
	member, err := h.tripRepo.GetMember(tripID, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return nil, false
	}
	return member, true
}

func (h *ItineraryHandler) ListSections(c *gin.Context) {
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}
	if _, ok := h.member(c, tripID); !ok {
		return
	}
	sections, err := h.itineraryRepo.ListSections(tripID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": sections})
}

func (h *ItineraryHandler) CreateSection(c *gin.Context) {
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}
	member, ok := h.member(c, tripID)
	if !ok {
		return
	}
	if !member.CanEdit() {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	var req struct {
		Name     string `json:"name" binding:"required,max=255"`
		Path     string `json:"path" binding:"max=512"`
		Position int    `json:"position"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	section := &models.ItinerarySection{
		TripID:   tripID,
		Name:     req.Name,
		Path:     req.Path,
		Position: req.Position,
	}
	if err := h.itineraryRepo.CreateSection(section); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, section)
}

func (h *ItineraryHandler) CreateItem(c *gin.Context) {
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}
	member, ok := h.member(c, tripID)
	if !ok {
		return
	}
	if !member.CanEdit() {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	sectionID, err := strconv.ParseUint(c.Param("section_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid section id"})
		return
	}
	if _, err := h.itineraryRepo.GetSection(tripID, uint(sectionID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "section not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	var req struct {
		Title    string     `json:"title" binding:"required,max=255"`
		Notes    string     `json:"notes"`
		StartsAt *time.Time `json:"starts_at"`
		Position int        `json:"position"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item := &models.ItineraryItem{
		SectionID: uint(sectionID),
		TripID:    tripID,
		Title:     req.Title,
		Notes:     req.Notes,
		StartsAt:  req.StartsAt,
		Position:  req.Position,
	}
	if err := h.itineraryRepo.CreateItem(item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, item)
}
