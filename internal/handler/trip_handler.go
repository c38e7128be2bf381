package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tripsync/internal/domain"
	"tripsync/internal/middleware"
	"tripsync/internal/models"
	"tripsync/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TripHandler struct {
	tripRepo  *repository.TripRepository
	userRepo  *repository.UserRepository
	auditRepo *repository.AuditLogRepository
}

func NewTripHandler(tripRepo *repository.TripRepository, userRepo *repository.UserRepository, auditRepo *repository.AuditLogRepository) *TripHandler {
	return &TripHandler{tripRepo: tripRepo, userRepo: userRepo, auditRepo: auditRepo}
}

func tripIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("trip_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return 0, false
	}
	return uint(id), true
}

// requireMember loads the caller's membership or aborts with 403. Non-member
// and wrong-role both surface as the same forbidden response elsewhere; here
// only membership is checked.
func (h *TripHandler) requireMember(c *gin.Context, tripID uint) (*models.TripMember, bool) {
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

func (h *TripHandler) Create(c *gin.Context) {
	var req struct {
		Name        string     `json:"name" binding:"required,max=255"`
		Destination string     `json:"destination" binding:"max=255"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	trip := &models.Trip{
		Name:        req.Name,
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		OwnerID:     middleware.GetUserID(c),
	}
	if err := h.tripRepo.Create(trip); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, trip)
}

func (h *TripHandler) ListMine(c *gin.Context) {
	trips, err := h.tripRepo.ListByUserID(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

func (h *TripHandler) Get(c *gin.Context) {
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}
	if _, ok := h.requireMember(c, tripID); !ok {
		return
	}
	trip, err := h.tripRepo.GetByID(tripID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, trip)
}

// AddMember adds a user to the trip (or updates their role). Admin only.
func (h *TripHandler) AddMember(c *gin.Context) {
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}
	member, ok := h.requireMember(c, tripID)
	if !ok {
		return
	}
	if !domain.CanManageMembers(member.Role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Role  string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !domain.ValidMemberRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}
	user, err := h.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	m := &models.TripMember{TripID: tripID, UserID: user.ID, Role: req.Role}
	if err := h.tripRepo.UpsertMember(m); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "add member failed"})
		return
	}
	actor := middleware.GetUserID(c)
	h.auditRepo.Log(&actor, domain.AuditMemberChange, fmt.Sprintf("trip %d: %s -> %s", tripID, req.Email, req.Role), c.ClientIP())
	c.JSON(http.StatusOK, m)
}

// UpdateMemberRole changes an existing member's role. Admin only.
func (h *TripHandler) UpdateMemberRole(c *gin.Context) {
	tripID, ok := tripIDParam(c)
	if !ok {
		return
	}
	member, ok := h.requireMember(c, tripID)
	if !ok {
		return
	}
	if !domain.CanManageMembers(member.Role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !domain.ValidMemberRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}
	rows, err := h.tripRepo.UpdateMemberRole(tripID, uint(targetID), req.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	actor := middleware.GetUserID(c)
	h.auditRepo.Log(&actor, domain.AuditMemberChange, fmt.Sprintf("trip %d: user %d -> %s", tripID, targetID, req.Role), c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}
