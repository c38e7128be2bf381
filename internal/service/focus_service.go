package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"tripsync/config"
	"tripsync/internal/domain"
	"tripsync/internal/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

var (
	// ErrPermissionDenied covers both non-members and members without the
	// focus capability; callers get one error class, the audit log keeps the
	// distinction.
	ErrPermissionDenied = errors.New("permission denied")
	ErrSessionNotFound  = errors.New("focus session not found")
)

// FocusStore is the persistence contract for focus sessions. StartSession
// must be atomic: deactivate the trip's active rows and insert the new one as
// one unit.
type FocusStore interface {
	StartSession(s *models.FocusSession) error
	EndSession(tripID, sessionID uint) (int64, error)
	GetActive(tripID uint, now time.Time) (*models.FocusSession, error)
}

// MembershipStore resolves a user's membership in a trip.
type MembershipStore interface {
	GetMember(tripID, userID uint) (*models.TripMember, error)
}

// Broadcaster fans focus events out to connected trip members.
type Broadcaster interface {
	BroadcastToTrip(tripID uint, payload interface{})
}

// AuditSink records capability denials and session transitions without
// blocking the caller.
type AuditSink interface {
	Log(userID *uint, action, detail, ip string)
}

// FocusService coordinates the single-active-session-per-trip invariant.
// hub, cache and audit are optional; a nil value disables that side effect.
type FocusService struct {
	cfg     *config.FocusConfig
	store   FocusStore
	members MembershipStore
	hub     Broadcaster
	cache   *redis.Client
	audit   AuditSink
}

func NewFocusService(cfg *config.FocusConfig, store FocusStore, members MembershipStore, hub Broadcaster, cache *redis.Client, audit AuditSink) *FocusService {
	return &FocusService{cfg: cfg, store: store, members: members, hub: hub, cache: cache, audit: audit}
}

type StartFocusInput struct {
	SectionID   uint
	SectionPath string
	SectionName string
	Message     string
	ExpiresAt   *time.Time
}

func (s *FocusService) StartSession(ctx context.Context, tripID, userID uint, in StartFocusInput) (*models.FocusSession, error) {
	if err := s.requireCapability(tripID, userID, "start"); err != nil {
		return nil, err
	}
	expires := time.Now().Add(s.cfg.SessionDuration)
	if in.ExpiresAt != nil {
		expires = *in.ExpiresAt
	}
	session := &models.FocusSession{
		TripID:      tripID,
		InitiatedBy: userID,
		SectionID:   in.SectionID,
		SectionPath: in.SectionPath,
		SectionName: in.SectionName,
		Message:     in.Message,
		ExpiresAt:   expires,
	}
	if err := s.store.StartSession(session); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, tripID)
	s.auditAction(userID, domain.AuditFocusStart, fmt.Sprintf("trip %d section %q", tripID, in.SectionName))
	if s.hub != nil {
		s.hub.BroadcastToTrip(tripID, map[string]interface{}{"type": "focus_started", "session": session})
	}
	return session, nil
}

func (s *FocusService) EndSession(ctx context.Context, tripID, userID, sessionID uint) error {
	if err := s.requireCapability(tripID, userID, "end"); err != nil {
		return err
	}
	rows, err := s.store.EndSession(tripID, sessionID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSessionNotFound
	}
	s.invalidateCache(ctx, tripID)
	s.auditAction(userID, domain.AuditFocusEnd, fmt.Sprintf("trip %d session %d", tripID, sessionID))
	if s.hub != nil {
		s.hub.BroadcastToTrip(tripID, map[string]interface{}{"type": "focus_ended", "session_id": sessionID})
	}
	return nil
}

// GetActive returns the trip's active session or nil. Reads go through the
// redis cache when configured; the expiry predicate is re-applied to cached
// values so a session never outlives its ExpiresAt through the cache.
func (s *FocusService) GetActive(ctx context.Context, tripID uint) (*models.FocusSession, error) {
	now := time.Now()
	if cached := s.cacheGet(ctx, tripID); cached != nil {
		if cached.ActiveAt(now) {
			return cached, nil
		}
		s.invalidateCache(ctx, tripID)
	}
	session, err := s.store.GetActive(tripID, now)
	if err != nil {
		return nil, err
	}
	if session != nil {
		s.cacheSet(ctx, tripID, session)
	}
	return session, nil
}

// requireCapability enforces the focus capability. The two failure modes are
// logged distinctly but collapse into ErrPermissionDenied for the caller.
func (s *FocusService) requireCapability(tripID, userID uint, op string) error {
	member, err := s.members.GetMember(tripID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.auditDenied(userID, tripID, op, "not a member")
			return ErrPermissionDenied
		}
		return err
	}
	if !member.CanManageFocus() {
		s.auditDenied(userID, tripID, op, "role "+member.Role)
		return ErrPermissionDenied
	}
	return nil
}

func (s *FocusService) auditDenied(userID, tripID uint, op, reason string) {
	s.auditAction(userID, domain.AuditFocusDenied, fmt.Sprintf("trip %d %s: %s", tripID, op, reason))
}

func (s *FocusService) auditAction(userID uint, action, detail string) {
	if s.audit == nil {
		return
	}
	uid := userID
	s.audit.Log(&uid, action, detail, "")
}

func focusCacheKey(tripID uint) string {
	return fmt.Sprintf("focus:trip:%d", tripID)
}

func (s *FocusService) cacheGet(ctx context.Context, tripID uint) *models.FocusSession {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, focusCacheKey(tripID)).Bytes()
	if err != nil {
		return nil
	}
	var session models.FocusSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil
	}
	return &session
}

func (s *FocusService) cacheSet(ctx context.Context, tripID uint, session *models.FocusSession) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(session)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, focusCacheKey(tripID), data, s.cfg.CacheTTL).Err(); err != nil {
		log.Printf("focus: cache set trip %d: %v", tripID, err)
	}
}

func (s *FocusService) invalidateCache(ctx context.Context, tripID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, focusCacheKey(tripID)).Err(); err != nil {
		log.Printf("focus: cache del trip %d: %v", tripID, err)
	}
}
