package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"tripsync/config"
	"tripsync/internal/domain"
	"tripsync/internal/models"

	"gorm.io/gorm"
)

// fakeFocusStore mimics the transactional repository: deactivate-then-insert
// happens under one lock.
type fakeFocusStore struct {
	mu       sync.Mutex
	nextID   uint
	sessions []*models.FocusSession
}

func (s *fakeFocusStore) StartSession(session *models.FocusSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sessions {
		if existing.TripID == session.TripID {
			existing.Active = false
		}
	}
	s.nextID++
	session.ID = s.nextID
	session.Active = true
	session.CreatedAt = time.Now()
	s.sessions = append(s.sessions, session)
	return nil
}

func (s *fakeFocusStore) EndSession(tripID, sessionID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sessions {
		if existing.ID == sessionID && existing.TripID == tripID && existing.Active {
			existing.Active = false
			return 1, nil
		}
	}
	return 0, nil
}

func (s *fakeFocusStore) GetActive(tripID uint, now time.Time) (*models.FocusSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.FocusSession
	for _, existing := range s.sessions {
		if existing.TripID == tripID && existing.ActiveAt(now) {
			if latest == nil || existing.CreatedAt.After(latest.CreatedAt) {
				latest = existing
			}
		}
	}
	return latest, nil
}

func (s *fakeFocusStore) activeCount(tripID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, existing := range s.sessions {
		if existing.TripID == tripID && existing.Active {
			n++
		}
	}
	return n
}

type fakeMembers struct {
	roles map[uint]string // userID -> role on trip 1
}

func (m *fakeMembers) GetMember(tripID, userID uint) (*models.TripMember, error) {
	role, ok := m.roles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.TripMember{TripID: tripID, UserID: userID, Role: role}, nil
}

type recordingAudit struct {
	mu      sync.Mutex
	details []string
}

func (a *recordingAudit) Log(userID *uint, action, detail, ip string) {
	a.mu.Lock()
	a.details = append(a.details, action+": "+detail)
	a.mu.Unlock()
}

func newTestFocusService(store *fakeFocusStore, members *fakeMembers, audit AuditSink) *FocusService {
	cfg := &config.FocusConfig{SessionDuration: 30 * time.Minute, CacheTTL: time.Second}
	return NewFocusService(cfg, store, members, nil, nil, audit)
}

func TestStartSessionAtMostOneActive(t *testing.T) {
	store := &fakeFocusStore{}
	members := &fakeMembers{roles: map[uint]string{1: domain.RoleAdmin, 2: domain.RoleEditor}}
	svc := newTestFocusService(store, members, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, userID := range []uint{1, 2} {
		wg.Add(1)
		go func(uid uint) {
			defer wg.Done()
			_, err := svc.StartSession(ctx, 1, uid, StartFocusInput{SectionID: 7, SectionName: "Day 2"})
			if err != nil {
				t.Errorf("start by user %d: %v", uid, err)
			}
		}(userID)
	}
	wg.Wait()

	if n := store.activeCount(1); n != 1 {
		t.Fatalf("expected exactly 1 active session after concurrent starts, got %d", n)
	}
}

func TestStartSessionDeactivatesPrevious(t *testing.T) {
	store := &fakeFocusStore{}
	members := &fakeMembers{roles: map[uint]string{1: domain.RoleAdmin}}
	svc := newTestFocusService(store, members, nil)
	ctx := context.Background()

	first, err := svc.StartSession(ctx, 1, 1, StartFocusInput{SectionID: 1, SectionName: "Lodging"})
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	second, err := svc.StartSession(ctx, 1, 1, StartFocusInput{SectionID: 2, SectionName: "Day 1"})
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	active, err := svc.GetActive(ctx, 1)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active == nil || active.ID != second.ID {
		t.Fatalf("expected session %d active, got %+v", second.ID, active)
	}
	if store.activeCount(1) != 1 {
		t.Fatalf("expected first session %d deactivated", first.ID)
	}
}

func TestRoleGateOnStartAndEnd(t *testing.T) {
	store := &fakeFocusStore{}
	members := &fakeMembers{roles: map[uint]string{
		3: domain.RoleViewer,
		4: domain.RoleContributor,
	}}
	audit := &recordingAudit{}
	svc := newTestFocusService(store, members, audit)
	ctx := context.Background()

	for _, uid := range []uint{3, 4, 99} { // viewer, contributor, non-member
		if _, err := svc.StartSession(ctx, 1, uid, StartFocusInput{SectionID: 1, SectionName: "x"}); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("user %d start: expected ErrPermissionDenied, got %v", uid, err)
		}
		if err := svc.EndSession(ctx, 1, uid, 1); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("user %d end: expected ErrPermissionDenied, got %v", uid, err)
		}
	}
	if len(store.sessions) != 0 {
		t.Fatalf("denied calls must not mutate the store, got %d sessions", len(store.sessions))
	}
	// every denial audited, reasons distinguishable
	if len(audit.details) != 6 {
		t.Fatalf("expected 6 audit entries, got %d", len(audit.details))
	}
}

func TestStartAndEndAudited(t *testing.T) {
	store := &fakeFocusStore{}
	members := &fakeMembers{roles: map[uint]string{1: domain.RoleEditor}}
	audit := &recordingAudit{}
	svc := newTestFocusService(store, members, audit)
	ctx := context.Background()

	session, err := svc.StartSession(ctx, 1, 1, StartFocusInput{SectionID: 2, SectionName: "Day 2"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.EndSession(ctx, 1, 1, session.ID); err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(audit.details) != 2 {
		t.Fatalf("expected 2 audit entries, got %d: %v", len(audit.details), audit.details)
	}
	if !strings.HasPrefix(audit.details[0], domain.AuditFocusStart) {
		t.Fatalf("first entry must record the start, got %q", audit.details[0])
	}
	if !strings.HasPrefix(audit.details[1], domain.AuditFocusEnd) {
		t.Fatalf("second entry must record the end, got %q", audit.details[1])
	}
}

func TestGetActiveHonorsExpiryLazily(t *testing.T) {
	store := &fakeFocusStore{}
	members := &fakeMembers{roles: map[uint]string{1: domain.RoleEditor}}
	svc := newTestFocusService(store, members, nil)
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	if _, err := svc.StartSession(ctx, 1, 1, StartFocusInput{SectionID: 1, SectionName: "x", ExpiresAt: &past}); err != nil {
		t.Fatalf("start: %v", err)
	}
	// row is still active=true in the store...
	if store.activeCount(1) != 1 {
		t.Fatal("expected the expired row to keep its active flag")
	}
	// ...but readers must treat it as gone
	active, err := svc.GetActive(ctx, 1)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active != nil {
		t.Fatalf("expected nil for expired session, got %+v", active)
	}
}

func TestEndSessionUnknownID(t *testing.T) {
	store := &fakeFocusStore{}
	members := &fakeMembers{roles: map[uint]string{1: domain.RoleAdmin}}
	svc := newTestFocusService(store, members, nil)

	if err := svc.EndSession(context.Background(), 1, 1, 42); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionActiveAt(t *testing.T) {
	now := time.Now()
	s := &models.FocusSession{Active: true, ExpiresAt: now.Add(time.Minute)}
	if !s.ActiveAt(now) {
		t.Fatal("unexpired active session must read active")
	}
	s.ExpiresAt = now.Add(-time.Minute)
	if s.ActiveAt(now) {
		t.Fatal("expired session must read inactive even with active=true")
	}
	s.ExpiresAt = now.Add(time.Minute)
	s.Active = false
	if s.ActiveAt(now) {
		t.Fatal("ended session must read inactive")
	}
}
