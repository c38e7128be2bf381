package service

import (
	"errors"
	"testing"

	"tripsync/internal/domain"
	"tripsync/internal/models"

	"gorm.io/gorm"
)

func field(key, milestone string, required bool) models.SurveyField {
	return models.SurveyField{Key: key, Label: key, Milestone: milestone, Type: domain.FieldText, Required: required}
}

func TestGroupMilestonesFirstSeenOrder(t *testing.T) {
	fields := []models.SurveyField{
		field("f0", "A", false),
		field("f1", "A", false),
		field("f2", "B", false),
		field("f3", "A", false),
		field("f4", "C", false),
	}
	groups := GroupMilestones(fields)
	if len(groups) != 3 {
		t.Fatalf("expected 3 milestones, got %d", len(groups))
	}
	wantOrder := []string{"A", "B", "C"}
	for i, w := range wantOrder {
		if groups[i].ID != w {
			t.Fatalf("milestone %d: expected %s, got %s", i, w, groups[i].ID)
		}
	}
	wantA := []string{"f0", "f1", "f3"}
	if len(groups[0].Fields) != len(wantA) {
		t.Fatalf("group A: expected %d fields, got %d", len(wantA), len(groups[0].Fields))
	}
	for i, w := range wantA {
		if groups[0].Fields[i].Key != w {
			t.Fatalf("group A field %d: expected %s, got %s", i, w, groups[0].Fields[i].Key)
		}
	}
}

func TestGroupMilestonesEmpty(t *testing.T) {
	if groups := GroupMilestones(nil); len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}

type fakeSurveyStore struct {
	form      *models.SurveyForm
	responses []*models.SurveyResponse
	events    []*models.ResearchEvent
	eventErr  error
}

func (s *fakeSurveyStore) GetForm(id uint) (*models.SurveyForm, error) {
	if s.form == nil || s.form.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.form, nil
}

func (s *fakeSurveyStore) ListMilestoneIDs(formID uint, sessionID string) ([]string, error) {
	var ids []string
	for _, r := range s.responses {
		if r.FormID == formID && r.SessionID == sessionID {
			ids = append(ids, r.MilestoneID)
		}
	}
	return ids, nil
}

func (s *fakeSurveyStore) CreateResponse(resp *models.SurveyResponse) error {
	s.responses = append(s.responses, resp)
	return nil
}

func (s *fakeSurveyStore) CreateEvent(ev *models.ResearchEvent) error {
	if s.eventErr != nil {
		return s.eventErr
	}
	s.events = append(s.events, ev)
	return nil
}

func testForm() *models.SurveyForm {
	return &models.SurveyForm{
		ID:   1,
		Slug: "t",
		Fields: []models.SurveyField{
			field("name", "intro", true),
			field("mood", "intro", false),
			field("rating", "feedback", true),
		},
	}
}

func TestSubmitMilestoneRequiredGate(t *testing.T) {
	store := &fakeSurveyStore{form: testForm()}
	svc := NewSurveyService(store)

	_, err := svc.SubmitMilestone(SubmitMilestoneInput{
		FormID:      1,
		SessionID:   "s1",
		MilestoneID: "intro",
		Responses:   map[string]interface{}{"name": "  ", "mood": "fine"},
	})
	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldsError, got %v", err)
	}
	if len(missing.Fields) != 1 || missing.Fields[0] != "name" {
		t.Fatalf("expected missing [name], got %v", missing.Fields)
	}
	if len(store.responses) != 0 {
		t.Fatalf("rejected submission must not persist, got %d rows", len(store.responses))
	}
}

func TestSubmitMilestoneAdvancesWithOptionalEmpty(t *testing.T) {
	store := &fakeSurveyStore{form: testForm()}
	svc := NewSurveyService(store)

	result, err := svc.SubmitMilestone(SubmitMilestoneInput{
		FormID:      1,
		SessionID:   "s1",
		MilestoneID: "intro",
		Responses:   map[string]interface{}{"name": "Ada"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Completed {
		t.Fatal("first milestone must not complete the flow")
	}
	if result.NextMilestone != "feedback" {
		t.Fatalf("expected next milestone feedback, got %q", result.NextMilestone)
	}
	if len(store.responses) != 1 {
		t.Fatalf("expected 1 persisted batch, got %d", len(store.responses))
	}
}

func TestSubmitLastMilestoneCompletes(t *testing.T) {
	store := &fakeSurveyStore{form: testForm()}
	svc := NewSurveyService(store)

	if _, err := svc.SubmitMilestone(SubmitMilestoneInput{
		FormID:      1,
		SessionID:   "s1",
		MilestoneID: "intro",
		Responses:   map[string]interface{}{"name": "Ada"},
	}); err != nil {
		t.Fatalf("submit intro: %v", err)
	}
	result, err := svc.SubmitMilestone(SubmitMilestoneInput{
		FormID:      1,
		SessionID:   "s1",
		MilestoneID: "feedback",
		Responses:   map[string]interface{}{"rating": float64(4)},
	})
	if err != nil {
		t.Fatalf("submit feedback: %v", err)
	}
	if !result.Completed {
		t.Fatal("last milestone must complete the flow")
	}
	if result.NextMilestone != "" {
		t.Fatalf("completed flow must not name a next milestone, got %q", result.NextMilestone)
	}
}

func TestSubmitMilestoneSkipAheadRejected(t *testing.T) {
	store := &fakeSurveyStore{form: testForm()}
	svc := NewSurveyService(store)

	// a fresh session jumping straight to the last milestone is rejected,
	// not marked complete
	result, err := svc.SubmitMilestone(SubmitMilestoneInput{
		FormID:      1,
		SessionID:   "s1",
		MilestoneID: "feedback",
		Responses:   map[string]interface{}{"rating": float64(4)},
	})
	if !errors.Is(err, ErrMilestoneOutOfOrder) {
		t.Fatalf("expected ErrMilestoneOutOfOrder, got %v (result %+v)", err, result)
	}
	if len(store.responses) != 0 {
		t.Fatalf("rejected submission must not persist, got %d rows", len(store.responses))
	}

	// another session's earlier batch must not unlock this one
	if _, err := svc.SubmitMilestone(SubmitMilestoneInput{
		FormID:      1,
		SessionID:   "s2",
		MilestoneID: "intro",
		Responses:   map[string]interface{}{"name": "Ada"},
	}); err != nil {
		t.Fatalf("submit intro for s2: %v", err)
	}
	_, err = svc.SubmitMilestone(SubmitMilestoneInput{
		FormID:      1,
		SessionID:   "s1",
		MilestoneID: "feedback",
		Responses:   map[string]interface{}{"rating": float64(4)},
	})
	if !errors.Is(err, ErrMilestoneOutOfOrder) {
		t.Fatalf("expected ErrMilestoneOutOfOrder across sessions, got %v", err)
	}
}

func TestSubmitMilestoneTwiceRejected(t *testing.T) {
	store := &fakeSurveyStore{form: testForm()}
	svc := NewSurveyService(store)

	if _, err := svc.SubmitMilestone(SubmitMilestoneInput{
		FormID:      1,
		SessionID:   "s1",
		MilestoneID: "intro",
		Responses:   map[string]interface{}{"name": "Ada"},
	}); err != nil {
		t.Fatalf("submit intro: %v", err)
	}
	_, err := svc.SubmitMilestone(SubmitMilestoneInput{
		FormID:      1,
		SessionID:   "s1",
		MilestoneID: "intro",
		Responses:   map[string]interface{}{"name": "Ada again"},
	})
	if !errors.Is(err, ErrMilestoneAlreadySubmitted) {
		t.Fatalf("expected ErrMilestoneAlreadySubmitted, got %v", err)
	}
	if len(store.responses) != 1 {
		t.Fatalf("duplicate submission must not persist, got %d rows", len(store.responses))
	}
}

func TestSubmitUnknownMilestone(t *testing.T) {
	store := &fakeSurveyStore{form: testForm()}
	svc := NewSurveyService(store)

	_, err := svc.SubmitMilestone(SubmitMilestoneInput{
		FormID:      1,
		SessionID:   "s1",
		MilestoneID: "nope",
		Responses:   map[string]interface{}{},
	})
	if !errors.Is(err, ErrUnknownMilestone) {
		t.Fatalf("expected ErrUnknownMilestone, got %v", err)
	}
}

func TestAnswerEmpty(t *testing.T) {
	cases := []struct {
		val   interface{}
		empty bool
	}{
		{nil, true},
		{"", true},
		{"   ", true},
		{"x", false},
		{[]interface{}{}, true},
		{[]interface{}{"a"}, false},
		{float64(0), false}, // a zero rating is still an answer
		{false, false},
	}
	for _, tc := range cases {
		if got := answerEmpty(tc.val); got != tc.empty {
			t.Fatalf("answerEmpty(%v) = %v, want %v", tc.val, got, tc.empty)
		}
	}
}

func TestTrackEvent(t *testing.T) {
	store := &fakeSurveyStore{form: testForm()}
	svc := NewSurveyService(store)
	if err := svc.TrackEvent("s1", "milestone_viewed", map[string]interface{}{"milestone": "intro"}); err != nil {
		t.Fatalf("track: %v", err)
	}
	if len(store.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(store.events))
	}
	if store.events[0].EventType != "milestone_viewed" {
		t.Fatalf("unexpected event type %q", store.events[0].EventType)
	}
}
