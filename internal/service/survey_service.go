package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tripsync/internal/models"

	"gorm.io/datatypes"
)

var (
	ErrUnknownMilestone          = errors.New("unknown milestone")
	ErrMilestoneOutOfOrder       = errors.New("earlier milestones not submitted")
	ErrMilestoneAlreadySubmitted = errors.New("milestone already submitted")
)

// MissingFieldsError reports which required fields of a milestone were left
// unanswered; the handler surfaces the keys field-by-field.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Milestone is a derived group of form fields sharing a milestone tag.
type Milestone struct {
	ID     string               `json:"id"`
	Fields []models.SurveyField `json:"fields"`
}

// GroupMilestones partitions a flat field list by milestone tag. Milestone
// order is first-seen; field order within a group follows the original list.
// The projection is deterministic and is the only place grouping happens;
// the stored schema stays flat.
func GroupMilestones(fields []models.SurveyField) []Milestone {
	index := make(map[string]int)
	var groups []Milestone
	for _, f := range fields {
		i, ok := index[f.Milestone]
		if !ok {
			i = len(groups)
			index[f.Milestone] = i
			groups = append(groups, Milestone{ID: f.Milestone})
		}
		groups[i].Fields = append(groups[i].Fields, f)
	}
	return groups
}

// SurveyStore is the persistence contract for forms, response batches and
// telemetry events.
type SurveyStore interface {
	GetForm(id uint) (*models.SurveyForm, error)
	ListMilestoneIDs(formID uint, sessionID string) ([]string, error)
	CreateResponse(resp *models.SurveyResponse) error
	CreateEvent(ev *models.ResearchEvent) error
}

type SurveyService struct {
	store SurveyStore
}

func NewSurveyService(store SurveyStore) *SurveyService {
	return &SurveyService{store: store}
}

type SubmitMilestoneInput struct {
	FormID      uint
	SessionID   string
	MilestoneID string
	Responses   map[string]interface{}
}

type SubmitMilestoneResult struct {
	NextMilestone string `json:"next_milestone,omitempty"`
	Completed     bool   `json:"completed"`
}

// SubmitMilestone validates and persists one milestone's answer batch.
// Milestones are forward-only for a session: a batch is accepted only when
// every earlier milestone already has one, and each milestone is submitted
// once. All required fields of the milestone must carry a non-empty answer
// or nothing is written. The result names the next unsubmitted milestone,
// or Completed once every milestone has a batch.
func (s *SurveyService) SubmitMilestone(in SubmitMilestoneInput) (*SubmitMilestoneResult, error) {
	form, err := s.store.GetForm(in.FormID)
	if err != nil {
		return nil, err
	}
	groups := GroupMilestones(form.Fields)
	idx := -1
	for i, g := range groups {
		if g.ID == in.MilestoneID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrUnknownMilestone
	}
	submitted, err := s.store.ListMilestoneIDs(in.FormID, in.SessionID)
	if err != nil {
		return nil, err
	}
	done := make(map[string]struct{}, len(submitted))
	for _, id := range submitted {
		done[id] = struct{}{}
	}
	if _, ok := done[in.MilestoneID]; ok {
		return nil, ErrMilestoneAlreadySubmitted
	}
	for _, g := range groups[:idx] {
		if _, ok := done[g.ID]; !ok {
			return nil, ErrMilestoneOutOfOrder
		}
	}
	var missing []string
	for _, f := range groups[idx].Fields {
		if f.Required && answerEmpty(in.Responses[f.Key]) {
			missing = append(missing, f.Key)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}
	raw, err := json.Marshal(in.Responses)
	if err != nil {
		return nil, err
	}
	resp := &models.SurveyResponse{
		FormID:      in.FormID,
		SessionID:   in.SessionID,
		MilestoneID: in.MilestoneID,
		Responses:   datatypes.JSON(raw),
	}
	if err := s.store.CreateResponse(resp); err != nil {
		return nil, err
	}
	done[in.MilestoneID] = struct{}{}
	for _, g := range groups {
		if _, ok := done[g.ID]; !ok {
			return &SubmitMilestoneResult{NextMilestone: g.ID}, nil
		}
	}
	return &SubmitMilestoneResult{Completed: true}, nil
}

// TrackEvent persists a telemetry event. Callers treat failures as
// non-fatal; this never gates survey progression.
func (s *SurveyService) TrackEvent(sessionID, eventType string, details map[string]interface{}) error {
	ev := &models.ResearchEvent{
		SessionID: sessionID,
		EventType: eventType,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encode details: %w", err)
		}
		ev.Details = datatypes.JSON(raw)
	}
	return s.store.CreateEvent(ev)
}

// answerEmpty decides whether a submitted value counts as an answer: absent,
// nil, blank strings and empty lists do not.
func answerEmpty(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []interface{}:
		return len(val) == 0
	default:
		return false
	}
}
