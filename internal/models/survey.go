package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SurveyForm stores a flat ordered field list; milestone grouping is derived
// at read time, never stored.
type SurveyForm struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Slug      string         `gorm:"uniqueIndex;size:64;not null" json:"slug"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Intro     string         `gorm:"type:text" json:"intro,omitempty"`
	Active    bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Fields []SurveyField `gorm:"foreignKey:FormID" json:"fields,omitempty"`
}

type SurveyField struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	FormID    uint           `gorm:"not null;index" json:"form_id"`
	Key       string         `gorm:"size:64;not null" json:"key"`
	Label     string         `gorm:"size:255;not null" json:"label"`
	Milestone string         `gorm:"size:64;not null" json:"milestone"`
	Type      string         `gorm:"size:20;not null" json:"type"` // text, textarea, select, radio, checkbox, rating
	Required  bool           `gorm:"not null;default:false" json:"required"`
	Options   datatypes.JSON `json:"options,omitempty"`
	Position  int            `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time      `json:"created_at"`

	Form SurveyForm `gorm:"foreignKey:FormID" json:"-"`
}

// SurveyResponse is one milestone's answer batch. Append-only; the composite
// unique index makes a (session, milestone) submission idempotent at the store.
type SurveyResponse struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	FormID      uint           `gorm:"not null;uniqueIndex:idx_response_batch" json:"form_id"`
	SessionID   string         `gorm:"size:64;not null;uniqueIndex:idx_response_batch" json:"session_id"`
	MilestoneID string         `gorm:"size:64;not null;uniqueIndex:idx_response_batch" json:"milestone_id"`
	Responses   datatypes.JSON `gorm:"not null" json:"responses"`
	CreatedAt   time.Time      `json:"created_at"`

	Form SurveyForm `gorm:"foreignKey:FormID" json:"-"`
}

// ResearchEvent is fire-and-forget telemetry; losing one is acceptable.
type ResearchEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	SessionID string         `gorm:"size:64;index" json:"session_id"`
	EventType string         `gorm:"size:64;not null" json:"event_type"`
	Details   datatypes.JSON `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
