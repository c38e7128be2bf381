package models

import (
	"time"
)

// FocusSession spotlights one itinerary section to every member of a trip.
// The coordinator keeps at most one row active per trip; expired rows stay
// active=true in the store and are filtered lazily by readers.
type FocusSession struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TripID      uint      `gorm:"not null;index:idx_focus_trip_active" json:"trip_id"`
	InitiatedBy uint      `gorm:"not null;index" json:"initiated_by"`
	SectionID   uint      `gorm:"not null" json:"section_id"`
	SectionPath string    `gorm:"size:512" json:"section_path"`
	SectionName string    `gorm:"size:255;not null" json:"section_name"`
	Message     string    `gorm:"size:512" json:"message,omitempty"`
	Active      bool      `gorm:"not null;default:false;index:idx_focus_trip_active" json:"active"`
	ExpiresAt   time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Initiator User `gorm:"foreignKey:InitiatedBy" json:"initiator,omitempty"`
}

// ActiveAt is the one predicate every reader must use: a session past its
// expiry counts as inactive even when the flag was never flipped.
func (s *FocusSession) ActiveAt(t time.Time) bool {
	return s.Active && s.ExpiresAt.After(t)
}
