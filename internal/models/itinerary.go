package models

import (
	"time"

	"gorm.io/gorm"
)

// ItinerarySection is a focusable unit of the trip plan (e.g. "Day 2" or
// "Lodging"). Path is the client-side route fragment used to deep-link the
// section when a focus session spotlights it.
type ItinerarySection struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	TripID    uint           `gorm:"not null;index" json:"trip_id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Path      string         `gorm:"size:512" json:"path"`
	Position  int            `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Trip  Trip            `gorm:"foreignKey:TripID" json:"-"`
	Items []ItineraryItem `gorm:"foreignKey:SectionID" json:"items,omitempty"`
}

type ItineraryItem struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	SectionID uint           `gorm:"not null;index" json:"section_id"`
	TripID    uint           `gorm:"not null;index" json:"trip_id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Notes     string         `gorm:"type:text" json:"notes"`
	StartsAt  *time.Time     `json:"starts_at"`
	Position  int            `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Section ItinerarySection `gorm:"foreignKey:SectionID" json:"-"`
}
