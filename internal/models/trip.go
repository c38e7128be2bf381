package models

import (
	"time"

	"tripsync/internal/domain"

	"gorm.io/gorm"
)

type Trip struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Destination string         `gorm:"size:255" json:"destination"`
	StartDate   *time.Time     `json:"start_date"`
	EndDate     *time.Time     `json:"end_date"`
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Owner   User         `gorm:"foreignKey:OwnerID" json:"-"`
	Members []TripMember `gorm:"foreignKey:TripID" json:"members,omitempty"`
}

type TripMember struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	TripID    uint           `gorm:"not null;uniqueIndex:idx_trip_user" json:"trip_id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_trip_user;index" json:"user_id"`
	Role      string         `gorm:"size:20;not null;index" json:"role"` // ADMIN, EDITOR, CONTRIBUTOR, VIEWER
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Trip Trip `gorm:"foreignKey:TripID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (m *TripMember) CanManageFocus() bool { return domain.CanManageFocusSessions(m.Role) }
func (m *TripMember) CanEdit() bool        { return domain.CanEditItinerary(m.Role) }
