package models

import "time"

// AuditLog records auth events and permission denials. Denials carry the
// failed check in Detail so operators can distinguish non-member from
// wrong-role without that distinction leaking to API callers.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Action    string    `gorm:"size:64;not null;index" json:"action"`
	Detail    string    `gorm:"size:512" json:"detail"`
	IP        string    `gorm:"size:64" json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}
