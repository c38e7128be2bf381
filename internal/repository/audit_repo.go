package repository

import (
	"log"

	"tripsync/internal/models"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Log writes an audit row; failures are logged and swallowed so auditing
// never blocks the action it records.
func (r *AuditLogRepository) Log(userID *uint, action, detail, ip string) {
	entry := &models.AuditLog{UserID: userID, Action: action, Detail: detail, IP: ip}
	if err := r.db.Create(entry).Error; err != nil {
		log.Printf("audit: %s failed: %v", action, err)
	}
}
