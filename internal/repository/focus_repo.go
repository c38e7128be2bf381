package repository

import (
	"errors"
	"time"

	"tripsync/internal/models"

	"gorm.io/gorm"
)

type FocusSessionRepository struct {
	db *gorm.DB
}

func NewFocusSessionRepository(db *gorm.DB) *FocusSessionRepository {
	return &FocusSessionRepository{db: db}
}

// StartSession deactivates every active session for the trip and inserts the
// new one in a single transaction, so two racing starts serialize and at most
// one row ends up active. Deactivation runs first: if the insert fails the
// trip is left with zero active sessions, never a duplicate.
func (r *FocusSessionRepository) StartSession(s *models.FocusSession) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.FocusSession{}).
			Where("trip_id = ? AND active", s.TripID).
			Update("active", false).Error; err != nil {
			return err
		}
		s.Active = true
		return tx.Create(s).Error
	})
}

// EndSession flips the named session only. Returns rows affected so callers
// can distinguish "already inactive / unknown id" from success.
func (r *FocusSessionRepository) EndSession(tripID, sessionID uint) (int64, error) {
	res := r.db.Model(&models.FocusSession{}).
		Where("id = ? AND trip_id = ? AND active", sessionID, tripID).
		Update("active", false)
	return res.RowsAffected, res.Error
}

// GetActive returns the most recent active, unexpired session with its
// initiator, or nil when there is none. Expired rows are filtered here, not
// flipped; no sweeper exists.
func (r *FocusSessionRepository) GetActive(tripID uint, now time.Time) (*models.FocusSession, error) {
	var s models.FocusSession
	err := r.db.Preload("Initiator").
		Where("trip_id = ? AND active AND expires_at > ?", tripID, now).
		Order("created_at DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
