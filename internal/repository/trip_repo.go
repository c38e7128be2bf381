package repository

import (
	"tripsync/internal/domain"
	"tripsync/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) *TripRepository {
	return &TripRepository{db: db}
}

// Create inserts the trip and its admin membership for the owner as one unit.
func (r *TripRepository) Create(t *models.Trip) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		member := &models.TripMember{TripID: t.ID, UserID: t.OwnerID, Role: domain.RoleAdmin}
		return tx.Create(member).Error
	})
}

func (r *TripRepository) GetByID(id uint) (*models.Trip, error) {
	var t models.Trip
	err := r.db.Preload("Members.User").First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TripRepository) ListByUserID(userID uint) ([]models.Trip, error) {
	var trips []models.Trip
	err := r.db.
		Joins("JOIN trip_members ON trip_members.trip_id = trips.id").
		Where("trip_members.user_id = ? AND trip_members.deleted_at IS NULL", userID).
		Order("trips.created_at DESC").
		Find(&trips).Error
	return trips, err
}

func (r *TripRepository) GetMember(tripID, userID uint) (*models.TripMember, error) {
	var m models.TripMember
	err := r.db.Where("trip_id = ? AND user_id = ?", tripID, userID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpsertMember adds the user to the trip or updates their role if already a member.
func (r *TripRepository) UpsertMember(m *models.TripMember) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "trip_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(m).Error
}

func (r *TripRepository) UpdateMemberRole(tripID, userID uint, role string) (int64, error) {
	res := r.db.Model(&models.TripMember{}).
		Where("trip_id = ? AND user_id = ?", tripID, userID).
		Update("role", role)
	return res.RowsAffected, res.Error
}
