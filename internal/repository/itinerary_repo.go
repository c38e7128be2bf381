package repository

import (
	"tripsync/internal/models"

	"gorm.io/gorm"
)

type ItineraryRepository struct {
	db *gorm.DB
}

func NewItineraryRepository(db *gorm.DB) *ItineraryRepository {
	return &ItineraryRepository{db: db}
}

func (r *ItineraryRepository) CreateSection(s *models.ItinerarySection) error {
	return r.db.Create(s).Error
}

func (r *ItineraryRepository) GetSection(tripID, sectionID uint) (*models.ItinerarySection, error) {
	var s models.ItinerarySection
	err := r.db.Where("id = ? AND trip_id = ?", sectionID, tripID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ItineraryRepository) ListSections(tripID uint) ([]models.ItinerarySection, error) {
	var sections []models.ItinerarySection
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("trip_id = ?", tripID).Order("position ASC").Find(&sections).Error
	return sections, err
}

func (r *ItineraryRepository) CreateItem(item *models.ItineraryItem) error {
	return r.db.Create(item).Error
}
