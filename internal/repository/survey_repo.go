package repository

import (
	"tripsync/internal/models"

	"gorm.io/gorm"
)

type SurveyRepository struct {
	db *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

func (r *SurveyRepository) GetForm(id uint) (*models.SurveyForm, error) {
	var form models.SurveyForm
	err := r.db.Preload("Fields", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&form, id).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *SurveyRepository) GetFormBySlug(slug string) (*models.SurveyForm, error) {
	var form models.SurveyForm
	err := r.db.Preload("Fields", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("slug = ?", slug).First(&form).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// ListMilestoneIDs returns the milestones a session has already submitted
// batches for, in submission order.
func (r *SurveyRepository) ListMilestoneIDs(formID uint, sessionID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.SurveyResponse{}).
		Where("form_id = ? AND session_id = ?", formID, sessionID).
		Order("created_at ASC").
		Pluck("milestone_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SurveyRepository) CreateResponse(resp *models.SurveyResponse) error {
	return r.db.Create(resp).Error
}

func (r *SurveyRepository) CreateEvent(ev *models.ResearchEvent) error {
	return r.db.Create(ev).Error
}
