package database

import (
	"errors"
	"log"

	"tripsync/config"
	"tripsync/internal/domain"
	"tripsync/internal/models"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Trip{},
		&models.TripMember{},
		&models.ItinerarySection{},
		&models.ItineraryItem{},
		&models.FocusSession{},
		&models.SurveyForm{},
		&models.SurveyField{},
		&models.SurveyResponse{},
		&models.ResearchEvent{},
		&models.AuditLog{},
	)
}

// SeedSurveyForms creates the default onboarding feedback form on first boot.
func SeedSurveyForms(db *gorm.DB) {
	var existing models.SurveyForm
	err := db.Where("slug = ?", "trip-feedback").First(&existing).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("seed: survey form lookup failed: %v", err)
		return
	}
	form := &models.SurveyForm{
		Slug:   "trip-feedback",
		Title:  "Trip planning feedback",
		Intro:  "A few quick questions about how planning this trip went.",
		Active: true,
		Fields: []models.SurveyField{
			{Key: "role", Label: "How did you use TripSync on this trip?", Milestone: "about-you", Type: domain.FieldRadio, Required: true, Position: 0,
				Options: datatypes.JSON([]byte(`["Organizer","Collaborator","Mostly viewing"]`))},
			{Key: "group_size", Label: "How many people were on the trip?", Milestone: "about-you", Type: domain.FieldSelect, Required: true, Position: 1,
				Options: datatypes.JSON([]byte(`["Just me","2-4","5-8","9+"]`))},
			{Key: "planning_rating", Label: "How easy was it to plan together?", Milestone: "experience", Type: domain.FieldRating, Required: true, Position: 2},
			{Key: "favorite_part", Label: "What worked best for your group?", Milestone: "experience", Type: domain.FieldTextarea, Required: false, Position: 3},
			{Key: "improvements", Label: "What should we improve?", Milestone: "wrap-up", Type: domain.FieldTextarea, Required: false, Position: 4},
		},
	}
	if err := db.Create(form).Error; err != nil {
		log.Printf("seed: create survey form failed: %v", err)
	}
}
