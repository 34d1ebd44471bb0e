package repository

import (
	"errors"

	"go2office/internal/logging"
	"go2office/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OfficeSettingsRepository interface {
	Get(userID uint) (*models.OfficeSettings, error)
	Save(settings *models.OfficeSettings) error
}

type GormOfficeSettingsRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormOfficeSettingsRepository(db *gorm.DB) (*GormOfficeSettingsRepository, error) {
	logger := logging.New()

	if err := db.AutoMigrate(&models.OfficeSettings{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate office_settings table")
		return nil, err
	}

	logger.Debug("Office settings repository initialized")

	return &GormOfficeSettingsRepository{
		db:     db,
		logger: logger,
	}, nil
}

// Get returns nil when the user has no settings yet.
func (r *GormOfficeSettingsRepository) Get(userID uint) (*models.OfficeSettings, error) {
	var settings models.OfficeSettings
	result := r.db.Where("user_id = ?", userID).First(&settings)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("user_id", userID).Debug("Office settings not found")
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get office settings")
		return nil, models.NewPersistenceError("get office settings", result.Error)
	}
	return &settings, nil
}

// Save replaces the user's settings.
func (r *GormOfficeSettingsRepository) Save(settings *models.OfficeSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	settings.ID = 0

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"required_days_per_week", "required_hours_per_week", "weekday_preferences", "updated_at"}),
	}).Create(settings)
	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("user_id", settings.UserID).Error("Failed to save office settings")
		return models.NewPersistenceError("save office settings", result.Error)
	}

	r.logger.WithFields(logrus.Fields{
		"user_id":     settings.UserID,
		"days":        settings.RequiredDaysPerWeek,
		"hours":       settings.RequiredHoursPerWeek,
		"preferences": settings.WeekdayPreferences,
	}).Info("Office settings saved")
	return nil
}
