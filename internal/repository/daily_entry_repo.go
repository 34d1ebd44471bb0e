package repository

import (
	"errors"
	"time"

	"go2office/internal/logging"
	"go2office/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DailyEntryRepository interface {
	Upsert(entry *models.DailyEntry) error
	Get(userID uint, date time.Time) (*models.DailyEntry, error)
	ListRange(userID uint, from, to time.Time) ([]models.DailyEntry, error)
}

type GormDailyEntryRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormDailyEntryRepository(db *gorm.DB) (*GormDailyEntryRepository, error) {
	logger := logging.New()

	if err := db.AutoMigrate(&models.DailyEntry{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate daily_entries table")
		return nil, err
	}

	logger.Debug("Daily entry repository initialized")

	return &GormDailyEntryRepository{
		db:     db,
		logger: logger,
	}, nil
}

func dateValue(t time.Time) datatypes.Date {
	return datatypes.Date(models.Date(t.Year(), t.Month(), t.Day()))
}

// Upsert keeps one row per (user, date).
func (r *GormDailyEntryRepository) Upsert(entry *models.DailyEntry) error {
	if !entry.IsValid() {
		r.logger.WithFields(logrus.Fields{
			"user_id": entry.UserID,
			"hours":   entry.HoursWorked,
		}).Warn("Invalid daily entry data")
		return &models.ValidationError{Field: "hours_worked", Reason: "must be between 0 and 24"}
	}

	entry.Date = dateValue(time.Time(entry.Date))
	// the row is matched by (user_id, date), never by primary key
	entry.ID = 0

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"was_in_office", "hours_worked", "note", "is_manual", "updated_at"}),
	}).Create(entry)
	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("user_id", entry.UserID).Error("Failed to upsert daily entry")
		return models.NewPersistenceError("upsert daily entry", result.Error)
	}

	r.logger.WithFields(logrus.Fields{
		"user_id":   entry.UserID,
		"date":      entry.Day().Format(models.DateLayout),
		"hours":     entry.HoursWorked,
		"in_office": entry.WasInOffice,
		"manual":    entry.IsManual,
	}).Debug("Daily entry stored")
	return nil
}

func (r *GormDailyEntryRepository) Get(userID uint, date time.Time) (*models.DailyEntry, error) {
	var entry models.DailyEntry
	result := r.db.Where("user_id = ? AND date = ?", userID, dateValue(date)).First(&entry)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get daily entry")
		return nil, models.NewPersistenceError("get daily entry", result.Error)
	}
	return &entry, nil
}

// ListRange returns entries with from <= date <= to, ordered by date.
func (r *GormDailyEntryRepository) ListRange(userID uint, from, to time.Time) ([]models.DailyEntry, error) {
	var entries []models.DailyEntry

	result := r.db.Where("user_id = ? AND date >= ? AND date <= ?", userID, dateValue(from), dateValue(to)).
		Order("date").
		Find(&entries)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list daily entries")
		return nil, models.NewPersistenceError("list daily entries", result.Error)
	}

	r.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"from":    from.Format(models.DateLayout),
		"to":      to.Format(models.DateLayout),
		"count":   len(entries),
	}).Debug("Retrieved daily entries")
	return entries, nil
}
