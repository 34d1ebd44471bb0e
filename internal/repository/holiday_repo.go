package repository

import (
	"time"

	"go2office/internal/logging"
	"go2office/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HolidayRepository interface {
	Upsert(holiday *models.Holiday) error
	BulkUpsert(holidays []models.Holiday) error
	ListRange(userID uint, from, to time.Time) ([]models.Holiday, error)
	Delete(userID uint, date time.Time) error
}

type GormHolidayRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormHolidayRepository(db *gorm.DB) (*GormHolidayRepository, error) {
	logger := logging.New()

	if err := db.AutoMigrate(&models.Holiday{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate holidays table")
		return nil, err
	}

	logger.Debug("Holiday repository initialized")

	return &GormHolidayRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormHolidayRepository) upsertClause() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "type", "updated_at"}),
	}
}

func (r *GormHolidayRepository) Upsert(holiday *models.Holiday) error {
	if !models.IsValidHolidayType(holiday.Type) {
		return &models.ValidationError{Field: "type", Reason: "unknown holiday type"}
	}
	holiday.Date = dateValue(time.Time(holiday.Date))
	holiday.ID = 0

	if err := r.db.Clauses(r.upsertClause()).Create(holiday).Error; err != nil {
		r.logger.WithError(err).WithField("user_id", holiday.UserID).Error("Failed to upsert holiday")
		return models.NewPersistenceError("upsert holiday", err)
	}

	r.logger.WithFields(logrus.Fields{
		"user_id": holiday.UserID,
		"date":    holiday.Day().Format(models.DateLayout),
		"type":    holiday.Type,
	}).Debug("Holiday stored")
	return nil
}

// BulkUpsert stores all holidays in one transaction.
func (r *GormHolidayRepository) BulkUpsert(holidays []models.Holiday) error {
	if len(holidays) == 0 {
		return nil
	}
	for i := range holidays {
		if !models.IsValidHolidayType(holidays[i].Type) {
			return &models.ValidationError{Field: "type", Reason: "unknown holiday type"}
		}
		holidays[i].Date = dateValue(time.Time(holidays[i].Date))
		holidays[i].ID = 0
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(r.upsertClause()).CreateInBatches(holidays, 100).Error
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to bulk upsert holidays")
		return models.NewPersistenceError("bulk upsert holidays", err)
	}

	r.logger.WithField("count", len(holidays)).Info("Holidays stored")
	return nil
}

// ListRange returns the public calendar and the user's own vacation days
// with from <= date <= to.
func (r *GormHolidayRepository) ListRange(userID uint, from, to time.Time) ([]models.Holiday, error) {
	var holidays []models.Holiday

	result := r.db.Where("user_id IN ? AND date >= ? AND date <= ?",
		[]uint{models.PublicCalendarUserID, userID}, dateValue(from), dateValue(to)).
		Order("date").
		Find(&holidays)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list holidays")
		return nil, models.NewPersistenceError("list holidays", result.Error)
	}
	return holidays, nil
}

func (r *GormHolidayRepository) Delete(userID uint, date time.Time) error {
	result := r.db.Where("user_id = ? AND date = ?", userID, dateValue(date)).Delete(&models.Holiday{})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete holiday")
		return models.NewPersistenceError("delete holiday", result.Error)
	}

	r.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"date":    date.Format(models.DateLayout),
		"deleted": result.RowsAffected,
	}).Debug("Holiday deleted")
	return nil
}
