package repository

import (
	"errors"

	"go2office/internal/logging"
	"go2office/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MonthlyStatRepository interface {
	Upsert(stat *models.MonthlyStat) error
	Get(userID uint, ym models.YearMonth) (*models.MonthlyStat, error)
	ListByUser(userID uint, limit int) ([]models.MonthlyStat, error)
}

type GormMonthlyStatRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormMonthlyStatRepository(db *gorm.DB) (*GormMonthlyStatRepository, error) {
	logger := logging.New()

	if err := db.AutoMigrate(&models.MonthlyStat{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate monthly_stats table")
		return nil, err
	}

	logger.Debug("Monthly stat repository initialized")

	return &GormMonthlyStatRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormMonthlyStatRepository) Upsert(stat *models.MonthlyStat) error {
	if !stat.IsValid() {
		r.logger.WithFields(logrus.Fields{
			"user_id": stat.UserID,
			"year":    stat.Year,
			"month":   stat.Month,
		}).Warn("Invalid monthly stat data")
		return &models.ValidationError{Field: "monthly_stat", Reason: "values out of range"}
	}

	stat.ID = 0

	result := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "year"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"required_days", "required_hours", "completed_days", "completed_hours", "is_complete", "updated_at",
		}),
	}).Create(stat)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to upsert monthly stat")
		return models.NewPersistenceError("upsert monthly stat", result.Error)
	}

	r.logger.WithFields(logrus.Fields{
		"user_id":         stat.UserID,
		"year":            stat.Year,
		"month":           stat.Month,
		"completed_days":  stat.CompletedDays,
		"completed_hours": stat.CompletedHours,
	}).Debug("Monthly stat stored")
	return nil
}

func (r *GormMonthlyStatRepository) Get(userID uint, ym models.YearMonth) (*models.MonthlyStat, error) {
	var stat models.MonthlyStat
	result := r.db.Where("user_id = ? AND year = ? AND month = ?", userID, ym.Year, int(ym.Month)).First(&stat)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get monthly stat")
		return nil, models.NewPersistenceError("get monthly stat", result.Error)
	}
	return &stat, nil
}

// ListByUser returns the newest months first.
func (r *GormMonthlyStatRepository) ListByUser(userID uint, limit int) ([]models.MonthlyStat, error) {
	var stats []models.MonthlyStat

	query := r.db.Where("user_id = ?", userID).Order("year DESC, month DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&stats).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list monthly stats")
		return nil, models.NewPersistenceError("list monthly stats", err)
	}
	return stats, nil
}
