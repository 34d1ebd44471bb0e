package repository

import (
	"errors"
	"time"

	"go2office/internal/logging"
	"go2office/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OfficeSessionRepository interface {
	Upsert(session *models.OfficeSession) error
	GetByID(id string) (*models.OfficeSession, error)
	GetOpen(userID uint) (*models.OfficeSession, error)
	ListOpen() ([]models.OfficeSession, error)
	ListOverlapping(userID uint, from, to time.Time) ([]models.OfficeSession, error)
	ListByUser(userID uint, limit int) ([]models.OfficeSession, error)
}

type GormOfficeSessionRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormOfficeSessionRepository(db *gorm.DB) (*GormOfficeSessionRepository, error) {
	logger := logging.New()

	if err := db.AutoMigrate(&models.OfficeSession{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate office_sessions table")
		return nil, err
	}

	logger.Debug("Office session repository initialized")

	return &GormOfficeSessionRepository{
		db:     db,
		logger: logger,
	}, nil
}

// Upsert writes a session keyed by its ID; closing an open session updates
// the same row.
func (r *GormOfficeSessionRepository) Upsert(session *models.OfficeSession) error {
	if err := session.Validate(); err != nil {
		r.logger.WithFields(logrus.Fields{
			"session_id": session.ID,
			"user_id":    session.UserID,
		}).WithError(err).Warn("Invalid office session data")
		return err
	}

	session.EntryTime = session.EntryTime.UTC()
	if session.ExitTime != nil {
		exit := session.ExitTime.UTC()
		session.ExitTime = &exit
	}

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"entry_time", "exit_time", "is_anomalous", "anomaly_reason", "updated_at"}),
	}).Create(session)
	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("session_id", session.ID).Error("Failed to upsert office session")
		return models.NewPersistenceError("upsert office session", result.Error)
	}

	r.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"user_id":    session.UserID,
		"open":       session.IsOpen(),
	}).Debug("Office session stored")
	return nil
}

func (r *GormOfficeSessionRepository) GetByID(id string) (*models.OfficeSession, error) {
	var session models.OfficeSession
	result := r.db.Where("id = ?", id).First(&session)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get office session by ID")
		return nil, models.NewPersistenceError("get office session", result.Error)
	}
	return &session, nil
}

func (r *GormOfficeSessionRepository) GetOpen(userID uint) (*models.OfficeSession, error) {
	var session models.OfficeSession
	result := r.db.Where("user_id = ? AND exit_time IS NULL", userID).
		Order("entry_time DESC").
		First(&session)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("user_id", userID).Debug("No open office session found")
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get open office session")
		return nil, models.NewPersistenceError("get open office session", result.Error)
	}
	return &session, nil
}

func (r *GormOfficeSessionRepository) ListOpen() ([]models.OfficeSession, error) {
	var sessions []models.OfficeSession
	if err := r.db.Where("exit_time IS NULL").Order("user_id").Find(&sessions).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list open office sessions")
		return nil, models.NewPersistenceError("list open office sessions", err)
	}
	return sessions, nil
}

// ListOverlapping returns sessions intersecting [from, to), open ones included.
func (r *GormOfficeSessionRepository) ListOverlapping(userID uint, from, to time.Time) ([]models.OfficeSession, error) {
	var sessions []models.OfficeSession

	result := r.db.Where("user_id = ? AND entry_time < ? AND (exit_time IS NULL OR exit_time > ?)",
		userID, to.UTC(), from.UTC()).
		Order("entry_time").
		Find(&sessions)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list overlapping office sessions")
		return nil, models.NewPersistenceError("list office sessions", result.Error)
	}

	r.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"from":    from.Format(time.RFC3339),
		"to":      to.Format(time.RFC3339),
		"count":   len(sessions),
	}).Debug("Retrieved overlapping office sessions")
	return sessions, nil
}

func (r *GormOfficeSessionRepository) ListByUser(userID uint, limit int) ([]models.OfficeSession, error) {
	var sessions []models.OfficeSession

	query := r.db.Where("user_id = ?", userID).Order("entry_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&sessions).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list office sessions by user")
		return nil, models.NewPersistenceError("list office sessions", err)
	}
	return sessions, nil
}
