package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go2office/internal/attendance"
	"go2office/internal/logging"
	"go2office/internal/models"
	"go2office/internal/presence"
	"go2office/internal/repository"

	"github.com/sirupsen/logrus"
)

// AnomalyNotifier is told about tracker anomalies, e.g. to message the user.
type AnomalyNotifier func(ctx context.Context, userID uint, anomaly presence.Anomaly)

// AttendanceService persists sessions coming out of the presence pipelines and
// keeps daily entries in sync with them.
type AttendanceService struct {
	sessionRepo repository.OfficeSessionRepository
	entryRepo   repository.DailyEntryRepository
	userRepo    repository.UserRepository
	location    *time.Location
	notify      AnomalyNotifier
	logger      *logrus.Logger

	// closed sessions whose write failed, by id; the open marker is still stored for them
	mu      sync.Mutex
	unsaved map[string]models.OfficeSession
}

func NewAttendanceService(
	sessionRepo repository.OfficeSessionRepository,
	entryRepo repository.DailyEntryRepository,
	userRepo repository.UserRepository,
	location *time.Location,
) *AttendanceService {
	if location == nil {
		location = time.UTC
	}
	return &AttendanceService{
		sessionRepo: sessionRepo,
		entryRepo:   entryRepo,
		userRepo:    userRepo,
		location:    location,
		logger:      logging.New(),
		unsaved:     make(map[string]models.OfficeSession),
	}
}

// SetAnomalyNotifier must be called before the first pipeline starts.
func (s *AttendanceService) SetAnomalyNotifier(notify AnomalyNotifier) {
	s.notify = notify
}

func (s *AttendanceService) Location() *time.Location {
	return s.location
}

// SessionOpened stores the open session so a restart can resume it.
func (s *AttendanceService) SessionOpened(ctx context.Context, session models.OfficeSession) error {
	_, _ = s.FlushUnsaved(ctx)

	if err := s.sessionRepo.Upsert(&session); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    session.UserID,
		"session_id": session.ID,
		"entry_time": session.EntryTime.In(s.location).Format("15:04"),
	}).Info("Office session opened")
	return nil
}

// SessionClosed stores the closed session and recomputes every date it touches.
// A session that cannot be stored is kept and written again by FlushUnsaved.
func (s *AttendanceService) SessionClosed(ctx context.Context, session models.OfficeSession) error {
	_, _ = s.FlushUnsaved(ctx)

	if err := s.sessionRepo.Upsert(&session); err != nil {
		s.mu.Lock()
		s.unsaved[session.ID] = session
		s.mu.Unlock()
		return err
	}
	return s.sessionStored(ctx, session)
}

// FlushUnsaved writes closed sessions whose earlier write failed and returns
// how many were stored. Sessions that fail again stay queued.
func (s *AttendanceService) FlushUnsaved(ctx context.Context) (int, error) {
	s.mu.Lock()
	pending := make([]models.OfficeSession, 0, len(s.unsaved))
	for _, session := range s.unsaved {
		pending = append(pending, session)
	}
	s.mu.Unlock()

	stored := 0
	var errs []error
	for _, session := range pending {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		if err := s.sessionRepo.Upsert(&session); err != nil {
			errs = append(errs, err)
			continue
		}
		s.mu.Lock()
		delete(s.unsaved, session.ID)
		s.mu.Unlock()
		stored++

		if err := s.sessionStored(ctx, session); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		s.logger.WithError(errors.Join(errs...)).WithField("pending", len(pending)-stored).
			Warn("Failed to store closed sessions")
	}
	return stored, errors.Join(errs...)
}

func (s *AttendanceService) sessionStored(ctx context.Context, session models.OfficeSession) error {
	s.logger.WithFields(logrus.Fields{
		"user_id":    session.UserID,
		"session_id": session.ID,
		"duration":   session.Duration().Round(time.Minute).String(),
		"anomalous":  session.IsAnomalous,
	}).Info("Office session closed")

	var errs []error
	for _, date := range attendance.AffectedDates(session, s.location) {
		if _, err := s.RecomputeDay(ctx, session.UserID, date, false); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *AttendanceService) AnomalyDetected(ctx context.Context, userID uint, anomaly presence.Anomaly) {
	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"kind":    anomaly.Kind,
		"time":    anomaly.Time.Format(time.RFC3339),
		"detail":  anomaly.Detail,
	}).Warn("Presence anomaly detected")

	if s.notify != nil {
		s.notify(ctx, userID, anomaly)
	}
}

// RecomputeDay rebuilds the entry for date from stored sessions. A manual
// entry is only replaced when force is set.
func (s *AttendanceService) RecomputeDay(ctx context.Context, userID uint, date time.Time, force bool) (*models.DailyEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	day := models.Date(date.Year(), date.Month(), date.Day())
	from, to := models.DayWindow(day, s.location)

	sessions, err := s.sessionRepo.ListOverlapping(userID, from, to)
	if err != nil {
		return nil, err
	}
	computed := attendance.AggregateDay(userID, day, sessions, s.location)

	existing, err := s.entryRepo.Get(userID, day)
	if err != nil {
		return nil, err
	}
	if existing == nil && !computed.WasInOffice {
		return &computed, nil
	}

	entry, changed := attendance.Reconcile(existing, computed, force)
	if !changed {
		return &entry, nil
	}
	if err := s.entryRepo.Upsert(&entry); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"date":    day.Format(models.DateLayout),
		"hours":   entry.HoursWorked,
		"forced":  force,
	}).Info("Daily entry recomputed")
	return &entry, nil
}

// SetManualDay records a user override for date.
func (s *AttendanceService) SetManualDay(ctx context.Context, userID uint, date time.Time, hours float64, note string) (*models.DailyEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, err := attendance.ManualEntry(userID, date, hours, note)
	if err != nil {
		return nil, err
	}
	if err := s.entryRepo.Upsert(&entry); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"date":    entry.Day().Format(models.DateLayout),
		"hours":   entry.HoursWorked,
	}).Info("Manual daily entry saved")
	return &entry, nil
}

// RecomputeRange recomputes from..to (inclusive) for every user and returns
// the number of user-days processed. Manual entries are kept.
func (s *AttendanceService) RecomputeRange(ctx context.Context, from, to time.Time) (int, error) {
	if _, err := s.FlushUnsaved(ctx); err != nil && ctx.Err() != nil {
		return 0, ctx.Err()
	}

	users, err := s.userRepo.GetAll()
	if err != nil {
		return 0, err
	}

	first := models.Date(from.Year(), from.Month(), from.Day())
	last := models.Date(to.Year(), to.Month(), to.Day())

	processed := 0
	var errs []error
	for _, user := range users {
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			if _, err := s.RecomputeDay(ctx, user.ID, d, false); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return processed, ctxErr
				}
				errs = append(errs, err)
				continue
			}
			processed++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"from":      first.Format(models.DateLayout),
		"to":        last.Format(models.DateLayout),
		"users":     len(users),
		"processed": processed,
		"failed":    len(errs),
	}).Info("Daily entries recomputed")
	return processed, errors.Join(errs...)
}

// RecentSessions returns the newest sessions of a user.
func (s *AttendanceService) RecentSessions(userID uint, limit int) ([]models.OfficeSession, error) {
	return s.sessionRepo.ListByUser(userID, limit)
}
