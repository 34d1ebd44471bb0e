package service

import (
	"fmt"
	"strings"
	"time"

	"go2office/internal/logging"
	"go2office/internal/models"
	"go2office/internal/repository"
	"go2office/pkg/holidays"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// MaxVacationDays bounds a single /vacation range.
const MaxVacationDays = 62

type HolidayService struct {
	repo   repository.HolidayRepository
	logger *logrus.Logger
}

func NewHolidayService(repo repository.HolidayRepository) *HolidayService {
	return &HolidayService{
		repo:   repo,
		logger: logging.New(),
	}
}

// LoadPublicCalendar imports a yearly calendar file into the shared calendar.
func (s *HolidayService) LoadPublicCalendar(filePath string) (int, error) {
	days, err := holidays.ParseFile(filePath)
	if err != nil {
		return 0, err
	}

	rows := make([]models.Holiday, 0, len(days))
	for _, d := range days {
		rows = append(rows, models.Holiday{
			UserID:      models.PublicCalendarUserID,
			Date:        datatypes.Date(d.Date),
			Description: d.Description,
			Type:        models.HolidayPublic,
		})
	}

	if err := s.repo.BulkUpsert(rows); err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"file":  filePath,
		"count": len(rows),
	}).Info("Public holiday calendar loaded")
	return len(rows), nil
}

func (s *HolidayService) AddPublicHoliday(date time.Time, description string) (*models.Holiday, error) {
	holiday := &models.Holiday{
		UserID:      models.PublicCalendarUserID,
		Date:        datatypes.Date(models.Date(date.Year(), date.Month(), date.Day())),
		Description: description,
		Type:        models.HolidayPublic,
	}
	if err := s.repo.Upsert(holiday); err != nil {
		return nil, err
	}
	return holiday, nil
}

// AddVacation stores one vacation row per date in from..to, weekends included.
func (s *HolidayService) AddVacation(userID uint, from, to time.Time, description string) (int, error) {
	first := models.Date(from.Year(), from.Month(), from.Day())
	last := models.Date(to.Year(), to.Month(), to.Day())

	if last.Before(first) {
		return 0, &models.ValidationError{Field: "vacation", Reason: "end date is before start date"}
	}
	if n := int(last.Sub(first).Hours()/24) + 1; n > MaxVacationDays {
		return 0, &models.ValidationError{Field: "vacation", Reason: fmt.Sprintf("at most %d days at once", MaxVacationDays)}
	}

	var rows []models.Holiday
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		rows = append(rows, models.Holiday{
			UserID:      userID,
			Date:        datatypes.Date(d),
			Description: description,
			Type:        models.HolidayVacation,
		})
	}

	if err := s.repo.BulkUpsert(rows); err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"from":    first.Format(models.DateLayout),
		"to":      last.Format(models.DateLayout),
		"days":    len(rows),
	}).Info("Vacation added")
	return len(rows), nil
}

func (s *HolidayService) RemoveVacation(userID uint, date time.Time) error {
	if userID == models.PublicCalendarUserID {
		return &models.ValidationError{Field: "user_id", Reason: "must be set"}
	}
	return s.repo.Delete(userID, date)
}

// ListMonth returns the public holidays and the user's vacation in ym.
func (s *HolidayService) ListMonth(userID uint, ym models.YearMonth) ([]models.Holiday, error) {
	return s.repo.ListRange(userID, ym.First(), ym.Last())
}

func (s *HolidayService) FormatHolidays(ym models.YearMonth, list []models.Holiday) string {
	if len(list) == 0 {
		return fmt.Sprintf("📭 No holidays or vacation in %s.", ym)
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("🏖 Holidays in %s:", ym))
	lines = append(lines, "")

	for _, h := range list {
		day := h.Day()
		emoji := "🎉"
		if h.IsVacation() {
			emoji = "🌴"
		}
		line := fmt.Sprintf("%s %s (%s)", emoji, day.Format(models.DateLayout), day.Weekday().String()[:3])
		if h.Description != "" {
			line += " " + h.Description
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}
