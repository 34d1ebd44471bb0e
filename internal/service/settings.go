package service

import (
	"fmt"
	"strings"
	"time"

	"go2office/internal/logging"
	"go2office/internal/models"
	"go2office/internal/repository"

	"github.com/sirupsen/logrus"
)

type SettingsService struct {
	repo   repository.OfficeSettingsRepository
	logger *logrus.Logger
}

func NewSettingsService(repo repository.OfficeSettingsRepository) *SettingsService {
	return &SettingsService{
		repo:   repo,
		logger: logging.New(),
	}
}

// Configure validates and stores the user's quota.
func (s *SettingsService) Configure(userID uint, daysPerWeek int, hoursPerWeek float64, preferences []time.Weekday) (*models.OfficeSettings, error) {
	settings, err := models.NewOfficeSettings(userID, daysPerWeek, hoursPerWeek, preferences)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"days":    daysPerWeek,
			"hours":   hoursPerWeek,
		}).WithError(err).Warn("Rejected office settings")
		return nil, err
	}

	if err := s.repo.Save(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Get reads the settings fresh from storage.
func (s *SettingsService) Get(userID uint) (*models.OfficeSettings, error) {
	settings, err := s.repo.Get(userID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, models.ErrSettingsNotConfigured
	}
	return settings, nil
}

func (s *SettingsService) FormatSettings(settings *models.OfficeSettings) string {
	var lines []string

	lines = append(lines, "⚙️ Office settings:")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("📅 Days per week: %d", settings.RequiredDaysPerWeek))
	lines = append(lines, fmt.Sprintf("⏱ Hours per week: %s", formatHours(settings.RequiredHoursPerWeek)))

	prefs := settings.Preferences()
	names := make([]string, len(prefs))
	for i, wd := range prefs {
		names[i] = fmt.Sprintf("%d. %s", i+1, wd)
	}
	lines = append(lines, "⭐ Preferred weekdays: "+strings.Join(names, ", "))

	return strings.Join(lines, "\n")
}
