package service

import (
	"fmt"
	"strings"
	"time"

	"go2office/internal/attendance"
	"go2office/internal/logging"
	"go2office/internal/models"
	"go2office/internal/repository"

	"github.com/sirupsen/logrus"
)

// MonthReport bundles the values the bot shows for one month.
type MonthReport struct {
	Requirements models.MonthlyRequirements
	Progress     models.MonthProgress
}

// ProgressService derives requirements, progress and suggestions on demand.
// Nothing here is cached; every call reads settings, holidays and entries.
type ProgressService struct {
	settingsRepo repository.OfficeSettingsRepository
	holidayRepo  repository.HolidayRepository
	entryRepo    repository.DailyEntryRepository
	statRepo     repository.MonthlyStatRepository
	logger       *logrus.Logger
}

func NewProgressService(
	settingsRepo repository.OfficeSettingsRepository,
	holidayRepo repository.HolidayRepository,
	entryRepo repository.DailyEntryRepository,
	statRepo repository.MonthlyStatRepository,
) *ProgressService {
	return &ProgressService{
		settingsRepo: settingsRepo,
		holidayRepo:  holidayRepo,
		entryRepo:    entryRepo,
		statRepo:     statRepo,
		logger:       logging.New(),
	}
}

type monthInputs struct {
	settings *models.OfficeSettings
	holidays []models.Holiday
	entries  []models.DailyEntry
}

func (s *ProgressService) load(userID uint, ym models.YearMonth, withEntries bool) (*monthInputs, error) {
	settings, err := s.settingsRepo.Get(userID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, models.ErrSettingsNotConfigured
	}

	holidays, err := s.holidayRepo.ListRange(userID, ym.First(), ym.Last())
	if err != nil {
		return nil, err
	}

	in := &monthInputs{settings: settings, holidays: holidays}
	if withEntries {
		if in.entries, err = s.entryRepo.ListRange(userID, ym.First(), ym.Last()); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func (s *ProgressService) Requirements(userID uint, ym models.YearMonth) (models.MonthlyRequirements, error) {
	in, err := s.load(userID, ym, false)
	if err != nil {
		return models.MonthlyRequirements{}, err
	}
	return attendance.CalculateRequirements(ym, in.settings, in.holidays), nil
}

// Progress computes the month's progress and stores a snapshot of it.
func (s *ProgressService) Progress(userID uint, ym models.YearMonth) (*MonthReport, error) {
	in, err := s.load(userID, ym, true)
	if err != nil {
		return nil, err
	}

	report := s.compute(ym, in)
	s.snapshot(userID, report.Progress)
	return report, nil
}

func (s *ProgressService) compute(ym models.YearMonth, in *monthInputs) *MonthReport {
	req := attendance.CalculateRequirements(ym, in.settings, in.holidays)
	return &MonthReport{
		Requirements: req,
		Progress:     attendance.CalculateProgress(req, in.entries, in.holidays),
	}
}

func (s *ProgressService) snapshot(userID uint, p models.MonthProgress) {
	if err := s.statRepo.Upsert(models.NewMonthlyStat(userID, p)); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"month":   p.YearMonth.String(),
		}).WithError(err).Warn("Failed to store monthly snapshot")
	}
}

// Suggestions recommends office days in ym on or after today.
func (s *ProgressService) Suggestions(userID uint, ym models.YearMonth, today time.Time) (*attendance.SuggestionResult, *MonthReport, error) {
	in, err := s.load(userID, ym, true)
	if err != nil {
		return nil, nil, err
	}

	report := s.compute(ym, in)
	candidates := attendance.EligibleDates(ym, in.holidays, in.entries, today)
	result := attendance.Suggest(report.Progress, candidates, in.settings.Preferences())

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"month":      ym.String(),
		"remaining":  result.Remaining,
		"candidates": len(candidates),
		"suggested":  len(result.Days),
	}).Debug("Suggestions computed")
	return &result, report, nil
}

// History returns stored monthly snapshots, newest first.
func (s *ProgressService) History(userID uint, limit int) ([]models.MonthlyStat, error) {
	return s.statRepo.ListByUser(userID, limit)
}

func (s *ProgressService) FormatRequirements(req models.MonthlyRequirements) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("📋 Requirements for %s:", req.YearMonth))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("🗓 Weekdays in month: %d", req.TotalWeekdaysInMonth))
	lines = append(lines, fmt.Sprintf("🎉 Public holidays on weekdays: %d", req.HolidaysCount))
	lines = append(lines, fmt.Sprintf("🏢 Required office days: %d", req.RequiredDays))
	lines = append(lines, fmt.Sprintf("⏱ Required hours: %s", formatHours(req.RequiredHours)))

	return strings.Join(lines, "\n")
}

func (s *ProgressService) FormatProgress(p models.MonthProgress) string {
	var lines []string

	status := "⏳ In progress"
	if p.IsComplete {
		status = "✅ Complete"
	}

	lines = append(lines, fmt.Sprintf("📊 Progress for %s: %s", p.YearMonth, status))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("🏢 Days: %d / %d (%.1f%%)", p.CompletedDays, p.RequiredDays, p.DaysPercentage))
	lines = append(lines, fmt.Sprintf("⏱ Hours: %s / %s (%.1f%%)",
		formatHours(p.CompletedHours), formatHours(p.RequiredHours), p.HoursPercentage))

	if !p.IsComplete {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("📌 Remaining: %d days, %s", p.RemainingDays(), formatHours(p.RemainingHours())))
	}

	return strings.Join(lines, "\n")
}

func (s *ProgressService) FormatSuggestions(ym models.YearMonth, result *attendance.SuggestionResult) string {
	if result.Remaining == 0 {
		return fmt.Sprintf("🎉 The office day quota for %s is already met.", ym)
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("💡 Suggested office days for %s (%d still needed):", ym, result.Remaining))
	lines = append(lines, "")

	for _, d := range result.Days {
		lines = append(lines, fmt.Sprintf("%d. %s %s - %s",
			d.Rank, d.Date.Format(models.DateLayout), d.Weekday.String()[:3], d.Reason))
	}

	if result.Unmeetable {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("⚠️ Not enough weekdays left: %d day(s) short of the quota.", result.Shortfall))
	}

	return strings.Join(lines, "\n")
}

func (s *ProgressService) FormatHistory(stats []models.MonthlyStat) string {
	if len(stats) == 0 {
		return "📭 No monthly history yet."
	}

	var lines []string
	lines = append(lines, "📈 Monthly history:")
	lines = append(lines, "")

	for _, st := range stats {
		mark := "⏳"
		if st.IsComplete {
			mark = "✅"
		}
		lines = append(lines, fmt.Sprintf("%s %s: %d/%d days, %s/%s",
			mark, st.YearMonth(), st.CompletedDays, st.RequiredDays,
			formatHours(st.CompletedHours), formatHours(st.RequiredHours)))
	}

	return strings.Join(lines, "\n")
}

// formatHours renders 7.5 as "7h 30m".
func formatHours(h float64) string {
	minutes := int(h*60 + 0.5)
	if minutes%60 == 0 {
		return fmt.Sprintf("%dh", minutes/60)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}
