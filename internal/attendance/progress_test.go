package attendance

import (
	"testing"
	"time"

	"go2office/internal/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func officeDay(date time.Time, hours float64) models.DailyEntry {
	return models.DailyEntry{UserID: 1, Date: datatypes.Date(date), WasInOffice: hours > 0, HoursWorked: hours}
}

func scenarioRequirements() models.MonthlyRequirements {
	return models.MonthlyRequirements{YearMonth: may2026, RequiredDays: 12, RequiredHours: 96, TotalWeekdaysInMonth: 21, HolidaysCount: 1}
}

func TestCalculateProgressCountsOfficeDays(t *testing.T) {
	entries := []models.DailyEntry{
		officeDay(models.Date(2026, 5, 4), 8),
		officeDay(models.Date(2026, 5, 6), 7.5),
		officeDay(models.Date(2026, 5, 8), 8.5),
		officeDay(models.Date(2026, 5, 11), 0),
		officeDay(models.Date(2026, 4, 30), 8),
	}

	p := CalculateProgress(scenarioRequirements(), entries, nil)

	assert.Equal(t, 3, p.CompletedDays)
	assert.Equal(t, 24.0, p.CompletedHours)
	assert.Equal(t, 25.0, p.DaysPercentage)
	assert.Equal(t, 25.0, p.HoursPercentage)
	assert.False(t, p.IsComplete)
	assert.Equal(t, 9, p.RemainingDays())
}

func TestCalculateProgressCreditsVacation(t *testing.T) {
	entries := []models.DailyEntry{officeDay(models.Date(2026, 5, 4), 2)}
	holidays := []models.Holiday{
		holiday(models.Date(2026, 5, 4), models.HolidayVacation),
		holiday(models.Date(2026, 5, 5), models.HolidayVacation),
		holiday(models.Date(2026, 5, 1), models.HolidayPublic),
	}

	p := CalculateProgress(scenarioRequirements(), entries, holidays)

	// the 4th counts once, with the daily quota since it exceeds the logged 2h
	assert.Equal(t, 2, p.CompletedDays)
	assert.Equal(t, 16.0, p.CompletedHours)
}

func TestCalculateProgressSkipsVacationOnWeekends(t *testing.T) {
	var holidays []models.Holiday
	for d := 4; d <= 10; d++ {
		holidays = append(holidays, holiday(models.Date(2026, 5, d), models.HolidayVacation))
	}
	req := models.MonthlyRequirements{YearMonth: may2026, RequiredDays: 13, RequiredHours: 104}

	p := CalculateProgress(req, nil, holidays)

	assert.Equal(t, 5, p.CompletedDays)
	assert.Equal(t, 40.0, p.CompletedHours)
}

func TestCalculateProgressSkipsVacationOnPublicHoliday(t *testing.T) {
	holidays := []models.Holiday{
		holiday(models.Date(2026, 5, 1), models.HolidayPublic),
		holiday(models.Date(2026, 5, 1), models.HolidayVacation),
	}

	p := CalculateProgress(scenarioRequirements(), nil, holidays)

	assert.Equal(t, 0, p.CompletedDays)
	assert.Equal(t, 0.0, p.CompletedHours)
}

func TestCalculateProgressCapsPercentages(t *testing.T) {
	var entries []models.DailyEntry
	for _, d := range Weekdays(may2026) {
		entries = append(entries, officeDay(d, 9))
	}

	p := CalculateProgress(scenarioRequirements(), entries, nil)

	assert.Equal(t, 21, p.CompletedDays)
	assert.Equal(t, 100.0, p.DaysPercentage)
	assert.Equal(t, 100.0, p.HoursPercentage)
	assert.True(t, p.IsComplete)
	assert.Equal(t, 0, p.RemainingDays())
}

func TestCalculateProgressDaysWithoutHoursIsIncomplete(t *testing.T) {
	var entries []models.DailyEntry
	for _, d := range Weekdays(may2026)[:12] {
		entries = append(entries, officeDay(d, 1))
	}

	p := CalculateProgress(scenarioRequirements(), entries, nil)

	assert.Equal(t, 12, p.CompletedDays)
	assert.False(t, p.IsComplete)
}

func TestCalculateProgressNothingRequired(t *testing.T) {
	req := models.MonthlyRequirements{YearMonth: may2026}

	p := CalculateProgress(req, nil, nil)

	assert.Equal(t, 100.0, p.DaysPercentage)
	assert.True(t, p.IsComplete)
}

func TestCalculateProgressIsMonotonic(t *testing.T) {
	req := scenarioRequirements()
	holidays := []models.Holiday{
		holiday(models.Date(2026, 5, 12), models.HolidayVacation),
		holiday(models.Date(2026, 5, 1), models.HolidayPublic),
	}
	var entries []models.DailyEntry
	before := CalculateProgress(req, entries, holidays)

	hours := []float64{0.5, 9, 3, 12, 1}
	for i := 1; i <= may2026.Days(); i++ {
		entries = append(entries, officeDay(models.Date(2026, 5, i), hours[i%len(hours)]))
		after := CalculateProgress(req, entries, holidays)

		assert.GreaterOrEqual(t, after.CompletedDays, before.CompletedDays)
		assert.GreaterOrEqual(t, after.CompletedHours, before.CompletedHours)
		before = after
	}
}
