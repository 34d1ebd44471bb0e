package attendance

import (
	"go2office/internal/models"
)

// CalculateRequirements derives the month's quota. It is a pure function of
// its inputs; an empty or stale holiday set simply means no reduction.
//
//	effective     = weekdays - public holidays on weekdays
//	requiredDays  = ceil(daysPerWeek / 5 * effective)
//	requiredHours = requiredDays * hoursPerWeek / daysPerWeek
func CalculateRequirements(ym models.YearMonth, settings *models.OfficeSettings, holidays []models.Holiday) models.MonthlyRequirements {
	req := models.MonthlyRequirements{
		YearMonth:            ym,
		TotalWeekdaysInMonth: len(Weekdays(ym)),
		HolidaysCount:        countPublicWeekdayHolidays(ym, holidays),
	}
	if settings == nil || settings.RequiredDaysPerWeek <= 0 {
		return req
	}

	effective := req.TotalWeekdaysInMonth - req.HolidaysCount
	if effective < 0 {
		effective = 0
	}
	// integer ceiling keeps the result exact
	req.RequiredDays = (settings.RequiredDaysPerWeek*effective + 4) / 5
	req.RequiredHours = float64(req.RequiredDays) * settings.HoursPerDay()
	return req
}

func countPublicWeekdayHolidays(ym models.YearMonth, holidays []models.Holiday) int {
	seen := make(map[string]struct{})
	for _, h := range holidays {
		day := h.Day()
		if !h.IsPublic() || !ym.Contains(day) || !models.IsWeekday(day) {
			continue
		}
		seen[dateKey(day)] = struct{}{}
	}
	return len(seen)
}
