package attendance

import (
	"math"
	"sort"

	"go2office/internal/models"
)

// CalculateProgress combines the month's entries and holidays with its
// requirement. A date counts once if the user was in the office or on
// vacation. Only vacation on working days is credited: weekends and public
// holidays already carry no requirement. Credited vacation gets the daily
// quota of hours (requiredHours / requiredDays) unless more office hours
// were logged.
//
// Adding an office entry never lowers completed days or hours.
func CalculateProgress(req models.MonthlyRequirements, entries []models.DailyEntry, holidays []models.Holiday) models.MonthProgress {
	ym := req.YearMonth
	credited := make(map[string]float64)

	for _, e := range entries {
		day := e.Day()
		if !e.WasInOffice || !ym.Contains(day) {
			continue
		}
		key := dateKey(day)
		if cur, ok := credited[key]; !ok || e.HoursWorked > cur {
			credited[key] = e.HoursWorked
		}
	}

	public := make(map[string]struct{})
	for _, h := range holidays {
		if h.IsPublic() {
			public[dateKey(h.Day())] = struct{}{}
		}
	}

	quota := vacationQuota(req)
	for _, h := range holidays {
		day := h.Day()
		if !h.IsVacation() || !ym.Contains(day) || !models.IsWeekday(day) {
			continue
		}
		key := dateKey(day)
		if _, ok := public[key]; ok {
			continue
		}
		if cur, ok := credited[key]; !ok || quota > cur {
			credited[key] = quota
		}
	}

	keys := make([]string, 0, len(credited))
	for k := range credited {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var hours float64
	for _, k := range keys {
		hours += credited[k]
	}
	hours = roundHours(hours)

	p := models.MonthProgress{
		YearMonth:      ym,
		RequiredDays:   req.RequiredDays,
		RequiredHours:  req.RequiredHours,
		CompletedDays:  len(credited),
		CompletedHours: hours,
	}
	p.DaysPercentage = percentage(float64(p.CompletedDays), float64(p.RequiredDays))
	p.HoursPercentage = percentage(p.CompletedHours, p.RequiredHours)
	p.IsComplete = p.CompletedDays >= p.RequiredDays && p.CompletedHours >= p.RequiredHours
	return p
}

func vacationQuota(req models.MonthlyRequirements) float64 {
	if req.RequiredDays <= 0 {
		return 0
	}
	return req.RequiredHours / float64(req.RequiredDays)
}

// percentage caps at 100; nothing required means done.
func percentage(completed, required float64) float64 {
	if required <= 0 {
		return 100
	}
	return math.Min(100, math.Round(completed/required*1000)/10)
}
