package attendance

import (
	"fmt"
	"sort"
	"time"

	"go2office/internal/models"
)

const (
	ReasonPreferredDay     = "preferred day"
	ReasonOnlyRemaining    = "only remaining weekday"
	ReasonNeededForQuota   = "needed to meet the quota"
	reasonPreferenceFormat = "preference #%d (%s)"
)

// SuggestionResult carries the suggested days and whether the quota can
// still be met with the dates left in the month.
type SuggestionResult struct {
	Days       []models.SuggestedDay
	Remaining  int
	Shortfall  int
	Unmeetable bool
}

// EligibleDates returns the month's weekdays on or after from that are not
// holidays or vacation and have no office entry yet.
func EligibleDates(ym models.YearMonth, holidays []models.Holiday, entries []models.DailyEntry, from time.Time) []time.Time {
	blocked := make(map[string]struct{})
	for _, h := range holidays {
		blocked[dateKey(h.Day())] = struct{}{}
	}
	for _, e := range entries {
		if e.WasInOffice {
			blocked[dateKey(e.Day())] = struct{}{}
		}
	}

	from = models.Date(from.Year(), from.Month(), from.Day())
	var dates []time.Time
	for _, d := range Weekdays(ym) {
		if d.Before(from) {
			continue
		}
		if _, ok := blocked[dateKey(d)]; ok {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// Suggest ranks candidates by the preference index of their weekday, then by
// date, and returns the first min(remainingDays, len(candidates)).
func Suggest(progress models.MonthProgress, candidates []time.Time, preferences []time.Weekday) SuggestionResult {
	remaining := progress.RemainingDays()
	result := SuggestionResult{Remaining: remaining}
	if remaining == 0 {
		return result
	}

	rank := make(map[time.Weekday]int, len(preferences))
	for i, wd := range preferences {
		if _, ok := rank[wd]; !ok {
			rank[wd] = i
		}
	}
	indexOf := func(wd time.Weekday) int {
		if i, ok := rank[wd]; ok {
			return i
		}
		return len(preferences)
	}

	sorted := make([]time.Time, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := indexOf(sorted[i].Weekday()), indexOf(sorted[j].Weekday())
		if pi != pj {
			return pi < pj
		}
		return sorted[i].Before(sorted[j])
	})

	n := remaining
	if len(sorted) < n {
		n = len(sorted)
		result.Unmeetable = true
		result.Shortfall = remaining - len(sorted)
	}

	result.Days = make([]models.SuggestedDay, 0, n)
	for i, d := range sorted[:n] {
		idx := indexOf(d.Weekday())
		result.Days = append(result.Days, models.SuggestedDay{
			Date:            d,
			Weekday:         d.Weekday(),
			Reason:          reason(idx, d.Weekday(), len(sorted), remaining),
			Rank:            i + 1,
			PreferenceIndex: idx,
		})
	}
	return result
}

func reason(prefIndex int, wd time.Weekday, candidates, remaining int) string {
	switch {
	case candidates == 1:
		return ReasonOnlyRemaining
	case candidates <= remaining:
		return ReasonNeededForQuota
	case prefIndex == 0:
		return ReasonPreferredDay
	default:
		return fmt.Sprintf(reasonPreferenceFormat, prefIndex+1, wd)
	}
}
