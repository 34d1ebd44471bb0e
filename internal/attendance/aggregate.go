package attendance

import (
	"math"
	"sort"
	"time"

	"go2office/internal/models"

	"gorm.io/datatypes"
)

type interval struct {
	start time.Time
	end   time.Time
}

// AggregateDay folds the closed sessions overlapping date into one entry.
// Session time is clipped to the day window in loc, overlapping intervals are
// merged before summing, and the total is capped at 24 hours. The result does
// not depend on the order or duplication of sessions. Open sessions are ignored.
func AggregateDay(userID uint, date time.Time, sessions []models.OfficeSession, loc *time.Location) models.DailyEntry {
	dayStart, dayEnd := models.DayWindow(date, loc)

	spans := make([]interval, 0, len(sessions))
	for _, s := range sessions {
		if s.ExitTime == nil || s.ExitTime.Before(s.EntryTime) {
			continue
		}
		start, end := s.EntryTime, *s.ExitTime
		if start.Before(dayStart) {
			start = dayStart
		}
		if end.After(dayEnd) {
			end = dayEnd
		}
		if end.After(start) {
			spans = append(spans, interval{start: start, end: end})
		}
	}

	hours := roundHours(union(spans).Hours())
	if hours > models.MaxHoursPerDay {
		hours = models.MaxHoursPerDay
	}

	return models.DailyEntry{
		UserID:      userID,
		Date:        datatypes.Date(models.Date(date.Year(), date.Month(), date.Day())),
		WasInOffice: hours > 0,
		HoursWorked: hours,
	}
}

// union returns the total length covered by spans, counting overlaps once.
func union(spans []interval) time.Duration {
	if len(spans) == 0 {
		return 0
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start.Equal(spans[j].start) {
			return spans[i].end.Before(spans[j].end)
		}
		return spans[i].start.Before(spans[j].start)
	})

	var total time.Duration
	cur := spans[0]
	for _, s := range spans[1:] {
		if !s.start.After(cur.end) {
			if s.end.After(cur.end) {
				cur.end = s.end
			}
			continue
		}
		total += cur.end.Sub(cur.start)
		cur = s
	}
	return total + cur.end.Sub(cur.start)
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

// AffectedDates lists the calendar dates (in loc) a closed session overlaps.
// A session ending exactly at midnight does not touch the following date.
func AffectedDates(session models.OfficeSession, loc *time.Location) []time.Time {
	if session.ExitTime == nil || !session.ExitTime.After(session.EntryTime) {
		return []time.Time{models.DateOf(session.EntryTime, loc)}
	}
	first := models.DateOf(session.EntryTime, loc)
	last := models.DateOf(session.ExitTime.Add(-time.Nanosecond), loc)

	var dates []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// Reconcile decides what to store for a date given the stored entry and a
// fresh computation. A manual entry is kept unless force is set. The returned
// flag reports whether anything needs to be written.
func Reconcile(existing *models.DailyEntry, computed models.DailyEntry, force bool) (models.DailyEntry, bool) {
	if existing == nil {
		return computed, true
	}
	if existing.IsManual && !force {
		return *existing, false
	}

	changed := !existing.SameValues(&computed)
	computed.ID = existing.ID
	computed.CreatedAt = existing.CreatedAt
	return computed, changed
}

// ManualEntry builds a user override for date.
func ManualEntry(userID uint, date time.Time, hours float64, note string) (models.DailyEntry, error) {
	if math.IsNaN(hours) || hours < 0 || hours > models.MaxHoursPerDay {
		return models.DailyEntry{}, &models.ValidationError{Field: "hours_worked", Reason: "must be between 0 and 24"}
	}
	return models.DailyEntry{
		UserID:      userID,
		Date:        datatypes.Date(models.Date(date.Year(), date.Month(), date.Day())),
		WasInOffice: hours > 0,
		HoursWorked: roundHours(hours),
		Note:        note,
		IsManual:    true,
	}, nil
}
