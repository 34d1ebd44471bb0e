package models

import "time"

// MonthlyRequirements is derived from settings and holidays; never stored.
type MonthlyRequirements struct {
	YearMonth            YearMonth
	RequiredDays         int
	RequiredHours        float64
	TotalWeekdaysInMonth int
	HolidaysCount        int
}

// MonthProgress is recomputed from daily entries and requirements.
type MonthProgress struct {
	YearMonth       YearMonth
	RequiredDays    int
	RequiredHours   float64
	CompletedDays   int
	CompletedHours  float64
	DaysPercentage  float64
	HoursPercentage float64
	IsComplete      bool
}

func (p MonthProgress) RemainingDays() int {
	if p.CompletedDays >= p.RequiredDays {
		return 0
	}
	return p.RequiredDays - p.CompletedDays
}

func (p MonthProgress) RemainingHours() float64 {
	if p.CompletedHours >= p.RequiredHours {
		return 0
	}
	return p.RequiredHours - p.CompletedHours
}

// SuggestedDay is a recommended office day.
type SuggestedDay struct {
	Date    time.Time
	Weekday time.Weekday
	Reason  string
	// Rank is the 1-based position in the suggestion list.
	Rank int
	// PreferenceIndex is the weekday's index in the user's preferences.
	PreferenceIndex int
}
