package holidays

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CalendarJSON is the yearly production calendar format:
//
//	{"year":2026,"months":[{"month":1,"days":"1,2,3,4,5,6,7,8,10,11,17,18,24,25,31"}]}
//
// A "+" suffix marks a holiday moved from a weekend and is kept. A "*" suffix
// marks a shortened pre-holiday working day and is skipped.
type CalendarJSON struct {
	Year         int               `json:"year"`
	Months       []MonthDays       `json:"months"`
	Transitions  []Transition      `json:"transitions"`
	Descriptions map[string]string `json:"descriptions"`
}

type MonthDays struct {
	Month int    `json:"month"`
	Days  string `json:"days"`
}

type Transition struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Day is one non-working date at UTC midnight.
type Day struct {
	Date        time.Time
	Description string
	Transferred bool
}

func ParseFile(filePath string) ([]Day, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read holiday calendar: %w", err)
	}
	return Parse(data)
}

// Parse returns the calendar's non-working dates in ascending order. Weekend
// dates are included as listed.
func Parse(data []byte) ([]Day, error) {
	var calendar CalendarJSON
	if err := json.Unmarshal(data, &calendar); err != nil {
		return nil, fmt.Errorf("failed to unmarshal holiday calendar: %w", err)
	}
	if calendar.Year < 1 {
		return nil, fmt.Errorf("holiday calendar has no year")
	}

	seen := make(map[time.Time]struct{})
	days := []Day{}

	for _, monthData := range calendar.Months {
		if monthData.Month < 1 || monthData.Month > 12 {
			return nil, fmt.Errorf("invalid month %d", monthData.Month)
		}
		month := time.Month(monthData.Month)

		for _, raw := range strings.Split(monthData.Days, ",") {
			dayStr := strings.TrimSpace(raw)
			if dayStr == "" || strings.HasSuffix(dayStr, "*") {
				continue
			}
			transferred := strings.HasSuffix(dayStr, "+")
			dayStr = strings.TrimSuffix(dayStr, "+")

			day, err := strconv.Atoi(dayStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse day %q in month %d: %w", raw, monthData.Month, err)
			}

			date := time.Date(calendar.Year, month, day, 0, 0, 0, 0, time.UTC)
			if date.Month() != month || day < 1 {
				return nil, fmt.Errorf("day %d does not exist in %d-%02d", day, calendar.Year, monthData.Month)
			}
			if _, dup := seen[date]; dup {
				continue
			}
			seen[date] = struct{}{}

			days = append(days, Day{
				Date:        date,
				Description: calendar.Descriptions[date.Format("2006-01-02")],
				Transferred: transferred,
			})
		}
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}

// ForMonth filters days to one month.
func ForMonth(days []Day, year int, month time.Month) []Day {
	result := []Day{}
	for _, d := range days {
		if d.Date.Year() == year && d.Date.Month() == month {
			result = append(result, d)
		}
	}
	return result
}

// Weekdays drops Saturdays and Sundays.
func Weekdays(days []Day) []Day {
	result := []Day{}
	for _, d := range days {
		if wd := d.Date.Weekday(); wd != time.Saturday && wd != time.Sunday {
			result = append(result, d)
		}
	}
	return result
}
