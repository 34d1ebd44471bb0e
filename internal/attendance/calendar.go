package attendance

import (
	"time"

	"go2office/internal/models"

	"github.com/teambition/rrule-go"
)

var workweek = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}

// Weekdays returns every Monday-to-Friday date of the month in order.
func Weekdays(ym models.YearMonth) []time.Time {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Byweekday: workweek,
		Dtstart:   ym.First(),
		Until:     ym.Last(),
	})
	if err != nil {
		// only reachable if the fixed options above are broken
		panic("attendance: weekday rule: " + err.Error())
	}
	return rule.All()
}

func dateKey(t time.Time) string {
	return t.Format(models.DateLayout)
}
