package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// OfficeSettings is the manager-defined quota of one user.
// WeekdayPreferences is stored as "Mon,Wed,Fri,Tue,Thu", most preferred first.
type OfficeSettings struct {
	ID                   uint      `gorm:"primarykey" json:"id"`
	UserID               uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	RequiredDaysPerWeek  int       `gorm:"not null" json:"required_days_per_week"`
	RequiredHoursPerWeek float64   `gorm:"not null" json:"required_hours_per_week"`
	WeekdayPreferences   string    `gorm:"type:varchar(40);not null" json:"weekday_preferences"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OfficeSettings) TableName() string {
	return "office_settings"
}

type officeSettingsInput struct {
	RequiredDaysPerWeek  int            `validate:"min=1,max=5"`
	RequiredHoursPerWeek float64        `validate:"gt=0,lte=168"`
	WeekdayPreferences   []time.Weekday `validate:"len=5,unique,dive,min=1,max=5"`
}

// NewOfficeSettings validates and builds settings. This is the only place a
// ValidationError for settings is produced; calculations assume valid settings.
func NewOfficeSettings(userID uint, daysPerWeek int, hoursPerWeek float64, preferences []time.Weekday) (*OfficeSettings, error) {
	in := officeSettingsInput{
		RequiredDaysPerWeek:  daysPerWeek,
		RequiredHoursPerWeek: hoursPerWeek,
		WeekdayPreferences:   preferences,
	}
	if err := validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	return &OfficeSettings{
		UserID:               userID,
		RequiredDaysPerWeek:  daysPerWeek,
		RequiredHoursPerWeek: hoursPerWeek,
		WeekdayPreferences:   FormatWeekdays(preferences),
	}, nil
}

// Validate re-checks settings loaded from storage.
func (s *OfficeSettings) Validate() error {
	prefs, err := ParseWeekdays(s.WeekdayPreferences)
	if err != nil {
		return err
	}
	_, err = NewOfficeSettings(s.UserID, s.RequiredDaysPerWeek, s.RequiredHoursPerWeek, prefs)
	return err
}

// Preferences returns weekdays ordered by descending priority. Settings that
// fail to parse yield the Monday-to-Friday order.
func (s *OfficeSettings) Preferences() []time.Weekday {
	prefs, err := ParseWeekdays(s.WeekdayPreferences)
	if err != nil || len(prefs) != 5 {
		return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	}
	return prefs
}

// HoursPerDay is the daily share of the weekly hours requirement.
func (s *OfficeSettings) HoursPerDay() float64 {
	if s.RequiredDaysPerWeek <= 0 {
		return 0
	}
	return s.RequiredHoursPerWeek / float64(s.RequiredDaysPerWeek)
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: "settings", Reason: err.Error()}
	}

	fe := verrs[0]
	switch fe.StructField() {
	case "RequiredDaysPerWeek":
		return &ValidationError{Field: "required_days_per_week", Reason: "must be between 1 and 5"}
	case "RequiredHoursPerWeek":
		return &ValidationError{Field: "required_hours_per_week", Reason: "must be positive and at most 168"}
	default:
		switch fe.Tag() {
		case "len":
			return &ValidationError{Field: "weekday_preferences", Reason: "exactly 5 weekdays are required"}
		case "unique":
			return &ValidationError{Field: "weekday_preferences", Reason: "weekdays must be distinct"}
		default:
			return &ValidationError{Field: "weekday_preferences", Reason: "only Monday to Friday are allowed"}
		}
	}
}

var weekdayNames = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday,
}

// ParseWeekday accepts short or long English names, case-insensitive.
func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, &ValidationError{Field: "weekday_preferences", Reason: fmt.Sprintf("unknown weekday %q", s)}
	}
	return wd, nil
}

// ParseWeekdays parses a comma separated list such as "Mon,Wed,Fri,Tue,Thu".
func ParseWeekdays(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		wd, err := ParseWeekday(part)
		if err != nil {
			return nil, err
		}
		days = append(days, wd)
	}
	return days, nil
}

func FormatWeekdays(days []time.Weekday) string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()[:3]
	}
	return strings.Join(names, ",")
}
