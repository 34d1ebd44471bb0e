package models

import (
	"time"

	"gorm.io/datatypes"
)

const MaxHoursPerDay = 24.0

// DailyEntry is the attendance record of one calendar date for one user.
type DailyEntry struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	UserID      uint           `gorm:"not null;uniqueIndex:idx_daily_entry_user_date" json:"user_id"`
	Date        datatypes.Date `gorm:"not null;uniqueIndex:idx_daily_entry_user_date" json:"date"`
	WasInOffice bool           `gorm:"not null;default:false" json:"was_in_office"`
	HoursWorked float64        `gorm:"not null;default:0" json:"hours_worked"`
	Note        string         `json:"note"`
	IsManual    bool           `gorm:"not null;default:false" json:"is_manual"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DailyEntry) TableName() string {
	return "daily_entries"
}

// Day returns the entry date as a UTC midnight time.
func (e *DailyEntry) Day() time.Time {
	t := time.Time(e.Date)
	return Date(t.Year(), t.Month(), t.Day())
}

// IsValid checks the hours range.
func (e *DailyEntry) IsValid() bool {
	if time.Time(e.Date).IsZero() {
		return false
	}
	return e.HoursWorked >= 0 && e.HoursWorked <= MaxHoursPerDay
}

// SameValues compares the attendance payload of two entries.
func (e *DailyEntry) SameValues(other *DailyEntry) bool {
	return e.WasInOffice == other.WasInOffice &&
		e.HoursWorked == other.HoursWorked &&
		e.IsManual == other.IsManual &&
		e.Note == other.Note
}
