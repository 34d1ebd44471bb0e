package models

import (
	"time"

	"gorm.io/datatypes"
)

type HolidayType string

const (
	// HolidayPublic reduces the monthly requirement.
	HolidayPublic HolidayType = "PUBLIC_HOLIDAY"
	// HolidayVacation is credited as an attended day.
	HolidayVacation HolidayType = "VACATION"
)

// PublicCalendarUserID marks holiday rows shared by every user.
const PublicCalendarUserID uint = 0

type Holiday struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;uniqueIndex:idx_holiday_user_date" json:"user_id"`
	Date        datatypes.Date `gorm:"not null;uniqueIndex:idx_holiday_user_date" json:"date"`
	Description string         `json:"description"`
	Type        HolidayType    `gorm:"type:varchar(20);not null" json:"type"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Holiday) TableName() string {
	return "holidays"
}

func (h *Holiday) Day() time.Time {
	t := time.Time(h.Date)
	return Date(t.Year(), t.Month(), t.Day())
}

func (h *Holiday) IsPublic() bool {
	return h.Type == HolidayPublic
}

func (h *Holiday) IsVacation() bool {
	return h.Type == HolidayVacation
}

func IsValidHolidayType(t HolidayType) bool {
	return t == HolidayPublic || t == HolidayVacation
}
