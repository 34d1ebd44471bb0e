package models

import (
	"time"
)

// MonthlyStat is the last computed MonthProgress of a user, kept for history.
// It is only ever written from a fresh progress computation.
type MonthlyStat struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_monthly_stat_user_month" json:"user_id"`
	Year           int       `gorm:"not null;uniqueIndex:idx_monthly_stat_user_month" json:"year"`
	Month          int       `gorm:"not null;check:month >= 1 AND month <= 12;uniqueIndex:idx_monthly_stat_user_month" json:"month"`
	RequiredDays   int       `gorm:"not null;default:0" json:"required_days"`
	RequiredHours  float64   `gorm:"not null;default:0" json:"required_hours"`
	CompletedDays  int       `gorm:"not null;default:0" json:"completed_days"`
	CompletedHours float64   `gorm:"not null;default:0" json:"completed_hours"`
	IsComplete     bool      `gorm:"not null;default:false" json:"is_complete"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MonthlyStat) TableName() string {
	return "monthly_stats"
}

// NewMonthlyStat snapshots a progress value.
func NewMonthlyStat(userID uint, p MonthProgress) *MonthlyStat {
	return &MonthlyStat{
		UserID:         userID,
		Year:           p.YearMonth.Year,
		Month:          int(p.YearMonth.Month),
		RequiredDays:   p.RequiredDays,
		RequiredHours:  p.RequiredHours,
		CompletedDays:  p.CompletedDays,
		CompletedHours: p.CompletedHours,
		IsComplete:     p.IsComplete,
	}
}

func (ms *MonthlyStat) YearMonth() YearMonth {
	return NewYearMonth(ms.Year, time.Month(ms.Month))
}

// IsValid checks the snapshot ranges.
func (ms *MonthlyStat) IsValid() bool {
	if ms.Month < 1 || ms.Month > 12 {
		return false
	}
	return ms.RequiredDays >= 0 && ms.RequiredHours >= 0 && ms.CompletedDays >= 0 && ms.CompletedHours >= 0
}
