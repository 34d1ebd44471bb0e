package models

import (
	"fmt"
	"time"
)

type OfficeSession struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	EntryTime      time.Time  `gorm:"not null;index" json:"entry_time"`
	ExitTime       *time.Time `gorm:"index" json:"exit_time"`
	IsAutoDetected bool       `gorm:"not null;default:true" json:"is_auto_detected"`
	IsAnomalous    bool       `gorm:"not null;default:false" json:"is_anomalous"`
	AnomalyReason  string     `gorm:"type:varchar(32)" json:"anomaly_reason"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OfficeSession) TableName() string {
	return "office_sessions"
}

// IsOpen reports whether the session has no exit time yet.
func (s *OfficeSession) IsOpen() bool {
	return s.ExitTime == nil
}

// Duration returns the closed session length, zero while open.
func (s *OfficeSession) Duration() time.Duration {
	if s.ExitTime == nil {
		return 0
	}
	return s.ExitTime.Sub(s.EntryTime)
}

// Validate requires exit to be at or after entry.
func (s *OfficeSession) Validate() error {
	if s.UserID == 0 {
		return &ValidationError{Field: "user_id", Reason: "must be set"}
	}
	if s.EntryTime.IsZero() {
		return &ValidationError{Field: "entry_time", Reason: "must be set"}
	}
	if s.ExitTime != nil && s.ExitTime.Before(s.EntryTime) {
		return &ValidationError{
			Field:  "exit_time",
			Reason: fmt.Sprintf("%s is before entry %s", s.ExitTime.Format(time.RFC3339), s.EntryTime.Format(time.RFC3339)),
		}
	}
	return nil
}

// FormatTime renders the session for chat output.
func (s *OfficeSession) FormatTime(loc *time.Location) string {
	in := s.EntryTime.In(loc).Format("02.01 15:04")
	if s.ExitTime == nil {
		return fmt.Sprintf("⏰ In: %s (still in the office)", in)
	}
	return fmt.Sprintf("⏰ In: %s | Out: %s", in, s.ExitTime.In(loc).Format("02.01 15:04"))
}
