package models

import "time"

// Report is one row per report event, kept for admin review.
type Report struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PhotoID    string    `gorm:"size:64;not null;index" json:"photo_id"`
	Reason     string    `gorm:"size:50;not null;default:'user_reported'" json:"reason"`
	Details    string    `gorm:"size:500" json:"details,omitempty"`
	ReportedAt time.Time `gorm:"not null;index" json:"reported_at"`
}

// ReportReasons is the closed set of reasons a visitor may choose.
var ReportReasons = []string{
	"inappropriate_content",
	"spam",
	"copyright_violation",
	"harassment",
	"nudity",
	"violence",
	"other",
}

func ValidReportReason(reason string) bool {
	for _, r := range ReportReasons {
		if r == reason {
			return true
		}
	}
	return false
}
