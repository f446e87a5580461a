package models

import "time"

// UserReport is never deleted except with its photo: one report per
// fingerprint per photo, ever.
type UserReport struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PhotoID        string    `gorm:"size:64;not null;uniqueIndex:idx_user_reports_photo_user,priority:1" json:"photo_id"`
	UserIdentifier string    `gorm:"size:64;not null;uniqueIndex:idx_user_reports_photo_user,priority:2" json:"-"`
	Reason         string    `gorm:"size:50;not null" json:"reason"`
	IPAddress      string    `gorm:"size:64" json:"-"`
	UserAgent      string    `gorm:"size:512" json:"-"`
	ReportedAt     time.Time `gorm:"not null" json:"reported_at"`
}
