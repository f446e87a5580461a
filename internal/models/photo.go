package models

import "time"

type PhotoStatus string

const (
	PhotoPending  PhotoStatus = "pending"
	PhotoApproved PhotoStatus = "approved"
)

// Photo is an uploaded image moving through moderation. Rejected and deleted
// photos are removed, never tombstoned.
type Photo struct {
	ID           string      `gorm:"primaryKey;size:64" json:"id"`
	Filename     string      `gorm:"size:255;not null" json:"filename"`
	OriginalName string      `gorm:"size:255;not null" json:"original_name"`
	Size         int64       `gorm:"not null" json:"size"`
	Likes        int         `gorm:"not null;default:0;index" json:"likes"`
	ReportCount  int         `gorm:"not null;default:0" json:"report_count"`
	Status       PhotoStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	CreatedAt    time.Time   `gorm:"not null;index" json:"created_at"`
	UploadedAt   time.Time   `gorm:"not null" json:"uploaded_at"`
	ApprovedAt   *time.Time  `json:"approved_at,omitempty"`

	Reports     []Report     `gorm:"foreignKey:PhotoID;constraint:OnDelete:CASCADE" json:"-"`
	UserLikes   []UserLike   `gorm:"foreignKey:PhotoID;constraint:OnDelete:CASCADE" json:"-"`
	UserReports []UserReport `gorm:"foreignKey:PhotoID;constraint:OnDelete:CASCADE" json:"-"`
}
