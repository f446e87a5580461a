package models

import "time"

// UserLike exists while a fingerprint likes a photo; unliking deletes the row.
type UserLike struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PhotoID        string    `gorm:"size:64;not null;uniqueIndex:idx_user_likes_photo_user,priority:1" json:"photo_id"`
	UserIdentifier string    `gorm:"size:64;not null;uniqueIndex:idx_user_likes_photo_user,priority:2" json:"-"`
	IPAddress      string    `gorm:"size:64" json:"-"`
	UserAgent      string    `gorm:"size:512" json:"-"`
	LikedAt        time.Time `gorm:"not null" json:"liked_at"`
}
