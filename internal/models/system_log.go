package models

import (
	"time"

	"gorm.io/datatypes"
)

// SystemLog stores ERROR and security log records for later audit.
type SystemLog struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Level     string         `gorm:"size:10;not null;index" json:"level"`
	Category  string         `gorm:"size:20;index" json:"category"`
	Message   string         `gorm:"type:text" json:"message"`
	Event     string         `gorm:"size:100;index" json:"event"`
	RequestID string         `gorm:"size:36;index" json:"request_id"`
	ClientIP  string         `gorm:"size:64" json:"client_ip"`
	Error     string         `gorm:"type:text" json:"error"`
	Extra     datatypes.JSON `json:"extra"`
	CreatedAt time.Time      `json:"created_at"`
}
