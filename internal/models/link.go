package models

import (
	"time"
)

// Link is a single-use access token in the delivery pool
type Link struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Token         string     `gorm:"size:1024;not null;uniqueIndex" json:"token"`
	IsUsed        bool       `gorm:"not null;index" json:"is_used"`
	UsedByOrderID *uint      `gorm:"index" json:"used_by_order_id,omitempty"`
	UsedByUserID  *int64     `json:"used_by_user_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
}

func (Link) TableName() string {
	return "links"
}
