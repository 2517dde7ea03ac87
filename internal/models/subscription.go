package models

import (
	"time"
)

// Subscription is a user's current entitlement window. Version is bumped
// on every renewal and guards concurrent writers.
type Subscription struct {
	UserID               int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ExpiresAt            time.Time `gorm:"not null;index" json:"expires_at"`
	RemindedBeforeExpiry bool      `gorm:"not null" json:"reminded_before_expiry"`
	NotifiedExpired      bool      `gorm:"not null" json:"notified_expired"`
	Version              int64     `gorm:"not null" json:"-"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// IsActive reports whether the subscription is still running at now
func (s *Subscription) IsActive(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}
