package models

import (
	"time"
)

// Referral is the immutable referrer -> referred edge
type Referral struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ReferrerID     int64     `gorm:"not null;index" json:"referrer_id"`
	ReferredUserID int64     `gorm:"not null;uniqueIndex" json:"referred_user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Referral) TableName() string {
	return "referrals"
}

// ReferralProfit accumulates commission credited to a referrer
type ReferralProfit struct {
	ReferrerID  int64     `gorm:"primaryKey;autoIncrement:false" json:"referrer_id"`
	TotalProfit int64     `gorm:"not null;default:0" json:"total_profit"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ReferralProfit) TableName() string {
	return "referral_profits"
}

// ReferralStats is the referrer's summary view
type ReferralStats struct {
	UserID        int64  `json:"user_id"`
	ReferralCount int64  `json:"referral_count"`
	TotalProfit   int64  `json:"total_profit"`
	InviteLink    string `json:"invite_link,omitempty"`
}
