package models

import (
	"time"
)

// Wallet holds a user's balance in minor currency units
type Wallet struct {
	UserID    int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Balance   int64     `gorm:"not null;default:0;check:chk_wallets_balance,balance >= 0" json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Wallet) TableName() string {
	return "wallets"
}
