package models

import (
	"time"
)

// DepositStatus represents the state of a top-up request
type DepositStatus string

const (
	DepositStatusPending  DepositStatus = "pending_admin"
	DepositStatusApproved DepositStatus = "approved"
	DepositStatusRejected DepositStatus = "rejected"
)

// DepositRequest is a user's wallet top-up awaiting operator review
type DepositRequest struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	ReceiptKey    string        `gorm:"size:36;uniqueIndex;not null" json:"receipt_key"`
	UserID        int64         `gorm:"not null;index" json:"user_id"`
	User          *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount        int64         `gorm:"not null;check:chk_deposit_requests_amount,amount > 0" json:"amount"`
	Status        DepositStatus `gorm:"size:20;not null;index" json:"status"`
	ReceiptText   *string       `gorm:"type:text" json:"receipt_text,omitempty"`
	ReceiptFileID *string       `gorm:"size:255" json:"receipt_file_id,omitempty"`
	CreatedAt     time.Time     `gorm:"index" json:"created_at"`
	ResolvedAt    *time.Time    `json:"resolved_at,omitempty"`
}

func (DepositRequest) TableName() string {
	return "deposit_requests"
}
