package models

import (
	"time"
)

// User is a chat user, keyed by the transport's chat identifier
type User struct {
	ID         int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username   *string   `gorm:"size:64;index" json:"username,omitempty"`
	FirstName  *string   `gorm:"size:128" json:"first_name,omitempty"`
	ReferrerID *int64    `gorm:"index" json:"referrer_id,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// DisplayName prefers the @username, then the first name, then the id
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Username != nil && *u.Username != "" {
		return "@" + *u.Username
	}
	if u.FirstName != nil && *u.FirstName != "" {
		return *u.FirstName
	}
	return ""
}
