package models

import (
	"time"
)

// OrderStatus represents the delivery state of an order
type OrderStatus string

const (
	OrderStatusWaitingLink OrderStatus = "paid_waiting_link"
	OrderStatusDelivered   OrderStatus = "delivered"
	OrderStatusCancelled   OrderStatus = "cancelled"
)

// Order is a paid plan purchase
type Order struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        int64       `gorm:"not null;index" json:"user_id"`
	User          *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PlanMonths    int         `gorm:"not null" json:"plan_months"`
	Amount        int64       `gorm:"not null" json:"amount"`
	Status        OrderStatus `gorm:"size:32;not null;index" json:"status"`
	DeliveredLink *string     `gorm:"size:1024" json:"delivered_link,omitempty"`
	DeliveredAt   *time.Time  `json:"delivered_at,omitempty"`
	CreatedAt     time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}
