package services

import "errors"

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotActionable     = errors.New("request is not actionable")
	ErrOrderNotFound     = errors.New("order not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidPlan       = errors.New("unknown plan")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrLinkNotEditable   = errors.New("link is missing or already used")
	ErrDuplicateLink     = errors.New("link already exists")
	ErrEmptyLink         = errors.New("link is empty")
	ErrSelfReferral      = errors.New("cannot refer yourself")
	ErrAlreadyReferred   = errors.New("user already has a referrer")
	ErrOrderNotWaiting   = errors.New("order is not waiting for a link")
	ErrEmptyMessage      = errors.New("message is empty")
)
