package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"subscription-shop/internal/models"
	"subscription-shop/internal/notify"
	"subscription-shop/internal/repository"

	"go.uber.org/zap"
)

// Timeframe bounds order listings
type Timeframe string

const (
	TimeframeToday Timeframe = "today"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
	TimeframeAll   Timeframe = "all"
)

// AdminService backs the operator views
type AdminService struct {
	repo   *repository.Repository
	notify *notify.Dispatcher
	log    *zap.Logger
	now    func() time.Time
}

func NewAdminService(repo *repository.Repository, dispatcher *notify.Dispatcher, log *zap.Logger) *AdminService {
	return &AdminService{
		repo:   repo,
		notify: dispatcher,
		log:    log.With(zap.String("component", "admin")),
		now:    time.Now,
	}
}

// Dashboard returns the operator counters. "Today" starts at UTC midnight.
func (s *AdminService) Dashboard(ctx context.Context) (*models.DashboardCounters, error) {
	return s.repo.DashboardCounters(ctx, startOfDay(s.now()))
}

// ListOrders lists orders in a timeframe, optionally by status
func (s *AdminService) ListOrders(ctx context.Context, timeframe Timeframe, status models.OrderStatus, limit int) ([]*models.Order, error) {
	filter := repository.OrderFilter{Status: status, Limit: clampLimit(limit)}

	now := s.now().UTC()
	var since time.Time
	switch timeframe {
	case TimeframeToday:
		since = startOfDay(now)
	case TimeframeWeek:
		since = now.Add(-7 * 24 * time.Hour)
	case TimeframeMonth:
		since = now.Add(-30 * 24 * time.Hour)
	}
	if !since.IsZero() {
		filter.Since = &since
	}

	return s.repo.ListOrders(ctx, filter)
}

// PendingOrders lists orders still waiting for a token, oldest first
func (s *AdminService) PendingOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	return s.repo.ListWaitingOrders(ctx, clampLimit(limit))
}

// SearchOrders matches a numeric query against order and owner ids and any
// other query against the owner's username prefix
func (s *AdminService) SearchOrders(ctx context.Context, query string, limit int) ([]*models.Order, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.Order{}, nil
	}
	limit = clampLimit(limit)

	if id, err := strconv.ParseInt(query, 10, 64); err == nil {
		return s.repo.SearchOrdersByID(ctx, id, limit)
	}
	return s.repo.SearchOrdersByUsername(ctx, strings.TrimPrefix(query, "@"), limit)
}

// GetOrder retrieves an order with its owner
func (s *AdminService) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err == repository.ErrNotFound {
		return nil, ErrOrderNotFound
	}
	return order, err
}

// MessageOrderOwner relays an operator message to the owner of an order
func (s *AdminService) MessageOrderOwner(ctx context.Context, orderID uint, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	s.log.Info("operator message", zap.Uint("order_id", orderID), zap.Int64("user_id", order.UserID))
	s.notify.User(ctx, order.UserID, msgFromSupport(orderID, text))
	return nil
}

// SupportRequest forwards a user's message to every operator
func (s *AdminService) SupportRequest(ctx context.Context, userID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err == repository.ErrNotFound {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	s.log.Info("support request", zap.Int64("user_id", userID))
	s.notify.Operators(ctx, msgSupportRequest(user, text))
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
