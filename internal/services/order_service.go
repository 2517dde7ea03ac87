package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subscription-shop/internal/config"
	"subscription-shop/internal/models"
	"subscription-shop/internal/monitoring"
	"subscription-shop/internal/notify"
	"subscription-shop/internal/repository"

	"go.uber.org/zap"
)

// PurchaseStatus is the outcome of a purchase attempt
type PurchaseStatus string

const (
	PurchaseInsufficientFunds PurchaseStatus = "insufficient_funds"
	PurchaseQueued            PurchaseStatus = "queued"
	PurchaseDelivered         PurchaseStatus = "delivered"
)

// PurchaseResult reports what a purchase did
type PurchaseResult struct {
	Status    PurchaseStatus `json:"status"`
	Price     int64          `json:"price"`
	Balance   int64          `json:"balance"`
	OrderID   uint           `json:"order_id,omitempty"`
	Token     string         `json:"token,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

// Quote is the price and resulting expiry of a plan, without side effects
type Quote struct {
	Months    int       `json:"months"`
	Price     int64     `json:"price"`
	Balance   int64     `json:"balance"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FulfillReport summarizes a backfill run
type FulfillReport struct {
	Sent      int   `json:"sent"`
	Remaining int64 `json:"remaining"`
}

// fulfillBatch matches the page size pending orders are read in
const fulfillBatch = 50

// OrderService sells plans, renews subscriptions and delivers tokens
type OrderService struct {
	repo   *repository.Repository
	links  *LinkService
	plans  config.Plans
	engine renewalEngine
	notify *notify.Dispatcher
	log    *zap.Logger
	now    func() time.Time
}

func NewOrderService(
	repo *repository.Repository,
	links *LinkService,
	plans config.Plans,
	civil *time.Location,
	dispatcher *notify.Dispatcher,
	log *zap.Logger,
) *OrderService {
	return &OrderService{
		repo:   repo,
		links:  links,
		plans:  plans,
		engine: renewalEngine{civil: civil},
		notify: dispatcher,
		log:    log.With(zap.String("component", "orders")),
		now:    time.Now,
	}
}

// Plans returns the plan table
func (s *OrderService) Plans() config.Plans {
	return s.plans
}

// Purchase debits the plan price, records the order and renews the
// subscription in one transaction, then tries to deliver a token. A failed
// delivery leaves the order waiting for the backfill.
func (s *OrderService) Purchase(ctx context.Context, userID int64, months int) (*PurchaseResult, error) {
	price, ok := s.plans.Price(months)
	if !ok {
		return nil, ErrInvalidPlan
	}

	now := s.now().UTC()
	result := &PurchaseResult{Price: price}
	order := &models.Order{
		UserID:     userID,
		PlanMonths: months,
		Amount:     price,
		Status:     models.OrderStatusWaitingLink,
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		debited, balance, err := tx.DebitWalletIfSufficient(ctx, userID, price)
		if err != nil {
			return err
		}
		result.Balance = balance
		if !debited {
			result.Status = PurchaseInsufficientFunds
			return nil
		}

		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		expiry, err := s.engine.renew(ctx, tx, userID, months, now)
		if err != nil {
			return err
		}
		result.ExpiresAt = &expiry
		return nil
	})
	if err != nil {
		monitoring.PurchasesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to purchase plan: %w", err)
	}
	if result.Status == PurchaseInsufficientFunds {
		monitoring.PurchasesTotal.WithLabelValues(string(PurchaseInsufficientFunds)).Inc()
		return result, nil
	}
	result.OrderID = order.ID

	token, delivered, err := s.links.Allocate(ctx, order.ID, userID)
	result.Status, result.Token = s.settleDelivery(ctx, order, token, delivered, err)

	monitoring.PurchasesTotal.WithLabelValues(string(result.Status)).Inc()
	s.log.Info("plan purchased",
		zap.Uint("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.Int("months", months),
		zap.String("status", string(result.Status)),
	)
	return result, nil
}

// settleDelivery reports the outcome of the allocation that follows a paid
// purchase and sends the matching notices
func (s *OrderService) settleDelivery(ctx context.Context, order *models.Order, token string, delivered bool, allocErr error) (PurchaseStatus, string) {
	switch {
	case delivered:
		s.notify.User(ctx, order.UserID, msgTokenDelivered(order.ID, token))
		return PurchaseDelivered, token

	case errors.Is(allocErr, ErrOrderNotWaiting):
		// a concurrent backfill delivered the order and told the owner
		current, err := s.repo.GetOrderByID(ctx, order.ID)
		if err == nil && current.Status == models.OrderStatusDelivered && current.DeliveredLink != nil {
			return PurchaseDelivered, *current.DeliveredLink
		}
		s.log.Warn("order left waiting after allocation", zap.Uint("order_id", order.ID), zap.Error(allocErr))
		return PurchaseQueued, ""

	case allocErr != nil:
		s.log.Warn("link allocation failed, order stays queued", zap.Uint("order_id", order.ID), zap.Error(allocErr))
		s.notify.Operators(ctx, msgAllocationFailed(order))
		return PurchaseQueued, ""

	default:
		s.notify.Operators(ctx, msgOrderQueued(order))
		return PurchaseQueued, ""
	}
}

// Quote previews a purchase
func (s *OrderService) Quote(ctx context.Context, userID int64, months int) (*Quote, error) {
	price, ok := s.plans.Price(months)
	if !ok {
		return nil, ErrInvalidPlan
	}

	sub, err := s.repo.GetSubscription(ctx, userID)
	if err != nil && err != repository.ErrNotFound {
		return nil, err
	}
	balance, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Quote{
		Months:    months,
		Price:     price,
		Balance:   balance,
		ExpiresAt: s.engine.nextExpiry(sub, months, s.now().UTC()),
	}, nil
}

// Extend renews the owner of orderID by months without charging
func (s *OrderService) Extend(ctx context.Context, orderID uint, months int) (time.Time, error) {
	if months <= 0 {
		return time.Time{}, ErrInvalidAmount
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err == repository.ErrNotFound {
		return time.Time{}, ErrOrderNotFound
	}
	if err != nil {
		return time.Time{}, err
	}

	var expiry time.Time
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		expiry, err = s.engine.renew(ctx, tx, order.UserID, months, s.now().UTC())
		return err
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to extend order %d: %w", orderID, err)
	}

	s.log.Info("subscription extended", zap.Uint("order_id", orderID), zap.Int64("user_id", order.UserID), zap.Int("months", months))
	s.notify.User(ctx, order.UserID, msgExtended(months, expiry, s.engine.civil))
	return expiry, nil
}

// FulfillPending delivers tokens to waiting orders, oldest first, until the
// queue or the pool runs out
func (s *OrderService) FulfillPending(ctx context.Context) (*FulfillReport, error) {
	report := &FulfillReport{}

	for {
		orders, err := s.repo.ListWaitingOrders(ctx, fulfillBatch)
		if err != nil {
			return nil, err
		}
		if len(orders) == 0 {
			break
		}

		exhausted := false
		for _, order := range orders {
			token, ok, err := s.links.Allocate(ctx, order.ID, order.UserID)
			if errors.Is(err, ErrOrderNotWaiting) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if !ok {
				exhausted = true
				break
			}

			report.Sent++
			s.notify.User(ctx, order.UserID, msgTokenDelivered(order.ID, token))
		}
		if exhausted {
			break
		}
	}

	available, _, err := s.links.Counts(ctx)
	if err != nil {
		return nil, err
	}
	report.Remaining = available

	s.log.Info("pending orders fulfilled", zap.Int("sent", report.Sent), zap.Int64("remaining", report.Remaining))
	return report, nil
}

// Status returns the user's subscription and recent orders
func (s *OrderService) Status(ctx context.Context, userID int64, limit int) (*SubscriptionStatus, error) {
	status := &SubscriptionStatus{UserID: userID}

	sub, err := s.repo.GetSubscription(ctx, userID)
	switch {
	case err == repository.ErrNotFound:
	case err != nil:
		return nil, err
	default:
		status.ExpiresAt = &sub.ExpiresAt
		status.Active = sub.IsActive(s.now())
	}

	status.Orders, err = s.repo.ListUserOrders(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return status, nil
}
