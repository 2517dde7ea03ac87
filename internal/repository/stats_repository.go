package repository

import (
	"context"
	"time"

	"subscription-shop/internal/models"
)

// DashboardCounters collects the operator overview. dayStart bounds the
// "today" counters.
func (r *Repository) DashboardCounters(ctx context.Context, dayStart time.Time) (*models.DashboardCounters, error) {
	db := r.db.WithContext(ctx)
	c := &models.DashboardCounters{}

	counts := []struct {
		dest  *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&c.UsersTotal, &models.User{}, "", nil},
		{&c.UsersToday, &models.User{}, "created_at >= ?", []interface{}{dayStart}},
		{&c.ReferralsTotal, &models.Referral{}, "", nil},
		{&c.OrdersToday, &models.Order{}, "created_at >= ?", []interface{}{dayStart}},
		{&c.PendingOrders, &models.Order{}, "status = ?", []interface{}{models.OrderStatusWaitingLink}},
		{&c.PendingDeposits, &models.DepositRequest{}, "status = ?", []interface{}{models.DepositStatusPending}},
		{&c.LinksAvailable, &models.Link{}, "is_used = ?", []interface{}{false}},
		{&c.LinksUsed, &models.Link{}, "is_used = ?", []interface{}{true}},
	}
	for _, q := range counts {
		query := db.Model(q.model)
		if q.where != "" {
			query = query.Where(q.where, q.args...)
		}
		if err := query.Count(q.dest).Error; err != nil {
			return nil, err
		}
	}

	if err := db.Model(&models.ReferralProfit{}).
		Select("COALESCE(SUM(total_profit), 0)").
		Scan(&c.CommissionPaid).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).
		Where("created_at >= ?", dayStart).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&c.RevenueToday).Error; err != nil {
		return nil, err
	}

	return c, nil
}
