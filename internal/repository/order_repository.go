package repository

import (
	"context"
	"strings"
	"time"

	"subscription-shop/internal/models"
)

// CreateOrder creates a new order
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetOrderByID retrieves an order with its owner
func (r *Repository) GetOrderByID(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", orderID).Take(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// MarkOrderDelivered moves a waiting order to delivered. It reports false
// when the order is not waiting for a token.
func (r *Repository) MarkOrderDelivered(ctx context.Context, orderID uint, token string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusWaitingLink).
		Updates(map[string]interface{}{
			"status":         models.OrderStatusDelivered,
			"delivered_link": token,
			"delivered_at":   at,
			"updated_at":     at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListWaitingOrders returns orders waiting for a token, oldest first
func (r *Repository) ListWaitingOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	var orders []*models.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("status = ?", models.OrderStatusWaitingLink).
		Order("id ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// OrderFilter narrows ListOrders
type OrderFilter struct {
	Since  *time.Time
	Status models.OrderStatus
	Limit  int
}

// ListOrders lists orders newest first
func (r *Repository) ListOrders(ctx context.Context, filter OrderFilter) ([]*models.Order, error) {
	query := r.db.WithContext(ctx).Preload("User")
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var orders []*models.Order
	err := query.Order("id DESC").Limit(filter.Limit).Find(&orders).Error
	return orders, err
}

// SearchOrdersByID matches the order id or the owner id
func (r *Repository) SearchOrdersByID(ctx context.Context, id int64, limit int) ([]*models.Order, error) {
	var orders []*models.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ? OR user_id = ?", id, id).
		Order("id DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// SearchOrdersByUsername matches a case-insensitive username prefix
func (r *Repository) SearchOrdersByUsername(ctx context.Context, prefix string, limit int) ([]*models.Order, error) {
	var orders []*models.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Select("orders.*").
		Joins("JOIN users ON users.id = orders.user_id").
		Where(`LOWER(users.username) LIKE ? ESCAPE '\'`, likeEscaper.Replace(strings.ToLower(prefix))+"%").
		Order("orders.id DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// ListUserOrders lists a user's orders, newest first
func (r *Repository) ListUserOrders(ctx context.Context, userID int64, limit int) ([]*models.Order, error) {
	var orders []*models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
