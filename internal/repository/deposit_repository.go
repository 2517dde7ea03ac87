package repository

import (
	"context"
	"time"

	"subscription-shop/internal/models"
)

// CreateDeposit creates a new top-up request
func (r *Repository) CreateDeposit(ctx context.Context, deposit *models.DepositRequest) error {
	return r.db.WithContext(ctx).Create(deposit).Error
}

// GetDepositByID retrieves a deposit request with its owner
func (r *Repository) GetDepositByID(ctx context.Context, depositID uint) (*models.DepositRequest, error) {
	var deposit models.DepositRequest
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", depositID).Take(&deposit).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &deposit, nil
}

// ResolveDepositIfPending moves a pending request to status. It reports
// false when the request is missing or already resolved.
func (r *Repository) ResolveDepositIfPending(ctx context.Context, depositID uint, status models.DepositStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.DepositRequest{}).
		Where("id = ? AND status = ?", depositID, models.DepositStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListPendingDeposits lists requests awaiting review, newest first
func (r *Repository) ListPendingDeposits(ctx context.Context, limit int) ([]*models.DepositRequest, error) {
	var deposits []*models.DepositRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("status = ?", models.DepositStatusPending).
		Order("id DESC").
		Limit(limit).
		Find(&deposits).Error
	return deposits, err
}
