package repository

import (
	"context"
	"errors"
	"time"

	"subscription-shop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateToken is returned when a token already exists in the pool
var ErrDuplicateToken = errors.New("token already exists")

// InsertLink adds a token to the pool. It reports false when the token is
// already present.
func (r *Repository) InsertLink(ctx context.Context, token string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Link{Token: token})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// OldestAvailableLink returns the earliest added unused token. Inside a
// transaction the row stays locked until commit and rows locked by other
// allocators are skipped. Drivers without row locks ignore the clause.
func (r *Repository) OldestAvailableLink(ctx context.Context) (*models.Link, error) {
	var link models.Link
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("is_used = ?", false).
		Order("id ASC").
		Take(&link).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &link, nil
}

// ClaimLink marks an unused token as used by the order. It reports false
// if another writer claimed it first.
func (r *Repository) ClaimLink(ctx context.Context, linkID, orderID uint, userID int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Link{}).
		Where("id = ? AND is_used = ?", linkID, false).
		Updates(map[string]interface{}{
			"is_used":          true,
			"used_by_order_id": orderID,
			"used_by_user_id":  userID,
			"used_at":          at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteUnusedLink removes a token that has not been handed out
func (r *Repository) DeleteUnusedLink(ctx context.Context, linkID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND is_used = ?", linkID, false).
		Delete(&models.Link{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateUnusedLink replaces the value of a token that has not been handed
// out. It returns ErrDuplicateToken when the new value is already pooled.
func (r *Repository) UpdateUnusedLink(ctx context.Context, linkID uint, token string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Link{}).
		Where("id = ? AND is_used = ?", linkID, false).
		Update("token", token)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, ErrDuplicateToken
		}
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// LinkExists reports whether the token is already pooled
func (r *Repository) LinkExists(ctx context.Context, token string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Link{}).Where("token = ?", token).Count(&count).Error
	return count > 0, err
}

// CountLinks returns available and used token counts
func (r *Repository) CountLinks(ctx context.Context) (available, used int64, err error) {
	if err = r.db.WithContext(ctx).Model(&models.Link{}).Where("is_used = ?", false).Count(&available).Error; err != nil {
		return 0, 0, err
	}
	if err = r.db.WithContext(ctx).Model(&models.Link{}).Where("is_used = ?", true).Count(&used).Error; err != nil {
		return 0, 0, err
	}
	return available, used, nil
}

// ListAvailableLinks lists unused tokens in allocation order
func (r *Repository) ListAvailableLinks(ctx context.Context, limit int) ([]*models.Link, error) {
	var links []*models.Link
	err := r.db.WithContext(ctx).
		Where("is_used = ?", false).
		Order("id ASC").
		Limit(limit).
		Find(&links).Error
	return links, err
}

// ListLinks lists all tokens, newest first
func (r *Repository) ListLinks(ctx context.Context, limit int) ([]*models.Link, error) {
	var links []*models.Link
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&links).Error
	return links, err
}
