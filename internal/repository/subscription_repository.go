package repository

import (
	"context"
	"time"

	"subscription-shop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetSubscription returns the user's subscription or ErrNotFound
func (r *Repository) GetSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&sub).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

// InsertSubscription creates the first subscription row for a user. It
// reports false when a row already exists.
func (r *Repository) InsertSubscription(ctx context.Context, userID int64, expiresAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Subscription{
			UserID:    userID,
			ExpiresAt: expiresAt,
			Version:   1,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RenewSubscription sets a new expiry and clears both notification flags,
// provided nobody renewed since version was read.
func (r *Repository) RenewSubscription(ctx context.Context, userID int64, version int64, expiresAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND version = ?", userID, version).
		Updates(map[string]interface{}{
			"expires_at":             expiresAt,
			"reminded_before_expiry": false,
			"notified_expired":       false,
			"version":                gorm.Expr("version + 1"),
			"updated_at":             r.db.NowFunc(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListExpiringSoon returns unreminded subscriptions expiring in (now, until]
func (r *Repository) ListExpiringSoon(ctx context.Context, now, until time.Time, limit int) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	err := r.db.WithContext(ctx).
		Where("reminded_before_expiry = ? AND expires_at > ? AND expires_at <= ?", false, now, until).
		Order("expires_at ASC").
		Limit(limit).
		Find(&subs).Error
	return subs, err
}

// ListExpiredUnnotified returns expired subscriptions not yet announced
func (r *Repository) ListExpiredUnnotified(ctx context.Context, now time.Time, limit int) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	err := r.db.WithContext(ctx).
		Where("notified_expired = ? AND expires_at <= ?", false, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&subs).Error
	return subs, err
}

// MarkReminded sets the pre-expiry flag unless the subscription was renewed
// after it was read
func (r *Repository) MarkReminded(ctx context.Context, userID, version int64) (bool, error) {
	return r.setFlag(ctx, userID, version, "reminded_before_expiry")
}

// MarkExpiredNotified sets the expiry flag unless the subscription was
// renewed after it was read
func (r *Repository) MarkExpiredNotified(ctx context.Context, userID, version int64) (bool, error) {
	return r.setFlag(ctx, userID, version, "notified_expired")
}

func (r *Repository) setFlag(ctx context.Context, userID, version int64, column string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND version = ?", userID, version).
		Update(column, true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
