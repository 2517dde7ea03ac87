package repository

import (
	"context"
	"errors"

	"subscription-shop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertUser inserts the user or refreshes the profile fields. It reports
// whether the row was newly created.
func (r *Repository) UpsertUser(ctx context.Context, user *models.User) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(user)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"username":   user.Username,
			"first_name": user.FirstName,
			"updated_at": r.db.NowFunc(),
		}).Error
	return false, err
}

// GetUserByID retrieves a user by ID
func (r *Repository) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// SetReferrerIfEmpty records the referrer only when none is set yet
func (r *Repository) SetReferrerIfEmpty(ctx context.Context, userID, referrerID int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND referrer_id IS NULL", userID).
		Update("referrer_id", referrerID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CreateReferral inserts the referral edge. It reports false when the
// referred user already has one.
func (r *Repository) CreateReferral(ctx context.Context, referrerID, referredID int64) (bool, error) {
	err := r.db.WithContext(ctx).Create(&models.Referral{
		ReferrerID:     referrerID,
		ReferredUserID: referredID,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountReferrals counts users referred by referrerID
func (r *Repository) CountReferrals(ctx context.Context, referrerID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Referral{}).Where("referrer_id = ?", referrerID).Count(&count).Error
	return count, err
}

// EnsureReferralProfit creates a zero accumulator row
func (r *Repository) EnsureReferralProfit(ctx context.Context, referrerID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ReferralProfit{ReferrerID: referrerID}).Error
}

// AddReferralProfit increments the referrer's accumulated commission
func (r *Repository) AddReferralProfit(ctx context.Context, referrerID, amount int64) error {
	if err := r.EnsureReferralProfit(ctx, referrerID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.ReferralProfit{}).
		Where("referrer_id = ?", referrerID).
		Updates(map[string]interface{}{
			"total_profit": gorm.Expr("total_profit + ?", amount),
			"updated_at":   r.db.NowFunc(),
		}).Error
}

// GetReferralProfit returns the accumulated commission, zero when absent
func (r *Repository) GetReferralProfit(ctx context.Context, referrerID int64) (int64, error) {
	var profit models.ReferralProfit
	err := r.db.WithContext(ctx).Where("referrer_id = ?", referrerID).Take(&profit).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return profit.TotalProfit, nil
}
