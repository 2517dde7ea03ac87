package repository

import (
	"context"

	"subscription-shop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureWallet creates a zero wallet if the user has none
func (r *Repository) EnsureWallet(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Wallet{UserID: userID}).Error
}

// GetBalance returns the user's balance, zero when no wallet exists
func (r *Repository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&wallet).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// CreditWallet adds amount to the balance and returns the new balance
func (r *Repository) CreditWallet(ctx context.Context, userID, amount int64) (int64, error) {
	if err := r.EnsureWallet(ctx, userID); err != nil {
		return 0, err
	}

	err := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": r.db.NowFunc(),
		}).Error
	if err != nil {
		return 0, err
	}

	return r.GetBalance(ctx, userID)
}

// DebitWalletIfSufficient subtracts amount only when the balance covers it.
// The check and the write are one conditional statement. It returns whether
// the debit happened and the balance after the attempt.
func (r *Repository) DebitWalletIfSufficient(ctx context.Context, userID, amount int64) (bool, int64, error) {
	if err := r.EnsureWallet(ctx, userID); err != nil {
		return false, 0, err
	}

	res := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": r.db.NowFunc(),
		})
	if res.Error != nil {
		return false, 0, res.Error
	}

	balance, err := r.GetBalance(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	return res.RowsAffected == 1, balance, nil
}
