package services

import (
	"context"
	"fmt"

	"subscription-shop/internal/repository"
)

// WalletService owns balance reads and the atomic credit/debit operations
type WalletService struct {
	repo *repository.Repository
}

func NewWalletService(repo *repository.Repository) *WalletService {
	return &WalletService{repo: repo}
}

// Balance returns the user's balance, zero for users without a wallet
func (s *WalletService) Balance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// Credit adds a positive amount, creating the wallet if needed
func (s *WalletService) Credit(ctx context.Context, userID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var balance int64
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		balance, err = tx.CreditWallet(ctx, userID, amount)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to credit wallet: %w", err)
	}
	return balance, nil
}

// TryDebit subtracts amount only if the balance covers it. On refusal the
// balance is unchanged and returned as is.
func (s *WalletService) TryDebit(ctx context.Context, userID, amount int64) (bool, int64, error) {
	if amount <= 0 {
		return false, 0, ErrInvalidAmount
	}

	var (
		ok      bool
		balance int64
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		ok, balance, err = tx.DebitWalletIfSufficient(ctx, userID, amount)
		return err
	})
	if err != nil {
		return false, 0, fmt.Errorf("failed to debit wallet: %w", err)
	}
	return ok, balance, nil
}
