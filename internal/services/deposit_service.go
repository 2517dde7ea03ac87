package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subscription-shop/internal/models"
	"subscription-shop/internal/monitoring"
	"subscription-shop/internal/notify"
	"subscription-shop/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Receipt is the proof of payment attached to a top-up
type Receipt struct {
	Text   string `json:"text"`
	FileID string `json:"file_id"`
}

// ResolveResult reports the outcome of an operator decision
type ResolveResult struct {
	Deposit    *models.DepositRequest `json:"deposit"`
	Balance    int64                  `json:"balance"`
	Commission *CommissionCredit      `json:"commission,omitempty"`
}

// DepositService handles wallet top-ups that need operator approval
type DepositService struct {
	repo      *repository.Repository
	referrals *ReferralService
	notify    *notify.Dispatcher
	log       *zap.Logger
	now       func() time.Time
}

func NewDepositService(repo *repository.Repository, referrals *ReferralService, dispatcher *notify.Dispatcher, log *zap.Logger) *DepositService {
	return &DepositService{
		repo:      repo,
		referrals: referrals,
		notify:    dispatcher,
		log:       log.With(zap.String("component", "deposits")),
		now:       time.Now,
	}
}

// TopUp records a pending deposit request and alerts operators
func (s *DepositService) TopUp(ctx context.Context, userID, amount int64, receipt Receipt) (*models.DepositRequest, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	deposit := &models.DepositRequest{
		ReceiptKey:    uuid.NewString(),
		UserID:        userID,
		Amount:        amount,
		Status:        models.DepositStatusPending,
		ReceiptText:   optional(receipt.Text),
		ReceiptFileID: optional(receipt.FileID),
	}
	if err := s.repo.CreateDeposit(ctx, deposit); err != nil {
		return nil, fmt.Errorf("failed to create deposit request: %w", err)
	}

	s.log.Info("deposit requested", zap.Uint("deposit_id", deposit.ID), zap.Int64("user_id", userID), zap.Int64("amount", amount))
	s.notify.Operators(ctx, msgDepositRequested(deposit))
	return deposit, nil
}

// Approve credits the deposit and pays the referrer's commission
func (s *DepositService) Approve(ctx context.Context, depositID uint) (*ResolveResult, error) {
	return s.Resolve(ctx, depositID, true)
}

// Reject closes the deposit without crediting
func (s *DepositService) Reject(ctx context.Context, depositID uint) (*ResolveResult, error) {
	return s.Resolve(ctx, depositID, false)
}

// Resolve moves a pending request to approved or rejected exactly once.
// Approval credits the owner and the referral commission in the same
// transaction as the status change. A request that is missing or already
// resolved yields ErrNotActionable.
func (s *DepositService) Resolve(ctx context.Context, depositID uint, approve bool) (*ResolveResult, error) {
	status := models.DepositStatusRejected
	if approve {
		status = models.DepositStatusApproved
	}

	result := &ResolveResult{}
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		moved, err := tx.ResolveDepositIfPending(ctx, depositID, status, s.now().UTC())
		if err != nil {
			return err
		}
		if !moved {
			return ErrNotActionable
		}

		deposit, err := tx.GetDepositByID(ctx, depositID)
		if err != nil {
			return err
		}
		result.Deposit = deposit

		if !approve {
			result.Balance, err = tx.GetBalance(ctx, deposit.UserID)
			return err
		}

		result.Balance, err = tx.CreditWallet(ctx, deposit.UserID, deposit.Amount)
		if err != nil {
			return err
		}
		result.Commission, err = s.referrals.applyCommission(ctx, tx, deposit.UserID, deposit.Amount)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotActionable) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve deposit %d: %w", depositID, err)
	}

	monitoring.DepositsResolvedTotal.WithLabelValues(string(status)).Inc()
	s.log.Info("deposit resolved",
		zap.Uint("deposit_id", depositID),
		zap.String("status", string(status)),
		zap.Int64("user_id", result.Deposit.UserID),
	)

	if approve {
		s.notify.User(ctx, result.Deposit.UserID, msgDepositApproved(result.Deposit.Amount, result.Balance))
		s.referrals.afterCommission(ctx, result.Commission)
	} else {
		s.notify.User(ctx, result.Deposit.UserID, msgDepositRejected(result.Deposit))
	}

	return result, nil
}

// ListPending lists deposits awaiting review, newest first
func (s *DepositService) ListPending(ctx context.Context, limit int) ([]*models.DepositRequest, error) {
	return s.repo.ListPendingDeposits(ctx, clampLimit(limit))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
