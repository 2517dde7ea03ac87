package services

import (
	"context"
	"fmt"

	"subscription-shop/internal/models"
	"subscription-shop/internal/monitoring"
	"subscription-shop/internal/notify"
	"subscription-shop/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ReferralService struct {
	repo      *repository.Repository
	rate      decimal.Decimal
	inviteBot string
	notify    *notify.Dispatcher
	log       *zap.Logger
}

// NewReferralService creates the referral service. inviteBot is the chat
// bot's username used in invite links; empty disables them.
func NewReferralService(repo *repository.Repository, rate decimal.Decimal, inviteBot string, dispatcher *notify.Dispatcher, log *zap.Logger) *ReferralService {
	return &ReferralService{
		repo:      repo,
		rate:      rate,
		inviteBot: inviteBot,
		notify:    dispatcher,
		log:       log.With(zap.String("component", "referral")),
	}
}

// Commission is the referrer's share of a deposit, rounded down
func (s *ReferralService) Commission(amount int64) int64 {
	return decimal.NewFromInt(amount).Mul(s.rate).Floor().IntPart()
}

// LinkReferral sets the user's referrer exactly once. Self referral and an
// already present referrer both return false without changes.
func (s *ReferralService) LinkReferral(ctx context.Context, userID, referrerID int64) (bool, error) {
	if userID == referrerID {
		return false, nil
	}

	set, err := s.repo.SetReferrerIfEmpty(ctx, userID, referrerID)
	if err != nil {
		return false, fmt.Errorf("failed to set referrer: %w", err)
	}
	if !set {
		return false, nil
	}

	created, err := s.repo.CreateReferral(ctx, referrerID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to record referral: %w", err)
	}
	if !created {
		s.log.Warn("referral edge already present", zap.Int64("user_id", userID), zap.Int64("referrer_id", referrerID))
		return false, nil
	}

	s.log.Info("referral linked", zap.Int64("user_id", userID), zap.Int64("referrer_id", referrerID))
	s.notify.User(ctx, referrerID, msgReferralJoined(userID))
	return true, nil
}

// Apply links a referral and reports why it was refused
func (s *ReferralService) Apply(ctx context.Context, userID, referrerID int64) error {
	if userID == referrerID {
		return ErrSelfReferral
	}
	if _, err := s.repo.GetUserByID(ctx, referrerID); err != nil {
		if err == repository.ErrNotFound {
			return ErrUserNotFound
		}
		return err
	}

	ok, err := s.LinkReferral(ctx, userID, referrerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyReferred
	}
	return nil
}

// CommissionCredit describes a commission paid on a deposit
type CommissionCredit struct {
	ReferrerID int64 `json:"referrer_id"`
	Amount     int64 `json:"amount"`
	Balance    int64 `json:"balance"`
}

// applyCommission credits the referrer of userID inside tx. It returns nil
// when there is no referrer or the commission rounds to zero.
func (s *ReferralService) applyCommission(ctx context.Context, tx *repository.Repository, userID, amount int64) (*CommissionCredit, error) {
	user, err := tx.GetUserByID(ctx, userID)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.ReferrerID == nil || *user.ReferrerID == userID {
		return nil, nil
	}

	profit := s.Commission(amount)
	if profit <= 0 {
		return nil, nil
	}

	referrerID := *user.ReferrerID
	balance, err := tx.CreditWallet(ctx, referrerID, profit)
	if err != nil {
		return nil, err
	}
	if err := tx.AddReferralProfit(ctx, referrerID, profit); err != nil {
		return nil, err
	}

	return &CommissionCredit{ReferrerID: referrerID, Amount: profit, Balance: balance}, nil
}

// afterCommission runs once the crediting transaction committed
func (s *ReferralService) afterCommission(ctx context.Context, c *CommissionCredit) {
	if c == nil {
		return
	}
	monitoring.ReferralCommissionPaid.Add(float64(c.Amount))
	s.log.Info("commission paid", zap.Int64("referrer_id", c.ReferrerID), zap.Int64("amount", c.Amount))
	s.notify.User(ctx, c.ReferrerID, msgCommissionPaid(c.Amount, c.Balance))
}

// InviteLink is the bot start link carrying userID as the referral payload
func (s *ReferralService) InviteLink(userID int64) string {
	if s.inviteBot == "" {
		return ""
	}
	return fmt.Sprintf("https://t.me/%s?start=%d", s.inviteBot, userID)
}

// Stats returns the referral count, accumulated commission and invite link
func (s *ReferralService) Stats(ctx context.Context, userID int64) (*models.ReferralStats, error) {
	count, err := s.repo.CountReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}
	profit, err := s.repo.GetReferralProfit(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.ReferralStats{
		UserID:        userID,
		ReferralCount: count,
		TotalProfit:   profit,
		InviteLink:    s.InviteLink(userID),
	}, nil
}
