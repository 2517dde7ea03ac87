package services

import (
	"context"
	"fmt"

	"subscription-shop/internal/models"
	"subscription-shop/internal/repository"

	"go.uber.org/zap"
)

// UserService handles user-related business logic
type UserService struct {
	repo      *repository.Repository
	referrals *ReferralService
	log       *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(repo *repository.Repository, referrals *ReferralService, log *zap.Logger) *UserService {
	return &UserService{
		repo:      repo,
		referrals: referrals,
		log:       log.With(zap.String("component", "users")),
	}
}

// ContactResult is returned when a user reaches the shop
type ContactResult struct {
	User     *models.User `json:"user"`
	Created  bool         `json:"created"`
	Referred bool         `json:"referred"`
}

// Contact registers the user on first contact and refreshes their profile
// afterwards. A referrer is only linked for new users.
func (s *UserService) Contact(ctx context.Context, userID int64, username, firstName string, referrerID *int64) (*ContactResult, error) {
	user := &models.User{
		ID:        userID,
		Username:  optional(username),
		FirstName: optional(firstName),
	}

	var created bool
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		created, err = tx.UpsertUser(ctx, user)
		if err != nil {
			return err
		}
		if err := tx.EnsureWallet(ctx, userID); err != nil {
			return err
		}
		return tx.EnsureReferralProfit(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	result := &ContactResult{Created: created}
	if created {
		s.log.Info("user registered", zap.Int64("user_id", userID))
	}
	// A referrer is set at most once, so a later contact carrying a
	// referral only links users who had none.
	if referrerID != nil {
		result.Referred, err = s.referrals.LinkReferral(ctx, userID, *referrerID)
		if err != nil {
			return nil, err
		}
	}

	result.User, err = s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err == repository.ErrNotFound {
		return nil, ErrUserNotFound
	}
	return user, err
}
