package services

import (
	"context"
	"fmt"
	"time"

	"subscription-shop/internal/calendar"
	"subscription-shop/internal/models"
	"subscription-shop/internal/repository"
)

const maxRenewAttempts = 16

// SubscriptionStatus is a user's entitlement with their order history
type SubscriptionStatus struct {
	UserID    int64           `json:"user_id"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Active    bool            `json:"active"`
	Orders    []*models.Order `json:"orders"`
}

// renewalEngine extends subscriptions by whole civil months
type renewalEngine struct {
	civil *time.Location
}

// nextExpiry picks the later of now and the current expiry as the base and
// adds months in the civil calendar. Expiries are kept at second precision.
func (e renewalEngine) nextExpiry(sub *models.Subscription, months int, now time.Time) time.Time {
	base := now
	if sub != nil && sub.ExpiresAt.After(now) {
		base = sub.ExpiresAt
	}
	return calendar.AddMonths(base.In(e.civil), months).UTC().Truncate(time.Second)
}

// renew extends userID's subscription inside tx and returns the new expiry.
// Concurrent renewals are serialized through the subscription version.
func (e renewalEngine) renew(ctx context.Context, tx *repository.Repository, userID int64, months int, now time.Time) (time.Time, error) {
	for attempt := 0; attempt < maxRenewAttempts; attempt++ {
		sub, err := tx.GetSubscription(ctx, userID)
		if err == repository.ErrNotFound {
			expiry := e.nextExpiry(nil, months, now)
			inserted, err := tx.InsertSubscription(ctx, userID, expiry)
			if err != nil {
				return time.Time{}, err
			}
			if inserted {
				return expiry, nil
			}
			continue
		}
		if err != nil {
			return time.Time{}, err
		}

		expiry := e.nextExpiry(sub, months, now)
		renewed, err := tx.RenewSubscription(ctx, userID, sub.Version, expiry)
		if err != nil {
			return time.Time{}, err
		}
		if renewed {
			return expiry, nil
		}
	}
	return time.Time{}, fmt.Errorf("subscription renewal for user %d lost %d races", userID, maxRenewAttempts)
}
