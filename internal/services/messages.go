package services

import (
	"fmt"
	"time"

	"subscription-shop/internal/calendar"
	"subscription-shop/internal/models"
)

func msgReferralJoined(userID int64) string {
	return fmt.Sprintf("A new user (%d) joined with your referral link.", userID)
}

func msgCommissionPaid(amount, balance int64) string {
	return fmt.Sprintf("Referral commission of %d credited. Balance: %d", amount, balance)
}

func msgDepositRequested(d *models.DepositRequest) string {
	return fmt.Sprintf("New deposit request #%d\nUser: %d\nAmount: %d", d.ID, d.UserID, d.Amount)
}

func msgDepositApproved(amount, balance int64) string {
	return fmt.Sprintf("Your top-up of %d was approved. Balance: %d", amount, balance)
}

func msgDepositRejected(d *models.DepositRequest) string {
	return fmt.Sprintf("Your top-up request #%d of %d was rejected.", d.ID, d.Amount)
}

func msgOrderQueued(o *models.Order) string {
	return fmt.Sprintf("Order #%d (user %d, %d months) is paid and waiting for a link. Pool is empty.", o.ID, o.UserID, o.PlanMonths)
}

func msgAllocationFailed(o *models.Order) string {
	return fmt.Sprintf("Order #%d (user %d, %d months) is paid but a link could not be assigned. It stays queued for the backfill.", o.ID, o.UserID, o.PlanMonths)
}

func msgTokenDelivered(orderID uint, token string) string {
	return fmt.Sprintf("Your order #%d is ready:\n%s", orderID, token)
}

func msgExtended(months int, expiry time.Time, civil *time.Location) string {
	return fmt.Sprintf("Your subscription was extended by %d months. New expiry: %s", months, calendar.Format(expiry, civil))
}

func msgSupportRequest(u *models.User, text string) string {
	name := u.DisplayName()
	if name == "" {
		name = "-"
	}
	return fmt.Sprintf("Support message\nUser: %d (%s)\n\n%s", u.ID, name, text)
}

func msgFromSupport(orderID uint, text string) string {
	return fmt.Sprintf("Message from support about order #%d:\n%s", orderID, text)
}
