package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"subscription-shop/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopUpNotifiesOperators(t *testing.T) {
	shop := newTestShop(t)
	ctx := context.Background()
	shop.addUser(t, 5, "payer", nil)

	_, err := shop.deposits.TopUp(ctx, 5, 0, Receipt{})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	deposit, err := shop.deposits.TopUp(ctx, 5, 70000, Receipt{Text: "card 1234", FileID: "photo-1"})
	require.NoError(t, err)
	assert.Equal(t, models.DepositStatusPending, deposit.Status)
	assert.NotEmpty(t, deposit.ReceiptKey)
	require.NotNil(t, deposit.ReceiptText)
	assert.Equal(t, "card 1234", *deposit.ReceiptText)

	assert.True(t, shop.notifier.contains(operatorID, "70000"))

	pending, err := shop.deposits.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].User)
	assert.Equal(t, "@payer", pending[0].User.DisplayName())
}

func TestApproveCreditsOwnerAndReferrer(t *testing.T) {
	shop := newTestShop(t)
	ctx := context.Background()
	shop.addUser(t, 1, "referrer", nil)
	shop.addUser(t, 2, "referred", int64Ptr(1))

	deposit, err := shop.deposits.TopUp(ctx, 2, 100000, Receipt{Text: "paid"})
	require.NoError(t, err)

	result, err := shop.deposits.Approve(ctx, deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DepositStatusApproved, result.Deposit.Status)
	assert.NotNil(t, result.Deposit.ResolvedAt)
	assert.Equal(t, int64(100000), result.Balance)
	require.NotNil(t, result.Commission)
	assert.Equal(t, int64(1), result.Commission.ReferrerID)
	assert.Equal(t, int64(15000), result.Commission.Amount)

	referrerBalance, err := shop.wallets.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), referrerBalance)

	stats, err := shop.referrals.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), stats.TotalProfit)

	assert.True(t, shop.notifier.contains(2, "approved"))
	assert.True(t, shop.notifier.contains(1, "15000"))

	_, err = shop.deposits.Approve(ctx, deposit.ID)
	assert.ErrorIs(t, err, ErrNotActionable)
	_, err = shop.deposits.Reject(ctx, deposit.ID)
	assert.ErrorIs(t, err, ErrNotActionable)
	_, err = shop.deposits.Approve(ctx, 4040)
	assert.ErrorIs(t, err, ErrNotActionable)

	balance, err := shop.wallets.Balance(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), balance, "credited exactly once")
}

func TestRejectDoesNotCredit(t *testing.T) {
	shop := newTestShop(t)
	ctx := context.Background()
	shop.addUser(t, 1, "referrer", nil)
	shop.addUser(t, 2, "referred", int64Ptr(1))

	deposit, err := shop.deposits.TopUp(ctx, 2, 50000, Receipt{})
	require.NoError(t, err)

	result, err := shop.deposits.Reject(ctx, deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DepositStatusRejected, result.Deposit.Status)
	assert.Nil(t, result.Commission)
	assert.Equal(t, int64(0), result.Balance)

	referrerBalance, err := shop.wallets.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), referrerBalance)
	assert.True(t, shop.notifier.contains(2, "rejected"))
}

func TestApproveWithoutReferrerOrBelowOneUnit(t *testing.T) {
	shop := newTestShop(t)
	ctx := context.Background()
	shop.addUser(t, 1, "referrer", nil)
	shop.addUser(t, 2, "referred", int64Ptr(1))
	shop.addUser(t, 3, "loner", nil)

	small, err := shop.deposits.TopUp(ctx, 2, 6, Receipt{})
	require.NoError(t, err)
	result, err := shop.deposits.Approve(ctx, small.ID)
	require.NoError(t, err)
	assert.Nil(t, result.Commission)

	alone, err := shop.deposits.TopUp(ctx, 3, 100000, Receipt{})
	require.NoError(t, err)
	result, err = shop.deposits.Approve(ctx, alone.ID)
	require.NoError(t, err)
	assert.Nil(t, result.Commission)

	stats, err := shop.referrals.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalProfit)
}

func TestConcurrentApproveIsOneShot(t *testing.T) {
	shop := newTestShop(t)
	ctx := context.Background()
	shop.addUser(t, 1, "referrer", nil)
	shop.addUser(t, 2, "referred", int64Ptr(1))

	deposit, err := shop.deposits.TopUp(ctx, 2, 100000, Receipt{})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		succeeded int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(approve bool) {
			defer wg.Done()
			_, err := shop.deposits.Resolve(ctx, deposit.ID, approve)
			if err == nil {
				atomic.AddInt32(&succeeded, 1)
				return
			}
			assert.ErrorIs(t, err, ErrNotActionable)
		}(i%2 == 0)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded)

	stored, err := shop.repo.GetDepositByID(ctx, deposit.ID)
	require.NoError(t, err)

	balance, err := shop.wallets.Balance(ctx, 2)
	require.NoError(t, err)
	referrerBalance, err := shop.wallets.Balance(ctx, 1)
	require.NoError(t, err)

	if stored.Status == models.DepositStatusApproved {
		assert.Equal(t, int64(100000), balance)
		assert.Equal(t, int64(15000), referrerBalance)
	} else {
		assert.Equal(t, models.DepositStatusRejected, stored.Status)
		assert.Equal(t, int64(0), balance)
		assert.Equal(t, int64(0), referrerBalance)
	}
}

func TestApproveKeepsCreditsWhenNotificationsFail(t *testing.T) {
	shop := newTestShop(t)
	ctx := context.Background()
	shop.addUser(t, 1, "referrer", nil)
	shop.addUser(t, 2, "referred", int64Ptr(1))
	shop.notifier.failFor = map[int64]bool{1: true, 2: true}

	deposit, err := shop.deposits.TopUp(ctx, 2, 100000, Receipt{Text: "paid"})
	require.NoError(t, err)

	result, err := shop.deposits.Approve(ctx, deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), result.Balance)

	assert.Empty(t, shop.notifier.messagesFor(1))
	assert.Empty(t, shop.notifier.messagesFor(2))

	ownerBalance, err := shop.wallets.Balance(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), ownerBalance)

	referrerBalance, err := shop.wallets.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), referrerBalance)

	stats, err := shop.referrals.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), stats.TotalProfit)

	stored, err := shop.repo.GetDepositByID(ctx, deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DepositStatusApproved, stored.Status)
}
