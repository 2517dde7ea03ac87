package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionRoundsDown(t *testing.T) {
	shop := newTestShop(t)

	assert.Equal(t, int64(15000), shop.referrals.Commission(100000))
	assert.Equal(t, int64(14), shop.referrals.Commission(99))
	assert.Equal(t, int64(0), shop.referrals.Commission(6))
}

func TestLinkReferralOnce(t *testing.T) {
	shop := newTestShop(t)
	ctx := context.Background()
	shop.addUser(t, 1, "alice", nil)
	shop.addUser(t, 2, "bob", nil)
	shop.addUser(t, 3, "carol", nil)

	ok, err := shop.referrals.LinkReferral(ctx, 2, 2)
	require.NoError(t, err)
	assert.False(t, ok, "self referral")

	ok, err = shop.referrals.LinkReferral(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = shop.referrals.LinkReferral(ctx, 2, 3)
	require.NoError(t, err)
	assert.False(t, ok, "referrer is immutable")

	user, err := shop.users.GetUserByID(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, user.ReferrerID)
	assert.Equal(t, int64(1), *user.ReferrerID)

	assert.Len(t, shop.notifier.messagesFor(1), 1)
	assert.Empty(t, shop.notifier.messagesFor(3))

	stats, err := shop.referrals.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ReferralCount)
	assert.Equal(t, int64(0), stats.TotalProfit)
	assert.Equal(t, "https://t.me/shop_bot?start=1", stats.InviteLink)
}

func TestApplyReferralErrors(t *testing.T) {
	shop := newTestShop(t)
	ctx := context.Background()
	shop.addUser(t, 1, "alice", nil)
	shop.addUser(t, 2, "bob", nil)

	assert.ErrorIs(t, shop.referrals.Apply(ctx, 2, 2), ErrSelfReferral)
	assert.ErrorIs(t, shop.referrals.Apply(ctx, 2, 42), ErrUserNotFound)
	require.NoError(t, shop.referrals.Apply(ctx, 2, 1))
	assert.ErrorIs(t, shop.referrals.Apply(ctx, 2, 1), ErrAlreadyReferred)
}

func TestConcurrentLinkReferralSingleWinner(t *testing.T) {
	shop := newTestShop(t)
	ctx := context.Background()
	shop.addUser(t, 1, "target", nil)
	for id := int64(10); id < 20; id++ {
		shop.addUser(t, id, "", nil)
	}

	var (
		wg   sync.WaitGroup
		wins int32
	)
	for id := int64(10); id < 20; id++ {
		wg.Add(1)
		go func(referrer int64) {
			defer wg.Done()
			ok, err := shop.referrals.LinkReferral(ctx, 1, referrer)
			assert.NoError(t, err)
			if ok {
				atomic.AddInt32(&wins, 1)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)

	var total int64
	for id := int64(10); id < 20; id++ {
		count, err := shop.repo.CountReferrals(ctx, id)
		require.NoError(t, err)
		total += count
	}
	assert.Equal(t, int64(1), total)
}
