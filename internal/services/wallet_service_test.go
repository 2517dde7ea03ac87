package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletCreditAndBalance(t *testing.T) {
	shop := newTestShop(t)
	ctx := context.Background()

	balance, err := shop.wallets.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	balance, err = shop.wallets.Credit(ctx, 1, 1500)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), balance)

	balance, err = shop.wallets.Credit(ctx, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), balance)

	_, err = shop.wallets.Credit(ctx, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestWalletTryDebit(t *testing.T) {
	shop := newTestShop(t)
	ctx := context.Background()
	shop.fund(t, 1, 1000)

	ok, balance, err := shop.wallets.TryDebit(ctx, 1, 1001)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1000), balance)

	ok, balance, err = shop.wallets.TryDebit(ctx, 1, 1000)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(0), balance)

	ok, balance, err = shop.wallets.TryDebit(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, ok, "missing wallet behaves as zero balance")
	assert.Equal(t, int64(0), balance)
}

func TestWalletConcurrentDebitsNeverOverdraw(t *testing.T) {
	shop := newTestShop(t)
	ctx := context.Background()
	shop.fund(t, 1, 100000)

	var (
		wg        sync.WaitGroup
		succeeded int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := shop.wallets.TryDebit(ctx, 1, 15000)
			assert.NoError(t, err)
			if ok {
				atomic.AddInt32(&succeeded, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(6), succeeded)
	balance, err := shop.wallets.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance)
}
