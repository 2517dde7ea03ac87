package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"subscription-shop/internal/database"
	"subscription-shop/internal/notify"
	"subscription-shop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const operatorID int64 = 900

type fakeNotifier struct {
	mu      sync.Mutex
	sent    map[int64]int
	failFor map[int64]bool
}

func (f *fakeNotifier) Notify(_ context.Context, chatID int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[chatID] {
		return errors.New("bot was blocked by the user")
	}
	f.sent[chatID]++
	return nil
}

func (f *fakeNotifier) count(chatID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[chatID]
}

func setupWatcher(t *testing.T, now time.Time) (*ExpiryWatcher, *repository.Repository, *fakeNotifier) {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	repo := repository.NewRepository(db)
	notifier := &fakeNotifier{sent: map[int64]int{}, failFor: map[int64]bool{}}
	dispatcher := notify.NewDispatcher(notifier, []int64{operatorID}, zap.NewNop())

	w := NewExpiryWatcher(repo, dispatcher, time.Hour, 24*time.Hour, time.FixedZone("civil", 210*60), zap.NewNop())
	w.now = func() time.Time { return now }
	return w, repo, notifier
}

func insertSub(t *testing.T, repo *repository.Repository, userID int64, expiresAt time.Time) {
	t.Helper()
	ok, err := repo.InsertSubscription(context.Background(), userID, expiresAt.UTC().Truncate(time.Second))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRunOnceSendsEachNoticeOnce(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w, repo, notifier := setupWatcher(t, now)
	ctx := context.Background()

	insertSub(t, repo, 1, now.Add(2*time.Hour))
	insertSub(t, repo, 2, now.Add(72*time.Hour))
	insertSub(t, repo, 3, now.Add(-time.Hour))
	insertSub(t, repo, 4, now.Add(24*time.Hour))

	report, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, CycleReport{Reminded: 2, Expired: 1}, report)
	assert.Equal(t, 1, notifier.count(1))
	assert.Equal(t, 0, notifier.count(2))
	assert.Equal(t, 0, notifier.count(3), "owners are not told about expiry")
	assert.Equal(t, 1, notifier.count(operatorID))
	assert.Equal(t, 1, notifier.count(4), "lookahead bound is inclusive")

	report, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, CycleReport{}, report)

	// three hours later user 1 has expired
	w.now = func() time.Time { return now.Add(3 * time.Hour) }
	report, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, CycleReport{Expired: 1}, report)
	assert.Equal(t, 1, notifier.count(1))
	assert.Equal(t, 2, notifier.count(operatorID))
}

func TestRunOnceMarksEvenWhenDeliveryFails(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w, repo, notifier := setupWatcher(t, now)
	ctx := context.Background()
	notifier.failFor[operatorID] = true

	insertSub(t, repo, 7, now.Add(-time.Minute))

	report, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Expired)

	sub, err := repo.GetSubscription(ctx, 7)
	require.NoError(t, err)
	assert.True(t, sub.NotifiedExpired)

	notifier.failFor[operatorID] = false
	report, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Expired)
	assert.Equal(t, 0, notifier.count(operatorID))
}

func TestRenewalRearmsNotices(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w, repo, notifier := setupWatcher(t, now)
	ctx := context.Background()

	insertSub(t, repo, 9, now.Add(-time.Hour))
	_, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.count(operatorID))
	assert.Equal(t, 0, notifier.count(9))

	sub, err := repo.GetSubscription(ctx, 9)
	require.NoError(t, err)
	ok, err := repo.RenewSubscription(ctx, 9, sub.Version, now.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, ok)

	report, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, CycleReport{Reminded: 1}, report)
	assert.Equal(t, 1, notifier.count(9))
}

func TestStartStopsOnCancel(t *testing.T) {
	w, repo, notifier := setupWatcher(t, time.Now())
	insertSub(t, repo, 1, time.Now().Add(-time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool { return notifier.count(operatorID) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestStartSurvivesFailingCycles(t *testing.T) {
	w, repo, notifier := setupWatcher(t, time.Now())
	insertSub(t, repo, 1, time.Now().Add(-time.Hour))
	w.interval = 10 * time.Millisecond

	// the first cycle's store read fails, the second panics
	var queries atomic.Int32
	err := repo.DB().Callback().Query().Before("gorm:query").Register("test:flaky_store", func(tx *gorm.DB) {
		switch queries.Add(1) {
		case 1:
			tx.AddError(errors.New("connection refused"))
		case 2:
			panic("driver crashed")
		}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool { return notifier.count(operatorID) == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.GreaterOrEqual(t, queries.Load(), int32(4))

	sub, err := repo.GetSubscription(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, sub.NotifiedExpired)
}
