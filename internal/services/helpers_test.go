package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"subscription-shop/internal/config"
	"subscription-shop/internal/database"
	"subscription-shop/internal/models"
	"subscription-shop/internal/notify"
	"subscription-shop/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const operatorID int64 = 900

var civilZone = time.FixedZone("civil", 210*60)

// 1403/02/10 12:00 in the civil zone
var testNow = time.Date(2024, 4, 29, 8, 30, 0, 0, time.UTC)

type sentMessage struct {
	chatID int64
	text   string
}

type recordingNotifier struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]bool
}

func (n *recordingNotifier) Notify(_ context.Context, chatID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[chatID] {
		return errors.New("chat unavailable")
	}
	n.sent = append(n.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (n *recordingNotifier) messagesFor(chatID int64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.sent {
		if m.chatID == chatID {
			out = append(out, m.text)
		}
	}
	return out
}

func (n *recordingNotifier) contains(chatID int64, substr string) bool {
	for _, text := range n.messagesFor(chatID) {
		if strings.Contains(text, substr) {
			return true
		}
	}
	return false
}

func setupTestDB(t *testing.T) *repository.Repository {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repository.NewRepository(db)
}

type testShop struct {
	repo      *repository.Repository
	notifier  *recordingNotifier
	wallets   *WalletService
	links     *LinkService
	referrals *ReferralService
	deposits  *DepositService
	orders    *OrderService
	users     *UserService
	admin     *AdminService
}

func newTestShop(t *testing.T) *testShop {
	t.Helper()
	repo := setupTestDB(t)
	log := zap.NewNop()
	notifier := &recordingNotifier{}
	dispatcher := notify.NewDispatcher(notifier, []int64{operatorID}, log)

	plans, err := config.ParsePlans("2:150000,4:265000,6:350000,12:600000")
	require.NoError(t, err)

	links := NewLinkService(repo, log)
	referrals := NewReferralService(repo, decimal.RequireFromString("0.15"), "shop_bot", dispatcher, log)

	shop := &testShop{
		repo:      repo,
		notifier:  notifier,
		wallets:   NewWalletService(repo),
		links:     links,
		referrals: referrals,
		deposits:  NewDepositService(repo, referrals, dispatcher, log),
		orders:    NewOrderService(repo, links, plans, civilZone, dispatcher, log),
		users:     NewUserService(repo, referrals, log),
		admin:     NewAdminService(repo, dispatcher, log),
	}
	shop.setNow(testNow)
	return shop
}

func (s *testShop) setNow(now time.Time) {
	clock := func() time.Time { return now }
	s.links.now = clock
	s.deposits.now = clock
	s.orders.now = clock
	s.admin.now = clock
}

func (s *testShop) addUser(t *testing.T, id int64, username string, referrer *int64) {
	t.Helper()
	_, err := s.users.Contact(context.Background(), id, username, "", referrer)
	require.NoError(t, err)
}

func (s *testShop) fund(t *testing.T, userID, amount int64) {
	t.Helper()
	_, err := s.wallets.Credit(context.Background(), userID, amount)
	require.NoError(t, err)
}

func (s *testShop) waitingOrder(t *testing.T, userID int64) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:     userID,
		PlanMonths: 2,
		Amount:     150000,
		Status:     models.OrderStatusWaitingLink,
	}
	require.NoError(t, s.repo.CreateOrder(context.Background(), order))
	return order
}

func int64Ptr(v int64) *int64 {
	return &v
}
