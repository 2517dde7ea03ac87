package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"subscription-shop/internal/auth"
	"subscription-shop/internal/config"
	"subscription-shop/internal/database"
	"subscription-shop/internal/notify"
	"subscription-shop/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	transportKey       = "transport-secret"
	adminID      int64 = 900
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, int64, string) error { return nil }

type apiResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Token   string          `json:"token"`
	Data    json.RawMessage `json:"data"`
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
}

func setupRouter(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	plans, err := config.ParsePlans("2:150000,4:265000,6:350000,12:600000")
	require.NoError(t, err)

	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite"},
		Server:   config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Telegram: config.TelegramConfig{BotUsername: "shop_bot"},
		App: config.AppConfig{
			JWTSecret:             "test-secret",
			TransportKey:          transportKey,
			AdminIDs:              []int64{adminID},
			Plans:                 plans,
			ReferralCommission:    decimal.RequireFromString("0.15"),
			CivilUTCOffsetMinutes: 210,
		},
	}
	auth.InitJWT(cfg.App.JWTSecret)

	log := zap.NewNop()
	repo := repository.NewRepository(db)
	dispatcher := notify.NewDispatcher(nopNotifier{}, cfg.App.AdminIDs, log)

	return &testAPI{t: t, router: NewRouter(cfg, NewServices(repo, cfg, dispatcher, log), db, log)}
}

func (a *testAPI) do(method, path, token string, body interface{}, headers ...string) (int, apiResponse) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func (a *testAPI) contact(userID int64, username string, referrer *int64) string {
	a.t.Helper()
	body := gin.H{"user_id": userID, "username": username}
	if referrer != nil {
		body["referrer_id"] = *referrer
	}
	code, resp := a.do(http.MethodPost, "/auth/contact", "", body, "X-Transport-Key", transportKey)
	require.Equal(a.t, http.StatusOK, code, resp.Error)
	require.NotEmpty(a.t, resp.Token)
	return resp.Token
}

func TestContactRequiresTransportKey(t *testing.T) {
	api := setupRouter(t)

	code, _ := api.do(http.MethodPost, "/auth/contact", "", gin.H{"user_id": 1})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(http.MethodPost, "/auth/contact", "", gin.H{"user_id": 1}, "X-Transport-Key", "wrong")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestShopFlowOverHTTP(t *testing.T) {
	api := setupRouter(t)

	referrer := int64(1)
	api.contact(referrer, "alice", nil)
	bob := api.contact(2, "bob", &referrer)
	admin, err := auth.GenerateToken(adminID, "ops")
	require.NoError(t, err)

	code, resp := api.do(http.MethodGet, "/api/plans", bob, nil)
	require.Equal(t, http.StatusOK, code)
	var plans []planView
	require.NoError(t, json.Unmarshal(resp.Data, &plans))
	require.Len(t, plans, 4)
	assert.Equal(t, planView{Months: 2, Price: 150000}, plans[0])

	code, _ = api.do(http.MethodPost, "/api/orders", bob, gin.H{"months": 2})
	assert.Equal(t, http.StatusPaymentRequired, code)

	code, _ = api.do(http.MethodPost, "/api/orders", bob, gin.H{"months": 5})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = api.do(http.MethodPost, "/api/wallet/topup", bob, gin.H{"amount": 200000, "receipt_text": "paid"})
	require.Equal(t, http.StatusCreated, code)
	var deposit struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &deposit))

	code, _ = api.do(http.MethodPost, "/api/admin/deposits/1/approve", bob, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(http.MethodPost, "/api/admin/deposits/1/approve", admin, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodPost, "/api/admin/deposits/1/approve", admin, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, uint(1), deposit.ID)

	code, resp = api.do(http.MethodPost, "/api/admin/links", admin, gin.H{"text": "tok-1\ntok-2\n"})
	require.Equal(t, http.StatusCreated, code)
	assert.JSONEq(t, `{"added":2}`, string(resp.Data))

	code, resp = api.do(http.MethodPost, "/api/orders", bob, gin.H{"months": 2})
	require.Equal(t, http.StatusOK, code, resp.Error)
	var purchase struct {
		Status  string `json:"status"`
		Token   string `json:"token"`
		Balance int64  `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &purchase))
	assert.Equal(t, "delivered", purchase.Status)
	assert.Equal(t, "tok-1", purchase.Token)
	assert.Equal(t, int64(50000), purchase.Balance)

	code, resp = api.do(http.MethodGet, "/api/referral/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	alice, err := auth.GenerateToken(referrer, "alice")
	require.NoError(t, err)
	code, resp = api.do(http.MethodGet, "/api/referral/stats", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"user_id":1,"referral_count":1,"total_profit":30000,"invite_link":"https://t.me/shop_bot?start=1"}`, string(resp.Data))

	code, _ = api.do(http.MethodPost, "/api/support", bob, gin.H{"text": "where is my link?"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodPost, "/api/support", "", gin.H{"text": "anonymous"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, resp = api.do(http.MethodGet, "/api/admin/orders/search?q=@bo", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var found []json.RawMessage
	require.NoError(t, json.Unmarshal(resp.Data, &found))
	assert.Len(t, found, 1)

	code, _ = api.do(http.MethodGet, "/api/admin/orders/999", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(http.MethodPut, "/api/admin/links/1", admin, gin.H{"link": "tok-9"})
	assert.Equal(t, http.StatusConflict, code, "used tokens cannot be edited")

	code, _ = api.do(http.MethodGet, "/api/admin/orders?timeframe=year", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
