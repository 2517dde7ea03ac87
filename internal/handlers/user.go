package handlers

import (
	"crypto/subtle"
	"net/http"

	"subscription-shop/internal/auth"
	"subscription-shop/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users        *services.UserService
	wallets      *services.WalletService
	referrals    *services.ReferralService
	orders       *services.OrderService
	transportKey string
}

func NewUserHandler(
	users *services.UserService,
	wallets *services.WalletService,
	referrals *services.ReferralService,
	orders *services.OrderService,
	transportKey string,
) *UserHandler {
	return &UserHandler{
		users:        users,
		wallets:      wallets,
		referrals:    referrals,
		orders:       orders,
		transportKey: transportKey,
	}
}

// Contact registers or refreshes a chat user and issues a session token.
// Only the chat transport, holding the shared key, may call it.
func (h *UserHandler) Contact(c *gin.Context) {
	key := c.GetHeader("X-Transport-Key")
	if h.transportKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.transportKey)) != 1 {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Invalid transport key"})
		return
	}

	var req struct {
		UserID     int64  `json:"user_id" binding:"required"`
		Username   string `json:"username"`
		FirstName  string `json:"first_name"`
		ReferrerID *int64 `json:"referrer_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	result, err := h.users.Contact(c.Request.Context(), req.UserID, req.Username, req.FirstName, req.ReferrerID)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := auth.GenerateToken(req.UserID, req.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"data":    result,
	})
}

// GetWallet returns the caller's balance
func (h *UserHandler) GetWallet(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	balance, err := h.wallets.Balance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"user_id": userID, "balance": balance})
}

// GetSubscription returns the caller's expiry and order history
func (h *UserHandler) GetSubscription(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	status, err := h.orders.Status(c.Request.Context(), userID, limitQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, status)
}

// GetReferralStats returns referral statistics for the caller
func (h *UserHandler) GetReferralStats(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	stats, err := h.referrals.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, stats)
}

// ApplyReferral sets the caller's referrer if none is set yet
func (h *UserHandler) ApplyReferral(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req struct {
		ReferrerID int64 `json:"referrer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.referrals.Apply(c.Request.Context(), userID, req.ReferrerID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Referral applied successfully",
	})
}
