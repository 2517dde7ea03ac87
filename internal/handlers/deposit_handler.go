package handlers

import (
	"net/http"

	"subscription-shop/internal/auth"
	"subscription-shop/internal/services"

	"github.com/gin-gonic/gin"
)

type DepositHandler struct {
	deposits *services.DepositService
}

func NewDepositHandler(deposits *services.DepositService) *DepositHandler {
	return &DepositHandler{deposits: deposits}
}

// TopUp files a deposit request for operator review
func (h *DepositHandler) TopUp(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req struct {
		Amount        int64  `json:"amount" binding:"required"`
		ReceiptText   string `json:"receipt_text"`
		ReceiptFileID string `json:"receipt_file_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	deposit, err := h.deposits.TopUp(c.Request.Context(), userID, req.Amount, services.Receipt{
		Text:   req.ReceiptText,
		FileID: req.ReceiptFileID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": deposit})
}

// ListPending lists deposits awaiting review
func (h *DepositHandler) ListPending(c *gin.Context) {
	deposits, err := h.deposits.ListPending(c.Request.Context(), limitQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, deposits)
}

// Approve credits a pending deposit
func (h *DepositHandler) Approve(c *gin.Context) {
	h.resolve(c, true)
}

// Reject closes a pending deposit
func (h *DepositHandler) Reject(c *gin.Context) {
	h.resolve(c, false)
}

func (h *DepositHandler) resolve(c *gin.Context, approve bool) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	result, err := h.deposits.Resolve(c.Request.Context(), id, approve)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}
