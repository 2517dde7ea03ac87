package handlers

import (
	"net/http"
	"strconv"

	"subscription-shop/internal/auth"
	"subscription-shop/internal/services"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type planView struct {
	Months int   `json:"months"`
	Price  int64 `json:"price"`
}

// GetPlans lists the plan catalog
func (h *OrderHandler) GetPlans(c *gin.Context) {
	plans := h.orders.Plans()
	views := make([]planView, 0, len(plans))
	for _, months := range plans.Months() {
		views = append(views, planView{Months: months, Price: plans[months]})
	}
	respondOK(c, views)
}

// Quote previews the price and resulting expiry of a plan
func (h *OrderHandler) Quote(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	months, err := strconv.Atoi(c.Param("months"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid months"})
		return
	}

	quote, err := h.orders.Quote(c.Request.Context(), userID, months)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, quote)
}

// Purchase buys a plan from the caller's wallet
func (h *OrderHandler) Purchase(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req struct {
		Months int `json:"months" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	result, err := h.orders.Purchase(c.Request.Context(), userID, req.Months)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Status == services.PurchaseInsufficientFunds {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"success": false,
			"error":   services.ErrInsufficientFunds.Error(),
			"data":    result,
		})
		return
	}

	respondOK(c, result)
}

// GetOrders lists the caller's orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	status, err := h.orders.Status(c.Request.Context(), userID, limitQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, status.Orders)
}
