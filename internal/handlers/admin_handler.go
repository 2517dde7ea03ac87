package handlers

import (
	"net/http"

	"subscription-shop/internal/auth"
	"subscription-shop/internal/models"
	"subscription-shop/internal/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	admin  *services.AdminService
	orders *services.OrderService
}

func NewAdminHandler(admin *services.AdminService, orders *services.OrderService) *AdminHandler {
	return &AdminHandler{admin: admin, orders: orders}
}

// GetDashboard returns the operator counters
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	counters, err := h.admin.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, counters)
}

// ListOrders lists orders by ?timeframe=today|week|month|all and ?status=
func (h *AdminHandler) ListOrders(c *gin.Context) {
	timeframe := services.Timeframe(c.DefaultQuery("timeframe", string(services.TimeframeAll)))
	switch timeframe {
	case services.TimeframeToday, services.TimeframeWeek, services.TimeframeMonth, services.TimeframeAll:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid timeframe"})
		return
	}

	status := models.OrderStatus(c.Query("status"))
	switch status {
	case "", models.OrderStatusWaitingLink, models.OrderStatusDelivered, models.OrderStatusCancelled:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid status"})
		return
	}

	orders, err := h.admin.ListOrders(c.Request.Context(), timeframe, status, limitQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, orders)
}

// PendingOrders lists orders waiting for a token
func (h *AdminHandler) PendingOrders(c *gin.Context) {
	orders, err := h.admin.PendingOrders(c.Request.Context(), limitQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, orders)
}

// SearchOrders searches by ?q= order id, user id or @username
func (h *AdminHandler) SearchOrders(c *gin.Context) {
	orders, err := h.admin.SearchOrders(c.Request.Context(), c.Query("q"), limitQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, orders)
}

// GetOrder returns a single order with its owner
func (h *AdminHandler) GetOrder(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	order, err := h.admin.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// ExtendOrder adds free months to the order owner's subscription
func (h *AdminHandler) ExtendOrder(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Months int `json:"months" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	expiry, err := h.orders.Extend(c.Request.Context(), id, req.Months)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"order_id": id, "expires_at": expiry})
}

// MessageOrder relays an operator message to the order owner
func (h *AdminHandler) MessageOrder(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.admin.MessageOrderOwner(c.Request.Context(), id, req.Text); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message sent"})
}

// Support forwards the caller's message to the operators
func (h *AdminHandler) Support(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.admin.SupportRequest(c.Request.Context(), userID, req.Text); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message sent to support"})
}
