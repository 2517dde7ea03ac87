package handlers

import (
	"net/http"

	"subscription-shop/internal/services"

	"github.com/gin-gonic/gin"
)

type LinkHandler struct {
	links  *services.LinkService
	orders *services.OrderService
}

func NewLinkHandler(links *services.LinkService, orders *services.OrderService) *LinkHandler {
	return &LinkHandler{links: links, orders: orders}
}

// List returns pool counts and all tokens, newest first
func (h *LinkHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	available, used, err := h.links.Counts(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	links, err := h.links.ListAll(ctx, limitQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"available": available,
		"used":      used,
		"links":     links,
	})
}

// ListAvailable returns unused tokens in allocation order
func (h *LinkHandler) ListAvailable(c *gin.Context) {
	links, err := h.links.ListAvailable(c.Request.Context(), limitQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, links)
}

// Add pools tokens from a list or newline separated text
func (h *LinkHandler) Add(c *gin.Context) {
	var req struct {
		Links []string `json:"links"`
		Text  string   `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	added, err := h.links.Add(ctx, req.Links)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Text != "" {
		n, err := h.links.AddText(ctx, req.Text)
		if err != nil {
			respondError(c, err)
			return
		}
		added += n
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"added": added}})
}

// Edit replaces the value of an unused token
func (h *LinkHandler) Edit(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Link string `json:"link" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.links.Edit(c.Request.Context(), id, req.Link); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Link updated"})
}

// Delete removes an unused token
func (h *LinkHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	removed, err := h.links.Remove(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !removed {
		respondError(c, services.ErrLinkNotEditable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Link deleted"})
}

// Fulfill delivers pooled tokens to waiting orders
func (h *LinkHandler) Fulfill(c *gin.Context) {
	report, err := h.orders.FulfillPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, report)
}
