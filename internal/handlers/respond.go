package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"subscription-shop/internal/services"

	"github.com/gin-gonic/gin"
)

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondError maps service errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInsufficientFunds):
		status = http.StatusPaymentRequired
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrNotActionable),
		errors.Is(err, services.ErrDuplicateLink),
		errors.Is(err, services.ErrLinkNotEditable),
		errors.Is(err, services.ErrAlreadyReferred):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidPlan),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrEmptyLink),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrSelfReferral):
		status = http.StatusBadRequest
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	c.JSON(status, gin.H{"success": false, "error": message})
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func limitQuery(c *gin.Context) int {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	return limit
}
