package api

import (
	"errors"
	"net/http"
	"strconv"

	"fulfillment-service/internal/models"

	"github.com/gin-gonic/gin"
)

// Admin overrides. Every mutation goes through the same engine
// transitions as the automated paths; there is deliberately no direct
// store access here.

// listOrders returns the latest orders for the admin console
func (h *Handler) listOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	orders, err := h.orders.ListRecentOrders(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// updateStatus applies a manual status change
func (h *Handler) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	status, ok := models.ParseStatus(req.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + req.Status})
		return
	}

	if err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), status); err != nil {
		h.adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// cancelOrder cancels an order and restores its stock
func (h *Handler) cancelOrder(c *gin.Context) {
	if err := h.orders.CancelOrder(c.Request.Context(), c.Param("id"), "admin"); err != nil {
		h.adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusCanceled})
}

type setTrackingRequest struct {
	TrackingRef string `json:"tracking_ref" binding:"required"`
	Carrier     string `json:"carrier" binding:"required"`
}

// setTracking assigns a manual tracking reference
func (h *Handler) setTracking(c *gin.Context) {
	var req setTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.orders.SetTracking(c.Request.Context(), c.Param("id"), req.TrackingRef, req.Carrier); err != nil {
		h.adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracking_ref": req.TrackingRef})
}

func (h *Handler) adminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, models.ErrInvalidStatusTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
	}
}
