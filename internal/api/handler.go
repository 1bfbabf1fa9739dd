package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/service"
	"fulfillment-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	orders          *service.OrderService
	webhookSecret   string
	signatureHeader string
	logger          *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(orders *service.OrderService, webhookSecret, signatureHeader string) *Handler {
	return &Handler{
		orders:          orders,
		webhookSecret:   webhookSecret,
		signatureHeader: signatureHeader,
		logger:          util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/webhooks/payment", h.paymentWebhook)
	router.POST("/webhooks/carrier/:carrier", h.carrierWebhook)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:number", h.getOrderByNumber)
		v1.GET("/products/:id/stock", h.getStock)

		admin := v1.Group("/admin")
		{
			admin.GET("/orders", h.listOrders)
			admin.PATCH("/orders/:id/status", h.updateStatus)
			admin.POST("/orders/:id/cancel", h.cancelOrder)
			admin.POST("/orders/:id/tracking", h.setTracking)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createOrder handles checkout
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		status, message := checkoutError(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// checkoutError maps engine errors to a status code and an actionable
// customer-facing message.
func checkoutError(err error) (int, string) {
	var ise *models.InsufficientStockError
	switch {
	case errors.As(err, &ise):
		return http.StatusConflict, ise.Error()
	case errors.Is(err, models.ErrProductNotFound):
		return http.StatusNotFound, "one of the products no longer exists"
	case errors.Is(err, models.ErrPaymentSessionFailed):
		return http.StatusBadGateway, "payment could not be initiated, the order was not charged"
	default:
		return http.StatusInternalServerError, "failed to create order"
	}
}

// getOrderByNumber serves the payment-return page lookup
func (h *Handler) getOrderByNumber(c *gin.Context) {
	order, items, err := h.orders.GetOrderByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

// getStock serves per-size availability for the storefront size picker
func (h *Handler) getStock(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	sizes, err := h.orders.GetAvailability(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stock"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product_id": productID, "sizes": sizes})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
