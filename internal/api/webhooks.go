package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// paymentWebhookPayload is the gateway's event envelope. The order is
// correlated through the order number embedded in session metadata.
type paymentWebhookPayload struct {
	Event  string `json:"event"`
	Object struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Metadata struct {
			OrderNumber string `json:"orderNumber"`
		} `json:"metadata"`
	} `json:"object"`
}

// paymentWebhook reconciles asynchronous payment outcomes. Unrecognized
// event types are acknowledged and ignored so gateway API evolution
// does not turn into retry storms.
func (h *Handler) paymentWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		util.WebhooksReceivedTotal.WithLabelValues("payment", "bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if h.webhookSecret != "" {
		if err := verifySignature(body, c.GetHeader(h.signatureHeader), h.webhookSecret); err != nil {
			util.WebhooksReceivedTotal.WithLabelValues("payment", "invalid_signature").Inc()
			h.logger.Warn("Payment webhook rejected", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}

	var payload paymentWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		util.WebhooksReceivedTotal.WithLabelValues("payment", "bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if payload.Object.Status != "succeeded" || payload.Object.Metadata.OrderNumber == "" {
		util.WebhooksReceivedTotal.WithLabelValues("payment", "ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	err = h.orders.ConfirmPayment(c.Request.Context(), payload.Object.Metadata.OrderNumber, payload.Object.ID)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			// Acknowledge anyway: retrying will not make the order appear.
			util.WebhooksReceivedTotal.WithLabelValues("payment", "unknown_order").Inc()
			h.logger.Warn("Payment webhook for unknown order",
				zap.String("order_number", payload.Object.Metadata.OrderNumber))
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		util.WebhooksReceivedTotal.WithLabelValues("payment", "error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process"})
		return
	}

	util.WebhooksReceivedTotal.WithLabelValues("payment", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// verifySignature checks an HMAC-SHA256 digest of body against the
// header value. Gateways disagree on encoding, so hex and base64 are
// both accepted, with or without a "sha256=" prefix.
func verifySignature(body []byte, header, secret string) error {
	if header == "" {
		return models.ErrInvalidSignature
	}
	header = strings.TrimPrefix(header, "sha256=")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	if decoded, err := hex.DecodeString(header); err == nil && hmac.Equal(decoded, expected) {
		return nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(header); err == nil && hmac.Equal(decoded, expected) {
		return nil
	}
	return models.ErrInvalidSignature
}

// carrierWebhook records carrier tracking callbacks. Carriers are not
// uniform, so the order reference, tracking number and status are
// probed across the field names each of them is known to use. The
// response is always an acknowledgment, even for unknown orders.
func (h *Handler) carrierWebhook(c *gin.Context) {
	carrier := c.Param("carrier")

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		util.WebhooksReceivedTotal.WithLabelValues("carrier", "bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	orderNumber := probeString(payload,
		"orderNumber", "order_number", "externalId", "reference", "InfoRegClientBarcodes")
	trackingRef := probeString(payload,
		"trackingNumber", "tracking_number", "barcode", "IntDocNumber", "ttn")
	rawStatus := probeString(payload, "status", "state", "trackingStatus", "Status")

	if orderNumber == "" {
		util.WebhooksReceivedTotal.WithLabelValues("carrier", "ignored").Inc()
		h.logger.Warn("Carrier webhook without order reference",
			zap.String("carrier", carrier))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	err := h.orders.ApplyCarrierUpdate(c.Request.Context(), orderNumber, carrier, trackingRef, rawStatus)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			util.WebhooksReceivedTotal.WithLabelValues("carrier", "unknown_order").Inc()
			h.logger.Warn("Carrier webhook for unknown order",
				zap.String("carrier", carrier),
				zap.String("order_number", orderNumber))
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		util.WebhooksReceivedTotal.WithLabelValues("carrier", "error").Inc()
		h.logger.Error("Carrier webhook failed",
			zap.String("carrier", carrier),
			zap.Error(err))
		// Still acknowledge: an internal failure here is for operators,
		// not for the carrier's retry queue.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	util.WebhooksReceivedTotal.WithLabelValues("carrier", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// probeString returns the first non-empty string value among keys,
// looking at the top level and one level down in a "data" object.
func probeString(payload map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	if data, ok := payload["data"].(map[string]interface{}); ok {
		for _, key := range keys {
			if v, ok := data[key].(string); ok && v != "" {
				return v
			}
		}
	}
	return ""
}
