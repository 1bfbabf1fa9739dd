package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fulfillment-service/internal/broker"
	"fulfillment-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Notifier consumes order lifecycle events and delivers one-line admin
// notifications. Delivery is fire-and-forget: failures are logged and
// the message is committed regardless, per the notification contract.
type Notifier struct {
	consumer     *broker.Consumer
	adminChatURL string
	client       *http.Client
	logger       *zap.Logger
}

// NewNotifier creates a new notification worker
func NewNotifier(consumer *broker.Consumer, adminChatURL string) *Notifier {
	return &Notifier{
		consumer:     consumer,
		adminChatURL: adminChatURL,
		client:       &http.Client{Timeout: 10 * time.Second},
		logger:       util.GetLogger(),
	}
}

// Start starts the notification worker
func (n *Notifier) Start(ctx context.Context) error {
	n.logger.Info("Starting notification worker")

	return n.consumer.StartConsuming(ctx, func(ctx context.Context, msg kafka.Message) error {
		text, ok, err := broker.DecodeNotification(msg)
		if err != nil {
			n.logger.Error("Failed to decode event", zap.Error(err))
			return nil // poison message, do not redeliver
		}
		if !ok {
			return nil
		}

		n.deliver(ctx, text)
		return nil
	})
}

// Stop stops the notification worker
func (n *Notifier) Stop() error {
	n.logger.Info("Stopping notification worker")
	return n.consumer.Close()
}

func (n *Notifier) deliver(ctx context.Context, text string) {
	if n.adminChatURL == "" {
		n.logger.Info("Admin notification", zap.String("text", text))
		return
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		n.logger.Error("Failed to encode notification", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.adminChatURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("Failed to build notification request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("Notification delivery failed", zap.Error(err))
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		n.logger.Error("Notification rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("text", text))
	}
}
