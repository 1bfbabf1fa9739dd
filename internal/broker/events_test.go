package broker

import (
	"encoding/json"
	"testing"
	"time"

	"fulfillment-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: value}
}

func TestDecodeNotificationOrderCreated(t *testing.T) {
	msg := message(t, models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "e1",
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderNumber: "ORD-AB12CD34",
		TotalAmount: 2460,
		ItemCount:   2,
	})

	text, ok, err := DecodeNotification(msg)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, text, "ORD-AB12CD34")
	assert.Contains(t, text, "2 item(s)")
}

func TestDecodeNotificationOrderPaid(t *testing.T) {
	msg := message(t, models.OrderPaidEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "e2",
			EventType: models.EventTypeOrderPaid,
			Timestamp: time.Now(),
		},
		OrderNumber: "ORD-AB12CD34",
		PaymentRef:  "sess_42",
		Amount:      2460,
	})

	text, ok, err := DecodeNotification(msg)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, text, "paid")
	assert.Contains(t, text, "sess_42")
}

func TestDecodeNotificationUnknownType(t *testing.T) {
	msg := message(t, models.BaseEvent{
		EventID:   "e3",
		EventType: "SOMETHING_ELSE",
		Timestamp: time.Now(),
	})

	_, ok, err := DecodeNotification(msg)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecodeNotificationGarbage(t *testing.T) {
	_, _, err := DecodeNotification(kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)
}
