package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fulfillment-service/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes order lifecycle events. Downstream delivery
// (the admin notification sink) is fire-and-forget: callers log publish
// failures and carry on.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func base(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// PublishOrderCreated publishes an OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, orderNumber string, total int64, itemCount int) error {
	event := &models.OrderCreatedEvent{
		BaseEvent:   base(models.EventTypeOrderCreated),
		OrderNumber: orderNumber,
		TotalAmount: total,
		ItemCount:   itemCount,
	}
	return ep.producer.PublishEvent(ctx, orderNumber, event)
}

// PublishOrderPaid publishes an OrderPaid event
func (ep *EventPublisher) PublishOrderPaid(ctx context.Context, orderNumber, paymentRef string, amount int64) error {
	event := &models.OrderPaidEvent{
		BaseEvent:   base(models.EventTypeOrderPaid),
		OrderNumber: orderNumber,
		PaymentRef:  paymentRef,
		Amount:      amount,
	}
	return ep.producer.PublishEvent(ctx, orderNumber, event)
}

// PublishOrderCanceled publishes an OrderCanceled event
func (ep *EventPublisher) PublishOrderCanceled(ctx context.Context, orderNumber, reason string) error {
	event := &models.OrderCanceledEvent{
		BaseEvent:   base(models.EventTypeOrderCanceled),
		OrderNumber: orderNumber,
		Reason:      reason,
	}
	return ep.producer.PublishEvent(ctx, orderNumber, event)
}

// PublishShipmentUpdate publishes a ShipmentUpdate event
func (ep *EventPublisher) PublishShipmentUpdate(ctx context.Context, orderNumber, carrier, trackingRef, rawStatus string) error {
	event := &models.ShipmentUpdateEvent{
		BaseEvent:   base(models.EventTypeShipmentUpdate),
		OrderNumber: orderNumber,
		Carrier:     carrier,
		TrackingRef: trackingRef,
		RawStatus:   rawStatus,
	}
	return ep.producer.PublishEvent(ctx, orderNumber, event)
}

// DecodeNotification renders an inbound lifecycle event as the one-line
// text message the admin notification sink expects. ok is false for
// event types the notifier does not announce.
func DecodeNotification(msg kafka.Message) (text string, ok bool, err error) {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return "", false, fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeOrderCreated:
		var event models.OrderCreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return "", false, err
		}
		return fmt.Sprintf("New order %s: %d item(s), total %d", event.OrderNumber, event.ItemCount, event.TotalAmount), true, nil

	case models.EventTypeOrderPaid:
		var event models.OrderPaidEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return "", false, err
		}
		return fmt.Sprintf("Order %s paid (%d, ref %s)", event.OrderNumber, event.Amount, event.PaymentRef), true, nil

	case models.EventTypeOrderCanceled:
		var event models.OrderCanceledEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return "", false, err
		}
		return fmt.Sprintf("Order %s canceled: %s", event.OrderNumber, event.Reason), true, nil

	case models.EventTypeShipmentUpdate:
		var event models.ShipmentUpdateEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return "", false, err
		}
		return fmt.Sprintf("Order %s: %s update, tracking %s (%s)", event.OrderNumber, event.Carrier, event.TrackingRef, event.RawStatus), true, nil
	}

	return "", false, nil
}
