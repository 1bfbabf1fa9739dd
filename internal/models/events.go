package models

import "time"

// Event types
const (
	EventTypeOrderCreated   = "ORDER_CREATED"
	EventTypeOrderPaid      = "ORDER_PAID"
	EventTypeOrderCanceled  = "ORDER_CANCELED"
	EventTypeShipmentUpdate = "SHIPMENT_UPDATE"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when stock is reserved and the order persisted
type OrderCreatedEvent struct {
	BaseEvent
	OrderNumber string `json:"order_number"`
	TotalAmount int64  `json:"total_amount"`
	ItemCount   int    `json:"item_count"`
}

// OrderPaidEvent published when the payment webhook confirms payment
type OrderPaidEvent struct {
	BaseEvent
	OrderNumber string `json:"order_number"`
	PaymentRef  string `json:"payment_ref"`
	Amount      int64  `json:"amount"`
}

// OrderCanceledEvent published on cancellation (admin, customer or sweep)
type OrderCanceledEvent struct {
	BaseEvent
	OrderNumber string `json:"order_number"`
	Reason      string `json:"reason"`
}

// ShipmentUpdateEvent published when a carrier webhook moves tracking state
type ShipmentUpdateEvent struct {
	BaseEvent
	OrderNumber string `json:"order_number"`
	Carrier     string `json:"carrier"`
	TrackingRef string `json:"tracking_ref"`
	RawStatus   string `json:"raw_status"`
}
