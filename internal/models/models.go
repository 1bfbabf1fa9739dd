package models

import (
	"database/sql"
	"time"
)

// Product represents a catalog product. Prices are integer minor
// currency units.
type Product struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Price     int64     `db:"price" json:"price"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SizeStock is the available quantity of one size of one product.
// The quantity column is the single contended resource in the system
// and is only ever mutated through atomic conditional updates.
type SizeStock struct {
	ProductID int64     `db:"product_id" json:"product_id"`
	Size      string    `db:"size" json:"size"`
	Quantity  int       `db:"quantity" json:"quantity"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Order represents a customer order. Status and the stock-affecting
// fields are owned by the fulfillment service; nothing else writes them.
type Order struct {
	ID             string       `db:"id" json:"id"`
	Number         string       `db:"number" json:"number"`
	Status         Status       `db:"status" json:"status"`
	CustomerName   string       `db:"customer_name" json:"customer_name"`
	CustomerPhone  string       `db:"customer_phone" json:"customer_phone"`
	Address        string       `db:"address" json:"address,omitempty"`
	ShippingMethod string       `db:"shipping_method" json:"shipping_method"`
	ShippingCost   int64        `db:"shipping_cost" json:"shipping_cost"`
	TotalAmount    int64        `db:"total_amount" json:"total_amount"`
	PaymentRef     string       `db:"payment_ref" json:"payment_ref,omitempty"`
	TrackingRef    string       `db:"tracking_ref" json:"tracking_ref,omitempty"`
	Carrier        string       `db:"carrier" json:"carrier,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
	CanceledAt     sql.NullTime `db:"canceled_at" json:"canceled_at,omitempty"`
}

// OrderItem is one reserved cart line. UnitPrice is snapshotted at
// order time; a later catalog price change must never drift the total.
type OrderItem struct {
	ID        int64  `db:"id" json:"id"`
	OrderID   string `db:"order_id" json:"order_id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	Size      string `db:"size" json:"size"`
	Quantity  int    `db:"quantity" json:"quantity"`
	UnitPrice int64  `db:"unit_price" json:"unit_price"`
}

// Shipping methods
const (
	ShippingPickup     = "pickup"
	ShippingCourier    = "courier"
	ShippingNovaPoshta = "novaposhta"
	ShippingUkrposhta  = "ukrposhta"
)
