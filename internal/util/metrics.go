package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created with stock reserved",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed checkout attempts",
	}, []string{"reason"})

	OrdersPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of orders confirmed paid",
	})

	OrdersCanceledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_canceled_total",
		Help: "Total number of canceled orders",
	}, []string{"source"})

	ReservationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_reservation_latency_seconds",
		Help:    "Latency of the reserve-and-create-order transaction",
		Buckets: prometheus.DefBuckets,
	})

	ReservationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_reservations_failed_total",
		Help: "Total number of failed stock reservations",
	}, []string{"reason"})

	StockReleasedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_released_total",
		Help: "Total quantity of stock released back by compensation",
	})

	PaymentSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_sessions_total",
		Help: "Total number of payment session creation attempts",
	}, []string{"outcome"})

	ShipmentsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipments_created_total",
		Help: "Total number of carrier shipment creation attempts",
	}, []string{"carrier", "outcome"})

	WebhooksReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhooks_received_total",
		Help: "Total number of inbound webhooks",
	}, []string{"source", "outcome"})

	SweeperCanceledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_canceled_total",
		Help: "Total number of expired orders canceled by the sweeper",
	})

	SweeperErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_errors_total",
		Help: "Total number of per-order failures during expiry sweeps",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
