package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/shipping"
	"fulfillment-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore is the persistence contract the engine runs on. All
// correctness-critical mutations (reserve, release, status writes) are
// single atomic operations or one transaction inside the store.
type OrderStore interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetSizeStock(ctx context.Context, productID int64) ([]models.SizeStock, error)
	CreateOrderWithReservation(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	MarkPaid(ctx context.Context, orderNumber, paymentRef string) (bool, error)
	CancelAndRestock(ctx context.Context, orderID string) (bool, error)
	TransitionStatus(ctx context.Context, orderID string, to models.Status) error
	SetTracking(ctx context.Context, orderID, trackingRef, carrier string) error
	ListExpiredPending(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	ListRecentOrders(ctx context.Context, limit int) ([]models.Order, error)
}

// StockMirror is the best-effort availability cache.
type StockMirror interface {
	MirrorReserve(ctx context.Context, productID int64, size string, quantity int) error
	MirrorRelease(ctx context.Context, productID int64, size string, quantity int) error
	SetStock(ctx context.Context, productID int64, sizes map[string]int) error
	GetStock(ctx context.Context, productID int64) (map[string]int, error)
}

// Publisher emits lifecycle events toward the notification sink.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, orderNumber string, total int64, itemCount int) error
	PublishOrderPaid(ctx context.Context, orderNumber, paymentRef string, amount int64) error
	PublishOrderCanceled(ctx context.Context, orderNumber, reason string) error
	PublishShipmentUpdate(ctx context.Context, orderNumber, carrier, trackingRef, rawStatus string) error
}

// ShippingRates holds the flat fees per shipping method, minor units.
type ShippingRates struct {
	Courier int64
	Carrier int64
}

// OrderService is the reservation engine: it owns order creation,
// every status transition and all stock compensation. Webhooks, the
// admin API and the sweeper go through it; there is no second path.
type OrderService struct {
	store    OrderStore
	mirror   StockMirror
	events   Publisher
	gateway  PaymentGateway
	carriers shipping.Registry
	rates    ShippingRates

	returnURL string
	logger    *zap.Logger
}

// NewOrderService creates the reservation engine.
func NewOrderService(
	store OrderStore,
	mirror StockMirror,
	events Publisher,
	gateway PaymentGateway,
	carriers shipping.Registry,
	rates ShippingRates,
	returnURL string,
) *OrderService {
	return &OrderService{
		store:     store,
		mirror:    mirror,
		events:    events,
		gateway:   gateway,
		carriers:  carriers,
		rates:     rates,
		returnURL: returnURL,
		logger:    util.GetLogger(),
	}
}

// CartLine is one requested item at checkout.
type CartLine struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest is the checkout input.
type CreateOrderRequest struct {
	CustomerName   string     `json:"customer_name" binding:"required"`
	CustomerPhone  string     `json:"customer_phone" binding:"required"`
	Address        string     `json:"address"`
	ShippingMethod string     `json:"shipping_method" binding:"required,oneof=pickup courier novaposhta ukrposhta"`
	Items          []CartLine `json:"items" binding:"required,min=1,dive"`
}

// CreateOrderResponse is returned to the checkout UI.
type CreateOrderResponse struct {
	OrderNumber        string `json:"order_number"`
	PaymentRedirectURL string `json:"payment_redirect_url,omitempty"`
}

func newOrderNumber(id uuid.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	return "ORD-" + strings.ToUpper(hex[:8])
}

func (s *OrderService) shippingCost(method string) int64 {
	switch method {
	case models.ShippingCourier:
		return s.rates.Courier
	case models.ShippingNovaPoshta, models.ShippingUkrposhta:
		return s.rates.Carrier
	default:
		return 0
	}
}

// CreateOrder reserves stock and persists the order as one atomic unit,
// then opens the payment session and, when the shipping method has a
// carrier integration, a shipment. A payment failure fully compensates
// (stock released, order canceled); a shipment failure does not.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	items := make([]models.OrderItem, 0, len(req.Items))
	titles := make(map[int64]string, len(req.Items))
	var itemsTotal int64
	for _, line := range req.Items {
		product, err := s.store.GetProductByID(ctx, line.ProductID)
		if err != nil {
			util.OrdersFailedTotal.WithLabelValues("product_not_found").Inc()
			return nil, err
		}
		titles[product.ID] = product.Title
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Size:      line.Size,
			Quantity:  line.Quantity,
			UnitPrice: product.Price, // snapshot: later catalog edits must not drift the total
		})
		itemsTotal += product.Price * int64(line.Quantity)
	}

	id := uuid.New()
	order := &models.Order{
		ID:             id.String(),
		Number:         newOrderNumber(id),
		Status:         models.StatusPending,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		Address:        req.Address,
		ShippingMethod: req.ShippingMethod,
		ShippingCost:   s.shippingCost(req.ShippingMethod),
	}
	order.TotalAmount = itemsTotal + order.ShippingCost

	start := time.Now()
	err := s.store.CreateOrderWithReservation(ctx, order, items)
	util.ReservationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		if models.IsInsufficientStock(err) {
			util.ReservationsFailedTotal.WithLabelValues("insufficient_stock").Inc()
			util.OrdersFailedTotal.WithLabelValues("insufficient_stock").Inc()
		} else {
			util.ReservationsFailedTotal.WithLabelValues("error").Inc()
			util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		}
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.String("order_number", order.Number),
		zap.Int64("total", order.TotalAmount))

	s.mirrorReservation(ctx, items)

	if err := s.events.PublishOrderCreated(ctx, order.Number, order.TotalAmount, len(items)); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	// Stock is already committed; the gateway round trip holds no locks.
	session, err := s.gateway.CreateSession(ctx, order.TotalAmount, order.Number, s.returnURL)
	if err != nil {
		util.PaymentSessionsTotal.WithLabelValues("failed").Inc()
		s.logger.Error("Payment session failed, compensating order",
			zap.String("order_number", order.Number),
			zap.Error(err))
		if cancelErr := s.CancelOrder(ctx, order.ID, "payment_session_failed"); cancelErr != nil {
			s.logger.Error("Compensation failed",
				zap.String("order_id", order.ID),
				zap.Error(cancelErr))
		}
		return nil, fmt.Errorf("order %s: %w", order.Number, err)
	}
	util.PaymentSessionsTotal.WithLabelValues("created").Inc()

	resp := &CreateOrderResponse{
		OrderNumber:        order.Number,
		PaymentRedirectURL: session.RedirectURL,
	}

	if carrier, ok := s.carriers.Lookup(req.ShippingMethod); ok {
		s.createShipment(ctx, order, carrier, items, titles)
	}

	return resp, nil
}

// createShipment opens a carrier shipment, best-effort.
func (s *OrderService) createShipment(ctx context.Context, order *models.Order, carrier shipping.Carrier, items []models.OrderItem, titles map[int64]string) {
	shipItems := make([]shipping.Item, 0, len(items))
	for _, item := range items {
		shipItems = append(shipItems, shipping.Item{
			Title:    titles[item.ProductID],
			Quantity: item.Quantity,
		})
	}

	trackingRef, err := carrier.CreateShipment(ctx, order.Number,
		shipping.Recipient{Name: order.CustomerName, Phone: order.CustomerPhone},
		order.Address, shipItems)
	if err != nil {
		util.ShipmentsCreatedTotal.WithLabelValues(carrier.Name(), "failed").Inc()
		s.logger.Warn("Shipment creation failed, order proceeds without tracking",
			zap.String("order_number", order.Number),
			zap.String("carrier", carrier.Name()),
			zap.Error(err))
		return
	}
	util.ShipmentsCreatedTotal.WithLabelValues(carrier.Name(), "created").Inc()

	if err := s.store.SetTracking(ctx, order.ID, trackingRef, carrier.Name()); err != nil {
		s.logger.Error("Failed to store tracking reference",
			zap.String("order_number", order.Number),
			zap.Error(err))
	}
}

func (s *OrderService) mirrorReservation(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if err := s.mirror.MirrorReserve(ctx, item.ProductID, item.Size, item.Quantity); err != nil {
			s.logger.Warn("Stock mirror reserve failed",
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
		}
	}
}

// CancelOrder moves the order to canceled and restores its stock
// exactly once. Canceling an already canceled order is a no-op; a
// delivered order reports ErrInvalidStatusTransition. Used by the admin
// API, the payment compensation path and the expiry sweeper alike.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, source string) error {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	released, err := s.store.CancelAndRestock(ctx, orderID)
	if err != nil {
		return err
	}
	if !released {
		// Lost the race to another cancel trigger; stock already restored.
		return nil
	}

	util.OrdersCanceledTotal.WithLabelValues(source).Inc()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	items, err := s.store.GetOrderItems(ctx, orderID)
	if err != nil {
		return err
	}
	for _, item := range items {
		util.StockReleasedTotal.Add(float64(item.Quantity))
		if err := s.mirror.MirrorRelease(ctx, item.ProductID, item.Size, item.Quantity); err != nil {
			s.logger.Warn("Stock mirror release failed",
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
		}
	}

	s.logger.Info("Order canceled",
		zap.String("order_number", order.Number),
		zap.String("source", source))

	if err := s.events.PublishOrderCanceled(ctx, order.Number, source); err != nil {
		s.logger.Error("Failed to publish OrderCanceled event", zap.Error(err))
	}
	return nil
}

// ConfirmPayment applies a successful payment outcome. The underlying
// update is conditional on status=pending, so duplicate webhook
// deliveries transition at most once.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderNumber, paymentRef string) error {
	ctx, span := util.StartSpan(ctx, "OrderService.ConfirmPayment")
	defer span.End()

	transitioned, err := s.store.MarkPaid(ctx, orderNumber, paymentRef)
	if err != nil {
		return err
	}
	if !transitioned {
		s.logger.Info("Duplicate payment confirmation ignored",
			zap.String("order_number", orderNumber))
		return nil
	}

	util.OrdersPaidTotal.Inc()
	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return err
	}

	s.logger.Info("Order paid",
		zap.String("order_number", orderNumber),
		zap.String("payment_ref", paymentRef))

	if err := s.events.PublishOrderPaid(ctx, orderNumber, paymentRef, order.TotalAmount); err != nil {
		s.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
	}
	return nil
}

// carrierStatusMap translates carrier status vocabulary onto the
// canonical state machine. Anything else only updates tracking.
var carrierStatusMap = map[string]models.Status{
	"shipped":    models.StatusShipped,
	"sent":       models.StatusShipped,
	"in_transit": models.StatusShipped,
	"delivered":  models.StatusDelivered,
	"received":   models.StatusDelivered,
}

// ApplyCarrierUpdate records a carrier webhook: tracking reference
// always, canonical status only when the raw status maps to one and the
// transition is legal. Illegal transitions from stale or duplicate
// carrier webhooks are logged, never escalated.
func (s *OrderService) ApplyCarrierUpdate(ctx context.Context, orderNumber, carrier, trackingRef, rawStatus string) error {
	ctx, span := util.StartSpan(ctx, "OrderService.ApplyCarrierUpdate")
	defer span.End()

	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return err
	}

	if trackingRef != "" && trackingRef != order.TrackingRef {
		if err := s.store.SetTracking(ctx, order.ID, trackingRef, carrier); err != nil {
			return err
		}
	}

	if to, ok := carrierStatusMap[strings.ToLower(rawStatus)]; ok {
		if err := s.store.TransitionStatus(ctx, order.ID, to); err != nil {
			if errors.Is(err, models.ErrInvalidStatusTransition) {
				s.logger.Info("Carrier status ignored for current order state",
					zap.String("order_number", orderNumber),
					zap.String("raw_status", rawStatus))
			} else {
				return err
			}
		}
	}

	if err := s.events.PublishShipmentUpdate(ctx, orderNumber, carrier, trackingRef, rawStatus); err != nil {
		s.logger.Error("Failed to publish ShipmentUpdate event", zap.Error(err))
	}
	return nil
}

// UpdateStatus is the admin override. Transitions into canceled reuse
// the compensating cancel path; everything else is table-validated.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, to models.Status) error {
	if to == models.StatusCanceled {
		return s.CancelOrder(ctx, orderID, "admin")
	}
	return s.store.TransitionStatus(ctx, orderID, to)
}

// SetTracking is the admin override for manual tracking assignment.
func (s *OrderService) SetTracking(ctx context.Context, orderID, trackingRef, carrier string) error {
	return s.store.SetTracking(ctx, orderID, trackingRef, carrier)
}

// GetOrder returns an order with its items.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.store.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, items, nil
}

// GetOrderByNumber returns an order with its items, looked up by the
// display number the customer holds.
func (s *OrderService) GetOrderByNumber(ctx context.Context, number string) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByNumber(ctx, number)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.store.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, nil, err
	}
	return order, items, nil
}

// ListRecentOrders returns the latest orders for the admin console.
func (s *OrderService) ListRecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	return s.store.ListRecentOrders(ctx, limit)
}

// GetAvailability serves per-size stock from the mirror, falling back
// to (and re-warming from) the database on a miss.
func (s *OrderService) GetAvailability(ctx context.Context, productID int64) (map[string]int, error) {
	cached, err := s.mirror.GetStock(ctx, productID)
	if err == nil && len(cached) > 0 {
		return cached, nil
	}
	if err != nil {
		s.logger.Warn("Stock mirror read failed", zap.Error(err))
	}

	rows, err := s.store.GetSizeStock(ctx, productID)
	if err != nil {
		return nil, err
	}
	sizes := make(map[string]int, len(rows))
	for _, row := range rows {
		sizes[row.Size] = row.Quantity
	}
	if len(sizes) > 0 {
		if err := s.mirror.SetStock(ctx, productID, sizes); err != nil {
			s.logger.Warn("Stock mirror warm failed", zap.Error(err))
		}
	}
	return sizes, nil
}

// SweepExpired cancels pending orders older than timeout. The cutoff
// is computed once for the whole pass; each order cancels in its own
// transaction so one failure never aborts the rest.
func (s *OrderService) SweepExpired(ctx context.Context, timeout time.Duration) (int, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.SweepExpired")
	defer span.End()

	cutoff := time.Now().Add(-timeout)
	expired, err := s.store.ListExpiredPending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired orders: %w", err)
	}

	canceled := 0
	for _, order := range expired {
		if err := s.CancelOrder(ctx, order.ID, "sweeper"); err != nil {
			util.SweeperErrorsTotal.Inc()
			s.logger.Error("Sweep failed for order",
				zap.String("order_number", order.Number),
				zap.Error(err))
			continue
		}
		util.SweeperCanceledTotal.Inc()
		canceled++
	}
	return canceled, nil
}
