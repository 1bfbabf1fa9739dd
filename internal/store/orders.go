package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fulfillment-service/internal/models"
)

// CreateOrderWithReservation reserves stock for every line and persists
// the order and its items in one transaction. If any single line cannot
// be reserved the whole transaction rolls back: no order row exists and
// no stock is decremented.
func (s *Store) CreateOrderWithReservation(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, item := range items {
		ok, err := reserveSizeStock(ctx, tx, item.ProductID, item.Size, item.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			var title string
			if err := tx.GetContext(ctx, &title,
				"SELECT title FROM products WHERE id = $1", item.ProductID); err != nil {
				title = fmt.Sprintf("product %d", item.ProductID)
			}
			return &models.InsufficientStockError{ProductTitle: title, Size: item.Size}
		}
	}

	err = tx.GetContext(ctx, order, `
		INSERT INTO orders (id, number, status, customer_name, customer_phone, address,
			shipping_method, shipping_cost, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *`,
		order.ID, order.Number, order.Status, order.CustomerName, order.CustomerPhone,
		order.Address, order.ShippingMethod, order.ShippingCost, order.TotalAmount)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		if err := tx.GetContext(ctx, &items[i].ID, `
			INSERT INTO order_items (order_id, product_id, size, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			items[i].OrderID, items[i].ProductID, items[i].Size,
			items[i].Quantity, items[i].UnitPrice); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", id, models.ErrOrderNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByNumber retrieves an order by its display number
func (s *Store) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE number = $1", number)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", number, models.ErrOrderNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItems retrieves all items for an order
func (s *Store) GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID)
	return items, err
}

// MarkPaid transitions pending -> paid with a single conditional
// update. Returns false when the order was already paid or later, which
// makes duplicate payment webhooks a no-op.
func (s *Store) MarkPaid(ctx context.Context, orderNumber, paymentRef string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, payment_ref = $2, updated_at = NOW()
		WHERE number = $3 AND status = $4`,
		models.StatusPaid, paymentRef, orderNumber, models.StatusPending)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 1 {
		return true, nil
	}

	// Distinguish a duplicate delivery from an unknown order.
	var exists bool
	if err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM orders WHERE number = $1)", orderNumber); err != nil {
		return false, err
	}
	if !exists {
		return false, fmt.Errorf("order %s: %w", orderNumber, models.ErrOrderNotFound)
	}
	return false, nil
}

// CancelAndRestock transitions the order to canceled and releases its
// reserved stock in the same transaction. The status write is a single
// conditional update restricted to cancelable states, so when the
// sweeper and an admin race only one of them wins and the release runs
// exactly once. An order already canceled is a no-op (released=false);
// a terminal delivered order is a reported error.
func (s *Store) CancelAndRestock(ctx context.Context, orderID string) (released bool, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, canceled_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND status IN ($3, $4)`,
		models.StatusCanceled, orderID, models.StatusPending, models.StatusProcessing)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if rows == 0 {
		var status models.Status
		err := tx.GetContext(ctx, &status, "SELECT status FROM orders WHERE id = $1", orderID)
		if err == sql.ErrNoRows {
			return false, fmt.Errorf("order %s: %w", orderID, models.ErrOrderNotFound)
		}
		if err != nil {
			return false, err
		}
		if status == models.StatusCanceled {
			return false, nil
		}
		return false, fmt.Errorf("cancel from %s: %w", status, models.ErrInvalidStatusTransition)
	}

	var items []models.OrderItem
	if err := tx.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID); err != nil {
		return false, err
	}
	for _, item := range items {
		if err := releaseSizeStock(ctx, tx, item.ProductID, item.Size, item.Quantity); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// TransitionStatus applies a non-canceling status change, validated
// against the transition table and guarded by a conditional update on
// the status it was read at.
func (s *Store) TransitionStatus(ctx context.Context, orderID string, to models.Status) error {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !models.CanTransition(order.Status, to) {
		return fmt.Errorf("%s -> %s: %w", order.Status, to, models.ErrInvalidStatusTransition)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`,
		to, orderID, order.Status)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%s -> %s: %w", order.Status, to, models.ErrInvalidStatusTransition)
	}
	return nil
}

// SetTracking stores the carrier tracking reference for an order
func (s *Store) SetTracking(ctx context.Context, orderID, trackingRef, carrier string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET tracking_ref = $1, carrier = $2, updated_at = NOW()
		WHERE id = $3`,
		trackingRef, carrier, orderID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("order %s: %w", orderID, models.ErrOrderNotFound)
	}
	return nil
}

// ListExpiredPending returns orders still pending that were created
// before the cutoff. The sweeper computes the cutoff once per pass.
func (s *Store) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at`,
		models.StatusPending, cutoff)
	return orders, err
}

// ListRecentOrders returns the latest orders for the admin console
func (s *Store) ListRecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders ORDER BY created_at DESC LIMIT $1", limit)
	return orders, err
}
