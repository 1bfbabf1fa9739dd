package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fulfillment-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %d: %w", id, models.ErrProductNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetSizeStock retrieves all size rows for a product
func (s *Store) GetSizeStock(ctx context.Context, productID int64) ([]models.SizeStock, error) {
	var stock []models.SizeStock
	err := s.db.SelectContext(ctx, &stock,
		"SELECT * FROM product_sizes WHERE product_id = $1 ORDER BY size", productID)
	return stock, err
}

// reserveSizeStock decrements stock for one size inside tx. The
// decrement is a single conditional UPDATE keyed on the remaining
// quantity; concurrent checkouts on the same row are serialized by the
// database and can never drive quantity below zero.
func reserveSizeStock(ctx context.Context, tx *sqlx.Tx, productID int64, size string, quantity int) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE product_sizes
		SET quantity = quantity - $1, updated_at = NOW()
		WHERE product_id = $2 AND size = $3 AND quantity >= $1`,
		quantity, productID, size)
	if err != nil {
		return false, fmt.Errorf("failed to reserve stock: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// releaseSizeStock adds quantity back inside tx. Unconditionally
// additive; callers gate it on the order's status transition so each
// reservation is released at most once.
func releaseSizeStock(ctx context.Context, tx *sqlx.Tx, productID int64, size string, quantity int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE product_sizes
		SET quantity = quantity + $1, updated_at = NOW()
		WHERE product_id = $2 AND size = $3`,
		quantity, productID, size)
	if err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}
	return nil
}
