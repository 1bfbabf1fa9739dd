package models

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound         = errors.New("product not found")
	ErrOrderNotFound           = errors.New("order not found")
	ErrPaymentSessionFailed    = errors.New("payment session failed")
	ErrShipmentCreationFailed  = errors.New("shipment creation failed")
	ErrInvalidSignature        = errors.New("invalid webhook signature")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// InsufficientStockError identifies the exact cart line that could not
// be reserved, so checkout can tell the customer which size sold out.
type InsufficientStockError struct {
	ProductTitle string
	Size         string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q size %s", e.ProductTitle, e.Size)
}

// IsInsufficientStock reports whether err wraps an InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var ise *InsufficientStockError
	return errors.As(err, &ise)
}
