package shipping

import "context"

// Recipient is the contact a shipment is addressed to.
type Recipient struct {
	Name  string
	Phone string
}

// Item is one shipped line, enough for a carrier declaration.
type Item struct {
	Title    string
	Quantity int
}

// Carrier is the uniform contract over shipping providers. Creation is
// best-effort: a failure is logged by the caller and the order proceeds
// without a tracking number.
type Carrier interface {
	Name() string
	CreateShipment(ctx context.Context, orderNumber string, recipient Recipient, address string, items []Item) (trackingRef string, err error)
}

// Registry resolves a carrier by the order's shipping method.
type Registry map[string]Carrier

func NewRegistry(carriers ...Carrier) Registry {
	reg := make(Registry, len(carriers))
	for _, c := range carriers {
		reg[c.Name()] = c
	}
	return reg
}

// Lookup returns the carrier for a shipping method, if one is integrated.
func (r Registry) Lookup(method string) (Carrier, bool) {
	c, ok := r[method]
	return c, ok
}
