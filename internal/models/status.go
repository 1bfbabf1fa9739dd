package models

// Status is the canonical order status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCanceled   Status = "canceled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusPaid: true, StatusCanceled: true},
	StatusPaid:       {StatusProcessing: true},
	StatusProcessing: {StatusShipped: true, StatusCanceled: true},
	StatusShipped:    {StatusDelivered: true},
	StatusDelivered:  {},
	StatusCanceled:   {},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// IsTerminal reports whether no transition leads out of s.
func IsTerminal(s Status) bool {
	return len(validNext[s]) == 0
}

// Cancelable reports whether an order in status s may still be
// canceled (and its stock released).
func Cancelable(s Status) bool {
	return s == StatusPending || s == StatusProcessing
}

// ParseStatus returns the canonical status for a raw string, or false
// when the value is not one we recognize.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusPending, StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCanceled:
		return Status(raw), true
	}
	return "", false
}
