package domain

import (
	"strings"
	"time"
)

type OrderType string

const (
	OrderTypeDineIn   OrderType = "DINE_IN"
	OrderTypeDelivery OrderType = "DELIVERY"
	OrderTypeTakeAway OrderType = "TAKE_AWAY"
)

// ParseOrderType accepts the spellings seen on the backend (dine_in, take-away, takeout...).
func ParseOrderType(raw string) (OrderType, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)

	switch s {
	case "DINE_IN", "DINEIN":
		return OrderTypeDineIn, true
	case "DELIVERY":
		return OrderTypeDelivery, true
	case "TAKE_AWAY", "TAKEAWAY", "TAKEOUT":
		return OrderTypeTakeAway, true
	}
	return "", false
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCooking   Status = "COOKING"
	StatusReady     Status = "READY"
	StatusDelivered Status = "DELIVERED"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus normalizes a backend status. Unknown values are kept upper-cased
// and count as active.
func ParseStatus(raw string) Status {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "CANCELED" {
		return StatusCancelled
	}
	return Status(s)
}

// IsTerminal reports whether no further transitions are permitted.
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

func (s Status) IsActive() bool {
	return !s.IsTerminal()
}

// StatusLog represents a journal entry for an order mutation made from this terminal
type StatusLog struct {
	ID        int
	OrderID   string
	Status    Status
	ChangedBy string
	ChangedAt time.Time
	Notes     *string
}
