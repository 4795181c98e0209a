package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TemporaryIDPrefix marks client-side placeholder ids of orders the backend has not confirmed
const TemporaryIDPrefix = "tmp-"

// Order represents a restaurant order entity
type Order struct {
	ID        string
	Type      OrderType
	TableID   string
	Items     []OrderItem
	Status    Status
	Timestamp time.Time
	Total     decimal.Decimal
}

// OrderItem represents an item in an order. MenuItem is a snapshot taken when
// the order was created.
type OrderItem struct {
	MenuItem    MenuItem
	Quantity    int
	Note        string
	ExtraCharge decimal.Decimal
}

// UnitPrice is the catalog price plus the per-unit extra charge
func (i OrderItem) UnitPrice() decimal.Decimal {
	return i.MenuItem.Price.Add(i.ExtraCharge)
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewTemporaryID returns a placeholder id for an optimistic order
func NewTemporaryID() string {
	return TemporaryIDPrefix + uuid.NewString()
}

func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, TemporaryIDPrefix)
}

// NewOrder creates a new pending order with business rules applied
func NewOrder(orderType OrderType, tableID string, items []OrderItem, now time.Time) (*Order, error) {
	order := &Order{
		ID:        NewTemporaryID(),
		Type:      orderType,
		TableID:   tableID,
		Items:     items,
		Status:    StatusPending,
		Timestamp: now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	order.CalculateTotal()

	return order, nil
}

// Validate applies business validation rules
func (o *Order) Validate() error {
	if _, ok := ParseOrderType(string(o.Type)); !ok {
		return ErrInvalidOrderType
	}

	if o.Type == OrderTypeDineIn && strings.TrimSpace(o.TableID) == "" {
		return fmt.Errorf("%w: table id required for dine-in orders", ErrValidation)
	}

	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}

	for _, item := range o.Items {
		if strings.TrimSpace(item.MenuItem.ID) == "" {
			return fmt.Errorf("%w: order item must reference a menu item", ErrValidation)
		}
		if item.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if item.ExtraCharge.IsNegative() || item.MenuItem.Price.IsNegative() {
			return ErrNegativeAmount
		}
	}

	return nil
}

// ComputedTotal is Σ (price + extra charge) × quantity
func (o *Order) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// CalculateTotal calculates the total amount of the order
func (o *Order) CalculateTotal() {
	o.Total = o.ComputedTotal()
}

func (o *Order) IsActive() bool {
	return o.Status.IsActive()
}

// TransitionTo transitions the order to a new status
func (o *Order) TransitionTo(newStatus Status) error {
	if !o.CanTransitionTo(newStatus) {
		return ErrInvalidStatusTransition
	}
	o.Status = newStatus
	return nil
}

// CanTransitionTo checks if the order can transition to the new status
func (o *Order) CanTransitionTo(newStatus Status) bool {
	validTransitions := map[Status][]Status{
		StatusPending:   {StatusCooking, StatusReady, StatusCancelled},
		StatusCooking:   {StatusReady, StatusCancelled},
		StatusReady:     {StatusPaid, StatusDelivered, StatusCancelled},
		StatusDelivered: {StatusPaid, StatusCancelled},
		StatusPaid:      {},
		StatusCancelled: {},
	}

	// a dine-in order is served at the table, never dispatched
	if newStatus == StatusDelivered && o.Type == OrderTypeDineIn {
		return false
	}

	allowed, known := validTransitions[o.Status]
	if !known {
		// unrecognized backend status: only the exits every live order has
		return newStatus == StatusCancelled
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

// CountActiveOnTable counts orders on the table that are neither paid nor cancelled
func CountActiveOnTable(orders []Order, tableID string) int {
	n := 0
	for i := range orders {
		if orders[i].TableID == tableID && orders[i].IsActive() {
			n++
		}
	}
	return n
}

// FindOrder returns the order with the given id
func FindOrder(orders []Order, id string) (Order, bool) {
	for _, o := range orders {
		if o.ID == id {
			return o, true
		}
	}
	return Order{}, false
}

var (
	// ErrValidation wraps rejected user input that has no sentinel of its own
	ErrValidation              = errors.New("validation failed")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidOrderType        = errors.New("invalid order type")
	ErrEmptyOrder              = errors.New("order must have at least one item")
	ErrInvalidQuantity         = errors.New("item quantity must be a positive integer")
	ErrNegativeAmount          = errors.New("amount must not be negative")
	ErrUnknownOrder            = errors.New("order not found")
	ErrUnconfirmedOrder        = errors.New("order is not confirmed by the backend yet")
	ErrConfirmationRequired    = errors.New("destructive action requires explicit confirmation")
)
