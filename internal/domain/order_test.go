package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func burger() MenuItem {
	return MenuItem{ID: "1", Name: "Burger", Price: decimal.NewFromInt(10), Category: "Hamburguesas"}
}

func TestNewOrder(t *testing.T) {
	t.Run("pending with computed total", func(t *testing.T) {
		order, err := NewOrder(OrderTypeDineIn, "t-1", []OrderItem{{MenuItem: burger(), Quantity: 2}}, time.Now())
		require.NoError(t, err)

		assert.Equal(t, StatusPending, order.Status)
		assert.True(t, IsTemporaryID(order.ID))
		assert.Equal(t, "20.00", order.Total.StringFixed(2))
	})

	t.Run("rejects empty item list", func(t *testing.T) {
		_, err := NewOrder(OrderTypeDineIn, "t-1", nil, time.Now())
		assert.ErrorIs(t, err, ErrEmptyOrder)
	})

	t.Run("rejects non positive quantity", func(t *testing.T) {
		_, err := NewOrder(OrderTypeDineIn, "t-1", []OrderItem{{MenuItem: burger(), Quantity: 0}}, time.Now())
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("rejects negative extra charge", func(t *testing.T) {
		item := OrderItem{MenuItem: burger(), Quantity: 1, ExtraCharge: decimal.NewFromInt(-1)}
		_, err := NewOrder(OrderTypeDineIn, "t-1", []OrderItem{item}, time.Now())
		assert.ErrorIs(t, err, ErrNegativeAmount)
	})

	t.Run("dine-in requires a table", func(t *testing.T) {
		_, err := NewOrder(OrderTypeDineIn, "", []OrderItem{{MenuItem: burger(), Quantity: 1}}, time.Now())
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestComputedTotal_ExtraCharge(t *testing.T) {
	withoutExtra := Order{Items: []OrderItem{{MenuItem: burger(), Quantity: 3}}}
	zeroExtra := Order{Items: []OrderItem{{MenuItem: burger(), Quantity: 3, ExtraCharge: decimal.Zero}}}
	withExtra := Order{Items: []OrderItem{{MenuItem: burger(), Quantity: 3, ExtraCharge: decimal.RequireFromString("1.50")}}}

	assert.True(t, withoutExtra.ComputedTotal().Equal(zeroExtra.ComputedTotal()))
	assert.Equal(t, "34.50", withExtra.ComputedTotal().StringFixed(2))
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name      string
		orderType OrderType
		from      Status
		to        Status
		want      bool
	}{
		{"pending to cooking", OrderTypeDineIn, StatusPending, StatusCooking, true},
		{"pending straight to ready", OrderTypeDineIn, StatusPending, StatusReady, true},
		{"cooking to ready", OrderTypeDineIn, StatusCooking, StatusReady, true},
		{"ready to paid", OrderTypeDineIn, StatusReady, StatusPaid, true},
		{"pending to paid", OrderTypeDineIn, StatusPending, StatusPaid, false},
		{"cooking to paid", OrderTypeDineIn, StatusCooking, StatusPaid, false},
		{"dine-in never delivered", OrderTypeDineIn, StatusReady, StatusDelivered, false},
		{"delivery dispatched", OrderTypeDelivery, StatusReady, StatusDelivered, true},
		{"delivered to paid", OrderTypeDelivery, StatusDelivered, StatusPaid, true},
		{"cancel from pending", OrderTypeDineIn, StatusPending, StatusCancelled, true},
		{"cancel from ready", OrderTypeDineIn, StatusReady, StatusCancelled, true},
		{"paid is terminal", OrderTypeDineIn, StatusPaid, StatusCancelled, false},
		{"cancelled is terminal", OrderTypeDineIn, StatusCancelled, StatusPending, false},
		{"unknown status can be cancelled", OrderTypeDineIn, Status("ON_HOLD"), StatusCancelled, true},
		{"unknown status cannot be paid", OrderTypeDineIn, Status("ON_HOLD"), StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Order{Type: tt.orderType, Status: tt.from}
			assert.Equal(t, tt.want, o.CanTransitionTo(tt.to))

			err := o.TransitionTo(tt.to)
			if tt.want {
				require.NoError(t, err)
				assert.Equal(t, tt.to, o.Status)
			} else {
				assert.ErrorIs(t, err, ErrInvalidStatusTransition)
				assert.Equal(t, tt.from, o.Status)
			}
		})
	}
}

func TestParseStatusAndType(t *testing.T) {
	assert.Equal(t, StatusReady, ParseStatus(" ready "))
	assert.Equal(t, StatusCancelled, ParseStatus("canceled"))
	assert.True(t, Status("SOMETHING").IsActive())

	typ, ok := ParseOrderType("take-away")
	assert.True(t, ok)
	assert.Equal(t, OrderTypeTakeAway, typ)

	_, ok = ParseOrderType("drone")
	assert.False(t, ok)
}

func TestCountActiveOnTable(t *testing.T) {
	orders := []Order{
		{ID: "1", TableID: "t-3", Status: StatusReady},
		{ID: "2", TableID: "t-3", Status: StatusPending},
		{ID: "3", TableID: "t-3", Status: StatusPaid},
		{ID: "4", TableID: "t-2", Status: StatusCooking},
	}
	assert.Equal(t, 2, CountActiveOnTable(orders, "t-3"))
	assert.Equal(t, 0, CountActiveOnTable(orders, "t-5"))
}
