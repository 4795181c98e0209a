package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveOccupancy(t *testing.T) {
	layout := NewLayout(4)
	layout[3].IsOccupied = true // drift from an optimistic write

	orders := []Order{
		{ID: "a", TableID: "t-1", Status: StatusPending},
		{ID: "b", TableID: "t-2", Status: StatusPaid},
		{ID: "c", TableID: "t-3", Status: StatusCancelled},
		{ID: "d", TableID: "t-3", Status: StatusReady},
		{ID: "e", Type: OrderTypeDelivery, Status: StatusPending},
	}

	tables := DeriveOccupancy(layout, orders)

	assert.True(t, tables[0].IsOccupied)
	assert.False(t, tables[1].IsOccupied)
	assert.True(t, tables[2].IsOccupied)
	assert.False(t, tables[3].IsOccupied)
	assert.True(t, layout[3].IsOccupied, "layout must not be mutated")
}

func TestResolveTableRef(t *testing.T) {
	tables := NewLayout(6)

	assert.Equal(t, "t-4", ResolveTableRef(tables, "t-4"))
	assert.Equal(t, "t-4", ResolveTableRef(tables, "4"))
	assert.Equal(t, "patio", ResolveTableRef(tables, "patio"))
	assert.Equal(t, "", ResolveTableRef(tables, " "))
}

func TestRoleCanView(t *testing.T) {
	assert.True(t, RoleAdmin.CanView(ViewKitchen))
	assert.True(t, RoleWaiter.CanView(ViewDelivery))
	assert.False(t, RoleWaiter.CanView(ViewKitchen))
	assert.False(t, RoleKitchen.CanView(ViewAdmin))

	role, err := ParseRole("cook")
	assert.NoError(t, err)
	assert.Equal(t, RoleKitchen, role)
	assert.Equal(t, ViewKitchen, role.DefaultView())
}
