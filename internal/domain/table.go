package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Table represents a dining table. IsOccupied is always derived from orders.
type Table struct {
	ID         string
	Number     int
	IsOccupied bool
}

// TableID returns the id of the table with the given display number
func TableID(number int) string {
	return fmt.Sprintf("t-%d", number)
}

// NewLayout creates count free tables numbered from 1
func NewLayout(count int) []Table {
	tables := make([]Table, count)
	for i := range tables {
		tables[i] = Table{ID: TableID(i + 1), Number: i + 1}
	}
	return tables
}

// DeriveOccupancy recomputes occupancy of every table from scratch: a table is
// occupied iff an active order references it. The layout is not modified.
func DeriveOccupancy(layout []Table, orders []Order) []Table {
	occupied := make(map[string]bool)
	for i := range orders {
		if orders[i].TableID != "" && orders[i].IsActive() {
			occupied[orders[i].TableID] = true
		}
	}

	tables := make([]Table, len(layout))
	for i, t := range layout {
		t.IsOccupied = occupied[t.ID]
		tables[i] = t
	}
	return tables
}

// FindTable looks a table up by id
func FindTable(tables []Table, id string) (Table, bool) {
	for _, t := range tables {
		if t.ID == id {
			return t, true
		}
	}
	return Table{}, false
}

// ResolveTableRef maps a backend table reference onto a layout id. Bare numbers
// ("4") are matched against table numbers; anything unknown is returned as is.
func ResolveTableRef(tables []Table, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if _, ok := FindTable(tables, ref); ok {
		return ref
	}
	if n, err := strconv.Atoi(ref); err == nil {
		for _, t := range tables {
			if t.Number == n {
				return t.ID
			}
		}
	}
	return ref
}

type PendingState string

const (
	PendingSubmitting PendingState = "SUBMITTING"
	PendingConfirmed  PendingState = "CONFIRMED"
	PendingFailed     PendingState = "FAILED"
)

// PendingOrder is an optimistic order the backend has not confirmed yet. It is
// kept apart from the fetched collection until a refresh reconciles it.
type PendingOrder struct {
	Order       Order
	State       PendingState
	ConfirmedID string
	Err         string
	UpdatedAt   time.Time
}

var ErrUnknownTable = errors.New("table not found")
