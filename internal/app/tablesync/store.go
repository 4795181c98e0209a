package tablesync

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/YelzhanWeb/refugio-pos/internal/domain"
)

// Snapshot is a consistent copy of the canonical state
type Snapshot struct {
	Orders   []domain.Order
	Pending  []domain.PendingOrder
	Tables   []domain.Table
	Version  uint64
	SyncedAt time.Time
}

// VisibleOrders merges fetched orders with pending ones that have not failed
func (s Snapshot) VisibleOrders() []domain.Order {
	orders := make([]domain.Order, 0, len(s.Orders)+len(s.Pending))
	orders = append(orders, s.Orders...)
	for _, p := range s.Pending {
		if p.State != domain.PendingFailed && !s.Fetched(p) {
			orders = append(orders, p.Order)
		}
	}
	return orders
}

// Fetched reports whether a confirmed pending order already shows up in the
// fetched list under its backend id.
func (s Snapshot) Fetched(p domain.PendingOrder) bool {
	if p.State != domain.PendingConfirmed || p.ConfirmedID == "" {
		return false
	}
	_, ok := domain.FindOrder(s.Orders, p.ConfirmedID)
	return ok
}

type pendingEntry struct {
	domain.PendingOrder
	// last refresh dispatched before the backend confirmed the order
	confirmedAfter uint64
}

// Store owns the canonical orders and tables. Fetched orders are replaced
// wholesale; pending orders live beside them until a refresh reconciles them.
type Store struct {
	mu         sync.RWMutex
	layout     []domain.Table
	orders     []domain.Order
	tables     []domain.Table
	pending    map[string]*pendingEntry
	dispatched uint64
	applied    uint64
	syncedAt   time.Time
	now        func() time.Time
}

func NewStore(layout []domain.Table) *Store {
	return &Store{
		layout:  append([]domain.Table(nil), layout...),
		tables:  domain.DeriveOccupancy(layout, nil),
		pending: make(map[string]*pendingEntry),
		now:     time.Now,
	}
}

// Layout returns the configured tables with no occupancy
func (s *Store) Layout() []domain.Table {
	return append([]domain.Table(nil), s.layout...)
}

// NextSeq numbers a refresh at dispatch time
func (s *Store) NextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatched++
	return s.dispatched
}

// Replace installs a fetched order list if seq is newer than the last one
// applied. It reports whether it was applied and returns the canonical list.
func (s *Store) Replace(seq uint64, orders []domain.Order) (bool, []domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.applied {
		return false, append([]domain.Order(nil), s.orders...)
	}

	s.orders = append([]domain.Order(nil), orders...)
	s.applied = seq
	s.syncedAt = s.now()
	s.reconcileLocked(seq)
	s.deriveLocked()

	return true, append([]domain.Order(nil), s.orders...)
}

// reconcileLocked drops confirmed pending orders the snapshot accounts for.
// A snapshot dispatched before the confirmation cannot contain the order.
func (s *Store) reconcileLocked(seq uint64) {
	for id, p := range s.pending {
		if p.State != domain.PendingConfirmed || seq <= p.confirmedAfter {
			continue
		}
		if p.ConfirmedID == "" {
			delete(s.pending, id)
			continue
		}
		if _, ok := domain.FindOrder(s.orders, p.ConfirmedID); ok {
			delete(s.pending, id)
		}
	}
}

// deriveLocked recomputes occupancy from fetched orders only. Optimistic
// occupancy set by AddPending lasts until the next refresh.
func (s *Store) deriveLocked() {
	s.tables = domain.DeriveOccupancy(s.layout, s.orders)
}

func (s *Store) markOccupiedLocked(tableID string) {
	for i := range s.tables {
		if s.tables[i].ID == tableID {
			s.tables[i].IsOccupied = true
		}
	}
}

// AddPending registers an optimistic order and occupies its table
func (s *Store) AddPending(order domain.Order) domain.PendingOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &pendingEntry{PendingOrder: domain.PendingOrder{
		Order:     order,
		State:     domain.PendingSubmitting,
		UpdatedAt: s.now(),
	}}
	s.pending[order.ID] = entry
	s.markOccupiedLocked(order.TableID)
	return entry.PendingOrder
}

// ConfirmPending records the backend's acceptance. confirmedID may be empty.
func (s *Store) ConfirmPending(tempID, confirmedID string) (domain.PendingOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[tempID]
	if !ok {
		return domain.PendingOrder{}, fmt.Errorf("pending order %s: %w", tempID, domain.ErrUnknownOrder)
	}
	entry.State = domain.PendingConfirmed
	entry.ConfirmedID = confirmedID
	entry.Err = ""
	entry.UpdatedAt = s.now()
	entry.confirmedAfter = s.dispatched
	return entry.PendingOrder, nil
}

// FailPending flags the order; it stays visible until retried or discarded.
func (s *Store) FailPending(tempID string, cause error) (domain.PendingOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[tempID]
	if !ok {
		return domain.PendingOrder{}, fmt.Errorf("pending order %s: %w", tempID, domain.ErrUnknownOrder)
	}
	entry.State = domain.PendingFailed
	if cause != nil {
		entry.Err = cause.Error()
	}
	entry.UpdatedAt = s.now()
	return entry.PendingOrder, nil
}

// ResubmitPending moves a failed order back to SUBMITTING
func (s *Store) ResubmitPending(tempID string) (domain.PendingOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[tempID]
	if !ok {
		return domain.PendingOrder{}, fmt.Errorf("pending order %s: %w", tempID, domain.ErrUnknownOrder)
	}
	if entry.State != domain.PendingFailed {
		return domain.PendingOrder{}, fmt.Errorf("pending order %s is %s: %w", tempID, entry.State, ErrNotFailed)
	}
	entry.State = domain.PendingSubmitting
	entry.Err = ""
	entry.UpdatedAt = s.now()
	s.markOccupiedLocked(entry.Order.TableID)
	return entry.PendingOrder, nil
}

// DiscardPending forgets a failed order. Its table is recomputed the way a
// refresh would: occupied iff a fetched active order references it.
func (s *Store) DiscardPending(tempID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[tempID]
	if !ok {
		return fmt.Errorf("pending order %s: %w", tempID, domain.ErrUnknownOrder)
	}
	if entry.State != domain.PendingFailed {
		return fmt.Errorf("pending order %s is %s: %w", tempID, entry.State, ErrNotFailed)
	}
	delete(s.pending, tempID)

	tableID := entry.Order.TableID
	occupied := domain.CountActiveOnTable(s.orders, tableID) > 0
	for i := range s.tables {
		if s.tables[i].ID == tableID {
			s.tables[i].IsOccupied = occupied
		}
	}
	return nil
}

func (s *Store) Pending(tempID string) (domain.PendingOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.pending[tempID]
	if !ok {
		return domain.PendingOrder{}, false
	}
	return entry.PendingOrder, true
}

// Order looks a fetched order up by backend id
func (s *Store) Order(id string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.FindOrder(s.orders, id)
}

func (s *Store) Tables() []domain.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Table(nil), s.tables...)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make([]domain.PendingOrder, 0, len(s.pending))
	for _, entry := range s.pending {
		pending = append(pending, entry.PendingOrder)
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Order.Timestamp.Equal(pending[j].Order.Timestamp) {
			return pending[i].Order.ID < pending[j].Order.ID
		}
		return pending[i].Order.Timestamp.Before(pending[j].Order.Timestamp)
	})

	return Snapshot{
		Orders:   append([]domain.Order(nil), s.orders...),
		Pending:  pending,
		Tables:   append([]domain.Table(nil), s.tables...),
		Version:  s.applied,
		SyncedAt: s.syncedAt,
	}
}
