package views

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/refugio-pos/internal/app/catalog"
	"github.com/YelzhanWeb/refugio-pos/internal/app/tablesync"
	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

type StateSource interface {
	Snapshot() tablesync.Snapshot
}

type CatalogSource interface {
	Items() []domain.MenuItem
	ByCategory() []catalog.CategoryGroup
}

type GeneratedMenuSource interface {
	Last() []domain.MenuItem
}

// Service builds the read-only screens of each role from the current state
type Service struct {
	state    StateSource
	catalog  CatalogSource
	menus    GeneratedMenuSource
	journal  interfaces.StatusJournal
	sessions interfaces.SessionRepository
	// sessions not heard from for this long are reported offline
	offlineAfter time.Duration
}

func NewService(
	state StateSource,
	catalog CatalogSource,
	menus GeneratedMenuSource,
	journal interfaces.StatusJournal,
	sessions interfaces.SessionRepository,
	offlineAfter time.Duration,
) *Service {
	return &Service{
		state:        state,
		catalog:      catalog,
		menus:        menus,
		journal:      journal,
		sessions:     sessions,
		offlineAfter: offlineAfter,
	}
}

type TableCard struct {
	Table        domain.Table
	ActiveOrders []domain.Order
	Pending      []domain.PendingOrder
	Ready        bool
	OpenTotal    decimal.Decimal
}

type WaiterView struct {
	Tables   []TableCard
	Menu     []catalog.CategoryGroup
	SyncedAt time.Time
}

type KitchenTicket struct {
	Order       domain.Order
	TableNumber int
}

type KitchenView struct {
	ToCook []KitchenTicket
	Ready  []KitchenTicket
}

type TableTotal struct {
	Table      domain.Table
	OpenOrders int
	Total      decimal.Decimal
}

type AdminView struct {
	Occupied    []TableTotal
	GrandTotal  decimal.Decimal
	CatalogSize int
	Catalog     []domain.MenuItem
	Generated   []domain.MenuItem
}

type DeliveryView struct {
	Orders []domain.Order
}

func (s *Service) Waiter() WaiterView {
	snap := s.state.Snapshot()

	view := WaiterView{
		Tables:   make([]TableCard, 0, len(snap.Tables)),
		Menu:     s.catalog.ByCategory(),
		SyncedAt: snap.SyncedAt,
	}
	for _, table := range snap.Tables {
		card := TableCard{Table: table, OpenTotal: decimal.Zero}
		for _, o := range snap.Orders {
			if o.TableID != table.ID || !o.IsActive() {
				continue
			}
			card.ActiveOrders = append(card.ActiveOrders, o)
			card.OpenTotal = card.OpenTotal.Add(o.Total)
			if o.Status == domain.StatusReady {
				card.Ready = true
			}
		}
		for _, p := range snap.Pending {
			if p.Order.TableID == table.ID && !snap.Fetched(p) {
				card.Pending = append(card.Pending, p)
			}
		}
		view.Tables = append(view.Tables, card)
	}
	return view
}

// Kitchen lists confirmed orders still to cook and those waiting for pickup,
// oldest first
func (s *Service) Kitchen() KitchenView {
	snap := s.state.Snapshot()
	numbers := tableNumbers(snap.Tables)

	orders := append([]domain.Order(nil), snap.Orders...)
	sortOldestFirst(orders)

	var view KitchenView
	for _, o := range orders {
		ticket := KitchenTicket{Order: o, TableNumber: numbers[o.TableID]}
		switch o.Status {
		case domain.StatusPending, domain.StatusCooking:
			view.ToCook = append(view.ToCook, ticket)
		case domain.StatusReady:
			view.Ready = append(view.Ready, ticket)
		}
	}
	return view
}

// Admin totals open orders per occupied table. Pending orders that have not
// failed count too, since they already occupy the table on screen.
func (s *Service) Admin() AdminView {
	snap := s.state.Snapshot()
	visible := snap.VisibleOrders()
	items := s.catalog.Items()

	view := AdminView{
		GrandTotal:  decimal.Zero,
		CatalogSize: len(items),
		Catalog:     items,
	}
	if s.menus != nil {
		view.Generated = s.menus.Last()
	}

	for _, table := range snap.Tables {
		if !table.IsOccupied {
			continue
		}
		total := TableTotal{Table: table, Total: decimal.Zero}
		for _, o := range visible {
			if o.TableID == table.ID && o.IsActive() {
				total.OpenOrders++
				total.Total = total.Total.Add(o.Total)
			}
		}
		view.GrandTotal = view.GrandTotal.Add(total.Total)
		view.Occupied = append(view.Occupied, total)
	}
	return view
}

// Delivery lists live orders that leave the restaurant
func (s *Service) Delivery() DeliveryView {
	snap := s.state.Snapshot()

	var view DeliveryView
	for _, o := range snap.Orders {
		if o.Type == domain.OrderTypeDineIn || !o.IsActive() {
			continue
		}
		view.Orders = append(view.Orders, o)
	}
	sortOldestFirst(view.Orders)
	return view
}

// For returns the named view if the role's navigation offers it
func (s *Service) For(role domain.Role, view domain.View) (interface{}, error) {
	if !role.CanView(view) {
		return nil, fmt.Errorf("role %s cannot open the %s view: %w", role, view, ErrViewNotAllowed)
	}
	switch view {
	case domain.ViewWaiter:
		return s.Waiter(), nil
	case domain.ViewKitchen:
		return s.Kitchen(), nil
	case domain.ViewAdmin:
		return s.Admin(), nil
	case domain.ViewDelivery:
		return s.Delivery(), nil
	}
	return nil, fmt.Errorf("unknown view %q: %w", view, ErrViewNotAllowed)
}

func (s *Service) GetOrderHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error) {
	return s.journal.GetStatusHistory(ctx, orderID)
}

// GetSessionsStatus lists terminal sessions, reporting silent ones as offline
func (s *Service) GetSessionsStatus(ctx context.Context) ([]*domain.TerminalSession, error) {
	sessions, err := s.sessions.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, session := range sessions {
		if session.Status == domain.SessionStatusOnline && !session.IsOnline(s.offlineAfter) {
			session.Status = domain.SessionStatusOffline
		}
	}
	return sessions, nil
}

func tableNumbers(tables []domain.Table) map[string]int {
	numbers := make(map[string]int, len(tables))
	for _, t := range tables {
		numbers[t.ID] = t.Number
	}
	return numbers
}

func sortOldestFirst(orders []domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Timestamp.Before(orders[j].Timestamp)
	})
}
