package views

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/memory"
	"github.com/YelzhanWeb/refugio-pos/internal/app/catalog"
	"github.com/YelzhanWeb/refugio-pos/internal/app/tablesync"
	"github.com/YelzhanWeb/refugio-pos/internal/domain"
)

type fixedCatalog struct{ items []domain.MenuItem }

func (c fixedCatalog) Items() []domain.MenuItem { return c.items }

func (c fixedCatalog) ByCategory() []catalog.CategoryGroup {
	return []catalog.CategoryGroup{{Category: "Hamburguesas", Items: c.items}}
}

type fixedMenu []domain.MenuItem

func (m fixedMenu) Last() []domain.MenuItem { return m }

var (
	base   = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	burger = domain.MenuItem{ID: "1", Name: "Burger", Price: decimal.NewFromInt(10), Category: "Hamburguesas"}
)

func mkOrder(id string, typ domain.OrderType, tableID string, status domain.Status, minutes, qty int) domain.Order {
	o := domain.Order{
		ID: id, Type: typ, TableID: tableID, Status: status,
		Items:     []domain.OrderItem{{MenuItem: burger, Quantity: qty}},
		Timestamp: base.Add(time.Duration(minutes) * time.Minute),
	}
	o.CalculateTotal()
	return o
}

func newTestService(t *testing.T, orders ...domain.Order) (*Service, *tablesync.Store) {
	t.Helper()
	store := tablesync.NewStore(domain.NewLayout(4))
	applied, _ := store.Replace(store.NextSeq(), orders)
	require.True(t, applied)

	svc := NewService(store, fixedCatalog{[]domain.MenuItem{burger}}, fixedMenu{{ID: "gen-1", Name: "Taco"}},
		memory.NewStatusJournal(), memory.NewSessionRepository(), time.Minute)
	return svc, store
}

func TestWaiterView(t *testing.T) {
	svc, store := newTestService(t,
		mkOrder("1", domain.OrderTypeDineIn, "t-1", domain.StatusReady, 0, 1),
		mkOrder("2", domain.OrderTypeDineIn, "t-1", domain.StatusCooking, 1, 2),
		mkOrder("3", domain.OrderTypeDineIn, "t-2", domain.StatusPaid, 2, 1),
	)
	store.AddPending(mkOrder(domain.NewTemporaryID(), domain.OrderTypeDineIn, "t-3", domain.StatusPending, 3, 1))

	view := svc.Waiter()
	require.Len(t, view.Tables, 4)

	t1 := view.Tables[0]
	assert.True(t, t1.Table.IsOccupied)
	assert.True(t, t1.Ready)
	assert.Len(t, t1.ActiveOrders, 2)
	assert.True(t, t1.OpenTotal.Equal(decimal.NewFromInt(30)))

	t2 := view.Tables[1]
	assert.False(t, t2.Table.IsOccupied)
	assert.Empty(t, t2.ActiveOrders)

	t3 := view.Tables[2]
	assert.True(t, t3.Table.IsOccupied)
	assert.Len(t, t3.Pending, 1)
	assert.Len(t, view.Menu, 1)
}

func TestKitchenView(t *testing.T) {
	svc, _ := newTestService(t,
		mkOrder("late", domain.OrderTypeDineIn, "t-2", domain.StatusPending, 5, 1),
		mkOrder("early", domain.OrderTypeDineIn, "t-1", domain.StatusCooking, 0, 1),
		mkOrder("ready", domain.OrderTypeTakeAway, "", domain.StatusReady, 1, 1),
		mkOrder("paid", domain.OrderTypeDineIn, "t-3", domain.StatusPaid, 1, 1),
	)

	view := svc.Kitchen()
	require.Len(t, view.ToCook, 2)
	assert.Equal(t, "early", view.ToCook[0].Order.ID)
	assert.Equal(t, 1, view.ToCook[0].TableNumber)
	assert.Equal(t, "late", view.ToCook[1].Order.ID)

	require.Len(t, view.Ready, 1)
	assert.Zero(t, view.Ready[0].TableNumber)
}

func TestAdminViewTotalsActiveOrdersOnly(t *testing.T) {
	svc, _ := newTestService(t,
		mkOrder("1", domain.OrderTypeDineIn, "t-1", domain.StatusCooking, 0, 2),
		mkOrder("2", domain.OrderTypeDineIn, "t-1", domain.StatusPaid, 1, 5),
		mkOrder("3", domain.OrderTypeDineIn, "t-4", domain.StatusReady, 2, 1),
	)

	view := svc.Admin()
	require.Len(t, view.Occupied, 2)
	assert.Equal(t, "t-1", view.Occupied[0].Table.ID)
	assert.Equal(t, 1, view.Occupied[0].OpenOrders)
	assert.True(t, view.Occupied[0].Total.Equal(decimal.NewFromInt(20)))
	assert.True(t, view.GrandTotal.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, 1, view.CatalogSize)
	assert.Len(t, view.Generated, 1)
}

func TestAdminViewCountsConfirmedOrderOnce(t *testing.T) {
	svc, store := newTestService(t)

	// refresh dispatched before the backend confirmed the order
	seq := store.NextSeq()
	tmp := mkOrder(domain.NewTemporaryID(), domain.OrderTypeDineIn, "t-2", domain.StatusPending, 0, 2)
	store.AddPending(tmp)
	_, err := store.ConfirmPending(tmp.ID, "o9")
	require.NoError(t, err)

	confirmed := tmp
	confirmed.ID = "o9"
	applied, _ := store.Replace(seq, []domain.Order{confirmed})
	require.True(t, applied)
	_, still := store.Pending(tmp.ID)
	require.True(t, still, "not reconciled by a refresh that predates confirmation")

	assert.Len(t, store.Snapshot().VisibleOrders(), 1)

	view := svc.Admin()
	require.Len(t, view.Occupied, 1)
	assert.Equal(t, 1, view.Occupied[0].OpenOrders)
	assert.True(t, view.Occupied[0].Total.Equal(decimal.NewFromInt(20)))
	assert.True(t, view.GrandTotal.Equal(decimal.NewFromInt(20)))

	waiter := svc.Waiter()
	assert.Len(t, waiter.Tables[1].ActiveOrders, 1)
	assert.Empty(t, waiter.Tables[1].Pending)
}

func TestDeliveryView(t *testing.T) {
	svc, _ := newTestService(t,
		mkOrder("1", domain.OrderTypeDelivery, "", domain.StatusReady, 0, 1),
		mkOrder("2", domain.OrderTypeTakeAway, "", domain.StatusDelivered, 1, 1),
		mkOrder("3", domain.OrderTypeDelivery, "", domain.StatusPaid, 2, 1),
		mkOrder("4", domain.OrderTypeDineIn, "t-1", domain.StatusReady, 3, 1),
	)

	view := svc.Delivery()
	require.Len(t, view.Orders, 2)
	assert.Equal(t, "1", view.Orders[0].ID)
	assert.Equal(t, "2", view.Orders[1].ID)
}

func TestForRespectsRoleNavigation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.For(domain.RoleWaiter, domain.ViewKitchen)
	assert.ErrorIs(t, err, ErrViewNotAllowed)

	v, err := svc.For(domain.RoleKitchen, domain.ViewKitchen)
	require.NoError(t, err)
	assert.IsType(t, KitchenView{}, v)

	_, err = svc.For(domain.RoleAdmin, domain.ViewDelivery)
	assert.NoError(t, err)
}

func TestSessionsStatusMarksSilentOffline(t *testing.T) {
	repo := memory.NewSessionRepository()
	ctx := context.Background()

	fresh, _ := domain.NewTerminalSession("ana", domain.RoleWaiter)
	silent, _ := domain.NewTerminalSession("luis", domain.RoleKitchen)
	silent.LastSeen = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.Create(ctx, silent))

	svc := NewService(tablesync.NewStore(nil), fixedCatalog{}, nil, memory.NewStatusJournal(), repo, time.Minute)
	sessions, err := svc.GetSessionsStatus(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, domain.SessionStatusOnline, sessions[0].Status)
	assert.Equal(t, domain.SessionStatusOffline, sessions[1].Status)
}
