package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/logger"
	"github.com/YelzhanWeb/refugio-pos/internal/adapter/memory"
	"github.com/YelzhanWeb/refugio-pos/internal/app/notify"
	"github.com/YelzhanWeb/refugio-pos/internal/app/tablesync"
	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

var burger = domain.MenuItem{ID: "1", Name: "Burger", Price: decimal.RequireFromString("10.00"), Category: "Hamburguesas"}

type staticUser struct{ domain.User }

func (u staticUser) CurrentUser() (domain.User, bool) { return u.User, true }

type harness struct {
	svc      *Service
	backend  *memory.Backend
	sync     *tablesync.Service
	store    *tablesync.Store
	center   *notify.Center
	journal  *memory.StatusJournal
	sessions *memory.SessionRepository
}

func newHarness(t *testing.T, gateway interfaces.OrderGateway, backend *memory.Backend) *harness {
	t.Helper()
	if gateway == nil {
		gateway = backend
	}
	log := logger.Discard()
	store := tablesync.NewStore(domain.NewLayout(6))
	synchronizer := tablesync.NewService(backend, store, nil, log)
	center := notify.NewCenter(50)
	journal := memory.NewStatusJournal()
	sessions := memory.NewSessionRepository()

	session, err := domain.NewTerminalSession("ana", domain.RoleWaiter)
	require.NoError(t, err)
	require.NoError(t, sessions.Create(context.Background(), session))

	user := staticUser{domain.User{Username: "ana", Role: domain.RoleWaiter}}
	svc := NewService(gateway, synchronizer, store, journal, sessions, user, center, log)
	return &harness{svc, backend, synchronizer, store, center, journal, sessions}
}

func seeded(id, tableID string, status domain.Status, price string, qty int) domain.Order {
	item := burger
	item.Price = decimal.RequireFromString(price)
	return domain.Order{
		ID:        id,
		Type:      domain.OrderTypeDineIn,
		TableID:   tableID,
		Status:    status,
		Items:     []domain.OrderItem{{MenuItem: item, Quantity: qty}},
		Timestamp: time.Now(),
	}
}

func tableOccupied(store *tablesync.Store, id string) bool {
	table, _ := domain.FindTable(store.Tables(), id)
	return table.IsOccupied
}

// blockingGateway holds CreateOrder until released
type blockingGateway struct {
	*memory.Backend
	entered chan struct{}
	release chan struct{}
}

func (g *blockingGateway) CreateOrder(ctx context.Context, order domain.Order) (string, error) {
	close(g.entered)
	<-g.release
	return g.Backend.CreateOrder(ctx, order)
}

func TestPlaceOrderIsVisibleBeforeResponse(t *testing.T) {
	backend := memory.NewBackend()
	gateway := &blockingGateway{Backend: backend, entered: make(chan struct{}), release: make(chan struct{})}
	h := newHarness(t, gateway, backend)

	done := make(chan *domain.PendingOrder, 1)
	go func() {
		p, err := h.svc.PlaceOrder(context.Background(), "t-1", []domain.OrderItem{{MenuItem: burger, Quantity: 2}})
		assert.NoError(t, err)
		done <- p
	}()

	<-gateway.entered
	snap := h.store.Snapshot()
	require.Len(t, snap.Pending, 1)
	local := snap.Pending[0]
	assert.Equal(t, domain.PendingSubmitting, local.State)
	assert.Equal(t, domain.StatusPending, local.Order.Status)
	assert.True(t, local.Order.Total.Equal(decimal.NewFromInt(20)))
	assert.True(t, domain.IsTemporaryID(local.Order.ID))
	assert.True(t, tableOccupied(h.store, "t-1"))

	close(gateway.release)
	placed := <-done
	require.NotNil(t, placed)
	assert.Equal(t, domain.PendingConfirmed, placed.State)
	assert.NotEmpty(t, placed.ConfirmedID)

	snap = h.store.Snapshot()
	assert.Empty(t, snap.Pending, "reconciled by the forced refresh")
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, placed.ConfirmedID, snap.Orders[0].ID)
	assert.True(t, tableOccupied(h.store, "t-1"))

	session, err := h.sessions.FindByName(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, 1, session.OrdersPlaced)
}

func TestPlaceOrderValidation(t *testing.T) {
	h := newHarness(t, nil, memory.NewBackend())
	ctx := context.Background()

	_, err := h.svc.PlaceOrder(ctx, "t-1", nil)
	assert.ErrorIs(t, err, domain.ErrEmptyOrder)

	_, err = h.svc.PlaceOrder(ctx, "t-99", []domain.OrderItem{{MenuItem: burger, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrUnknownTable)

	_, err = h.svc.PlaceOrder(ctx, "t-1", []domain.OrderItem{{MenuItem: burger, Quantity: 0}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	assert.Empty(t, h.backend.Calls())
	assert.Empty(t, h.store.Snapshot().Pending)
}

func TestPlaceOrderFailureKeepsAndFlags(t *testing.T) {
	backend := memory.NewBackend()
	h := newHarness(t, nil, backend)
	ctx := context.Background()
	backend.FailNext(memory.CallCreateOrder, errors.New("503 service unavailable"))

	failed, err := h.svc.PlaceOrder(ctx, "t-2", []domain.OrderItem{{MenuItem: burger, Quantity: 1}})
	require.Error(t, err)
	require.NotNil(t, failed)
	assert.Equal(t, domain.PendingFailed, failed.State)
	assert.Contains(t, failed.Err, "503")

	still, ok := h.store.Pending(failed.Order.ID)
	require.True(t, ok, "a failed order stays on screen")
	assert.Equal(t, domain.PendingFailed, still.State)

	alert := h.center.Recent(1)[0]
	assert.Equal(t, domain.LevelError, alert.Level)
	assert.Equal(t, "MESA 2", alert.Title)
	assert.Equal(t, domain.ErrorAlertDuration, alert.Duration)
	assert.False(t, alert.Persistent)

	retried, err := h.svc.RetryPending(ctx, failed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PendingConfirmed, retried.State)
	assert.Len(t, backend.Orders(), 1)
	assert.True(t, tableOccupied(h.store, "t-2"))
}

func TestDiscardPending(t *testing.T) {
	backend := memory.NewBackend()
	h := newHarness(t, nil, backend)
	backend.FailNext(memory.CallCreateOrder, errors.New("rejected"))

	failed, err := h.svc.PlaceOrder(context.Background(), "t-3", []domain.OrderItem{{MenuItem: burger, Quantity: 1}})
	require.Error(t, err)
	assert.True(t, tableOccupied(h.store, "t-3"))

	require.NoError(t, h.svc.DiscardPending(failed.Order.ID))
	assert.False(t, tableOccupied(h.store, "t-3"))
	assert.Empty(t, h.store.Snapshot().Pending)
}

func TestSettleFreesIdleTable(t *testing.T) {
	backend := memory.NewBackend()
	backend.SeedOrders(seeded("o1", "t-2", domain.StatusReady, "35.50", 1))
	h := newHarness(t, nil, backend)
	ctx := context.Background()
	_, err := h.sync.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, tableOccupied(h.store, "t-2"))

	require.NoError(t, h.svc.SettleOrder(ctx, "o1", "t-2"))

	o1, ok := h.store.Order("o1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusPaid, o1.Status)
	assert.True(t, o1.Total.Equal(decimal.RequireFromString("35.50")))
	assert.False(t, tableOccupied(h.store, "t-2"))

	occupied, written := backend.Occupancy("t-2")
	assert.True(t, written)
	assert.False(t, occupied)
}

func TestSettleKeepsTableWithOtherActiveOrders(t *testing.T) {
	backend := memory.NewBackend()
	backend.SeedOrders(
		seeded("o2", "t-3", domain.StatusReady, "12.00", 1),
		seeded("o3", "t-3", domain.StatusPending, "8.00", 1),
	)
	h := newHarness(t, nil, backend)
	ctx := context.Background()
	_, err := h.sync.Refresh(ctx)
	require.NoError(t, err)

	require.NoError(t, h.svc.SettleOrder(ctx, "o2", "t-3"))

	assert.True(t, tableOccupied(h.store, "t-3"))
	_, written := backend.Occupancy("t-3")
	assert.False(t, written, "no release while o3 is active")
}

func TestSettleResolvesTableNumber(t *testing.T) {
	backend := memory.NewBackend()
	backend.SeedOrders(
		seeded("o2", "t-3", domain.StatusReady, "12.00", 1),
		seeded("o3", "t-3", domain.StatusPending, "8.00", 1),
	)
	h := newHarness(t, nil, backend)
	ctx := context.Background()
	_, err := h.sync.Refresh(ctx)
	require.NoError(t, err)

	require.NoError(t, h.svc.SettleOrder(ctx, "o2", "3"))

	o2, ok := h.store.Order("o2")
	require.True(t, ok)
	assert.Equal(t, domain.StatusPaid, o2.Status)
	assert.True(t, tableOccupied(h.store, "t-3"))
	_, written := backend.Occupancy("t-3")
	assert.False(t, written, "o3 still holds the table")
	_, written = backend.Occupancy("3")
	assert.False(t, written)
}

func TestSettleRejectsOtherTable(t *testing.T) {
	backend := memory.NewBackend()
	backend.SeedOrders(
		seeded("o2", "t-3", domain.StatusReady, "12.00", 1),
		seeded("o5", "t-1", domain.StatusPending, "8.00", 1),
	)
	h := newHarness(t, nil, backend)
	ctx := context.Background()
	_, err := h.sync.Refresh(ctx)
	require.NoError(t, err)

	for _, ref := range []string{"t-1", "1"} {
		err = h.svc.SettleOrder(ctx, "o2", ref)
		assert.ErrorIs(t, err, domain.ErrValidation, ref)
	}

	assert.NotContains(t, backend.Calls(), memory.CallUpdateStatus)
	assert.NotContains(t, backend.Calls(), memory.CallSetOccupancy)
	o2, ok := h.store.Order("o2")
	require.True(t, ok)
	assert.Equal(t, domain.StatusReady, o2.Status)
	assert.True(t, tableOccupied(h.store, "t-1"))
}

func TestSettleWithoutFreshListKeepsTable(t *testing.T) {
	backend := memory.NewBackend()
	backend.SeedOrders(seeded("o1", "t-1", domain.StatusReady, "10.00", 1))
	h := newHarness(t, nil, backend)
	ctx := context.Background()
	_, err := h.sync.Refresh(ctx)
	require.NoError(t, err)

	backend.FailNext(memory.CallListOrders, errors.New("timeout"))
	err = h.svc.SettleOrder(ctx, "o1", "t-1")
	assert.ErrorIs(t, err, ErrResyncFailed)

	_, written := backend.Occupancy("t-1")
	assert.False(t, written)
	assert.True(t, tableOccupied(h.store, "t-1"), "previous state retained")
}

func TestSettleRequiresReady(t *testing.T) {
	backend := memory.NewBackend()
	backend.SeedOrders(seeded("o1", "t-1", domain.StatusCooking, "10.00", 1))
	h := newHarness(t, nil, backend)
	_, err := h.sync.Refresh(context.Background())
	require.NoError(t, err)

	err = h.svc.SettleOrder(context.Background(), "o1", "t-1")
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
}

func TestReadyAlertUsesRefreshedTable(t *testing.T) {
	backend := memory.NewBackend()
	backend.SeedOrders(seeded("o4", "t-4", domain.StatusCooking, "10.00", 1))
	h := newHarness(t, nil, backend)
	ctx := context.Background()

	// the local cache still believes o4 sits at t-2
	stale := seeded("o4", "t-2", domain.StatusCooking, "10.00", 1)
	applied, _ := h.store.Replace(h.store.NextSeq(), []domain.Order{stale})
	require.True(t, applied)

	require.NoError(t, h.svc.AdvanceStatus(ctx, "o4", domain.StatusReady))

	alert := h.center.Recent(1)[0]
	assert.Equal(t, domain.LevelAlert, alert.Level)
	assert.Equal(t, "MESA 4", alert.Title)
	assert.Contains(t, alert.Message, "MESA 4")
	assert.Equal(t, 4, alert.TableNumber)
	assert.True(t, alert.Persistent)
	assert.GreaterOrEqual(t, alert.Duration, 8*time.Second)
}

func TestReadyAlertWithoutFreshList(t *testing.T) {
	backend := memory.NewBackend()
	backend.SeedOrders(seeded("o5", "t-5", domain.StatusCooking, "10.00", 1))
	h := newHarness(t, nil, backend)
	ctx := context.Background()
	_, err := h.sync.Refresh(ctx)
	require.NoError(t, err)

	backend.FailNext(memory.CallListOrders, errors.New("timeout"))
	err = h.svc.AdvanceStatus(ctx, "o5", domain.StatusReady)
	assert.ErrorIs(t, err, ErrResyncFailed)

	var alert domain.Notification
	for _, n := range h.center.Recent(0) {
		if n.Level == domain.LevelAlert {
			alert = n
		}
	}
	assert.Equal(t, "o5", alert.OrderID)
	assert.Zero(t, alert.TableNumber, "no table is named from stale data")
}

func TestAdvanceStatusRules(t *testing.T) {
	backend := memory.NewBackend()
	backend.SeedOrders(seeded("o1", "t-1", domain.StatusPending, "10.00", 1))
	h := newHarness(t, nil, backend)
	ctx := context.Background()
	_, err := h.sync.Refresh(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, h.svc.AdvanceStatus(ctx, "o1", domain.StatusPaid), domain.ErrInvalidStatusTransition)
	assert.ErrorIs(t, h.svc.AdvanceStatus(ctx, "o1", domain.StatusDelivered), domain.ErrInvalidStatusTransition)
	assert.ErrorIs(t, h.svc.AdvanceStatus(ctx, "tmp-123", domain.StatusCooking), domain.ErrUnconfirmedOrder)
	assert.ErrorIs(t, h.svc.AdvanceStatus(ctx, "missing", domain.StatusCooking), domain.ErrUnknownOrder)

	require.NoError(t, h.svc.AdvanceStatus(ctx, "o1", "cooking"))
	o1, _ := h.store.Order("o1")
	assert.Equal(t, domain.StatusCooking, o1.Status)

	history, err := h.svc.History(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.StatusCooking, history[0].Status)
	assert.Equal(t, "ana", history[0].ChangedBy)
}

func TestAdvanceStatusRejectedByBackend(t *testing.T) {
	backend := memory.NewBackend()
	backend.SeedOrders(seeded("o1", "t-1", domain.StatusPending, "10.00", 1))
	h := newHarness(t, nil, backend)
	ctx := context.Background()
	_, err := h.sync.Refresh(ctx)
	require.NoError(t, err)

	backend.FailNext(memory.CallUpdateStatus, errors.New("conflict"))
	require.Error(t, h.svc.AdvanceStatus(ctx, "o1", domain.StatusCooking))

	assert.Equal(t, domain.LevelError, h.center.Recent(1)[0].Level)
	o1, _ := h.store.Order("o1")
	assert.Equal(t, domain.StatusPending, o1.Status)
}

func TestCancelOrder(t *testing.T) {
	backend := memory.NewBackend()
	backend.SeedOrders(seeded("o1", "t-6", domain.StatusCooking, "10.00", 1))
	h := newHarness(t, nil, backend)
	ctx := context.Background()
	_, err := h.sync.Refresh(ctx)
	require.NoError(t, err)
	calls := len(backend.Calls())

	assert.ErrorIs(t, h.svc.CancelOrder(ctx, "o1", false), domain.ErrConfirmationRequired)
	assert.Len(t, backend.Calls(), calls, "nothing is sent without confirmation")

	require.NoError(t, h.svc.CancelOrder(ctx, "o1", true))
	o1, _ := h.store.Order("o1")
	assert.Equal(t, domain.StatusCancelled, o1.Status)
	assert.False(t, tableOccupied(h.store, "t-6"))

	occupied, written := backend.Occupancy("t-6")
	assert.True(t, written)
	assert.False(t, occupied)
}

func TestExtraChargeBoundary(t *testing.T) {
	h := newHarness(t, nil, memory.NewBackend())
	ctx := context.Background()

	without, err := h.svc.PlaceOrder(ctx, "t-1", []domain.OrderItem{{MenuItem: burger, Quantity: 3}})
	require.NoError(t, err)
	with, err := h.svc.PlaceOrder(ctx, "t-2", []domain.OrderItem{{MenuItem: burger, Quantity: 3, ExtraCharge: decimal.Zero}})
	require.NoError(t, err)

	assert.True(t, without.Order.Total.Equal(with.Order.Total))
}
