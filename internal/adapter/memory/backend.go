package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

// Call names accepted by FailNext
const (
	CallListProducts  = "ListProducts"
	CallCreateProduct = "CreateProduct"
	CallUpdateProduct = "UpdateProduct"
	CallDeleteProduct = "DeleteProduct"
	CallListOrders    = "ListOrders"
	CallCreateOrder   = "CreateOrder"
	CallUpdateStatus  = "UpdateOrderStatus"
	CallSetOccupancy  = "SetTableOccupancy"
	CallGenerateMenu  = "GenerateMenu"
)

// Backend is an in-process stand-in for the REST service. The terminal runs
// against it when no backend url is configured; tests use it to inject failures.
type Backend struct {
	mu        sync.Mutex
	products  []domain.MenuItem
	orders    []domain.Order
	occupancy map[string]bool
	nextID    int
	echoIDs   bool
	failures  map[string][]error
	calls     []string
	menu      []domain.MenuItem
	onList    func()
}

func NewBackend() *Backend {
	return &Backend{
		occupancy: make(map[string]bool),
		nextID:    1,
		echoIDs:   true,
		failures:  make(map[string][]error),
	}
}

// NewDemoBackend returns a backend preloaded with a small catalog
func NewDemoBackend() *Backend {
	b := NewBackend()
	b.SeedProducts(
		domain.MenuItem{Name: "Hamburguesa Clásica", Price: decimal.RequireFromString("85.00"), Category: "Hamburguesas"},
		domain.MenuItem{Name: "Hamburguesa Doble", Price: decimal.RequireFromString("120.00"), Category: "Hamburguesas"},
		domain.MenuItem{Name: "Papas Fritas", Price: decimal.RequireFromString("35.00"), Category: "Acompañamientos"},
		domain.MenuItem{Name: "Refresco", Price: decimal.RequireFromString("25.00"), Category: "Bebidas"},
		domain.MenuItem{Name: "Agua de Horchata", Price: decimal.RequireFromString("30.00"), Category: "Bebidas"},
	)
	return b
}

// SeedProducts stores items, assigning ids to those without one
func (b *Backend) SeedProducts(items ...domain.MenuItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, item := range items {
		if item.ID == "" {
			item.ID = b.newID()
		}
		b.products = append(b.products, item)
	}
}

// SeedOrders stores orders as if another terminal had created them
func (b *Backend) SeedOrders(orders ...domain.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range orders {
		if o.ID == "" {
			o.ID = b.newID()
		}
		o.CalculateTotal()
		b.orders = append(b.orders, o)
	}
}

// SetEchoIDs controls whether CreateOrder answers with the new id
func (b *Backend) SetEchoIDs(echo bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.echoIDs = echo
}

// SetGeneratedMenu fixes the answer of GenerateMenu
func (b *Backend) SetGeneratedMenu(items []domain.MenuItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.menu = items
}

// FailNext makes the next call of the named operation return err
func (b *Backend) FailNext(call string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[call] = append(b.failures[call], err)
}

// OnListOrders runs fn inside ListOrders after the snapshot is taken
func (b *Backend) OnListOrders(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onList = fn
}

// Calls returns the operations served so far, in order
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// Occupancy reports the last value written through SetTableOccupancy
func (b *Backend) Occupancy(tableID string) (bool, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.occupancy[tableID]
	return v, ok
}

// Orders returns the stored orders
func (b *Backend) Orders() []domain.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Order(nil), b.orders...)
}

func (b *Backend) ListProducts(ctx context.Context) ([]domain.MenuItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(CallListProducts); err != nil {
		return nil, err
	}
	return append([]domain.MenuItem(nil), b.products...), nil
}

func (b *Backend) CreateProduct(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(CallCreateProduct); err != nil {
		return nil, err
	}
	item.ID = b.newID()
	b.products = append(b.products, item)
	return &item, nil
}

func (b *Backend) UpdateProduct(ctx context.Context, item domain.MenuItem) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(CallUpdateProduct); err != nil {
		return err
	}
	for i := range b.products {
		if b.products[i].ID == item.ID {
			b.products[i] = item
			return nil
		}
	}
	return fmt.Errorf("product %s: %w", item.ID, interfaces.ErrNotFound)
}

func (b *Backend) DeleteProduct(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(CallDeleteProduct); err != nil {
		return err
	}
	for i := range b.products {
		if b.products[i].ID == id {
			b.products = append(b.products[:i], b.products[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("product %s: %w", id, interfaces.ErrNotFound)
}

func (b *Backend) ListOrders(ctx context.Context, lookup interfaces.ProductLookup) (*interfaces.OrderSnapshot, error) {
	b.mu.Lock()
	if err := b.enter(CallListOrders); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	orders := make([]domain.Order, len(b.orders))
	copy(orders, b.orders)
	hook := b.onList
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	return &interfaces.OrderSnapshot{Orders: orders}, nil
}

func (b *Backend) CreateOrder(ctx context.Context, order domain.Order) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(CallCreateOrder); err != nil {
		return "", err
	}

	order.ID = b.newID()
	order.Items = append([]domain.OrderItem(nil), order.Items...)
	order.CalculateTotal()
	if order.Timestamp.IsZero() {
		order.Timestamp = time.Now()
	}
	b.orders = append(b.orders, order)

	if !b.echoIDs {
		return "", nil
	}
	return order.ID, nil
}

func (b *Backend) UpdateOrderStatus(ctx context.Context, orderID string, status domain.Status) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(CallUpdateStatus); err != nil {
		return err
	}
	for i := range b.orders {
		if b.orders[i].ID == orderID {
			b.orders[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("order %s: %w", orderID, interfaces.ErrNotFound)
}

func (b *Backend) SetTableOccupancy(ctx context.Context, tableID string, occupied bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(CallSetOccupancy); err != nil {
		return err
	}
	b.occupancy[tableID] = occupied
	return nil
}

func (b *Backend) GenerateMenu(ctx context.Context, concept string) ([]domain.MenuItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(CallGenerateMenu); err != nil {
		return nil, err
	}
	if b.menu != nil {
		return append([]domain.MenuItem(nil), b.menu...), nil
	}
	return []domain.MenuItem{
		{ID: "gen-1", Name: concept + " especial", Price: decimal.RequireFromString("99.00"), Category: "Especiales"},
	}, nil
}

// enter records the call and pops a queued failure. Callers hold mu.
func (b *Backend) enter(call string) error {
	b.calls = append(b.calls, call)
	queue := b.failures[call]
	if len(queue) == 0 {
		return nil
	}
	b.failures[call] = queue[1:]
	return queue[0]
}

func (b *Backend) newID() string {
	id := strconv.Itoa(b.nextID)
	b.nextID++
	return id
}

// sortedKeys is used by the repositories for stable listings
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
