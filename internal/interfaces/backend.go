package interfaces

import (
	"context"

	"github.com/YelzhanWeb/refugio-pos/internal/domain"
)

// ProductLookup resolves a product id against the catalog cache
type ProductLookup func(id string) (domain.MenuItem, bool)

// OrderSnapshot is one normalized GET /orders/ response. Dropped lists the ids
// of records that could not become a valid order (e.g. no items).
type OrderSnapshot struct {
	Orders  []domain.Order
	Dropped []string
}

// Интерфейсы удалённого бэкенда (Adapter/Backend)
type CatalogGateway interface {
	ListProducts(ctx context.Context) ([]domain.MenuItem, error)
	CreateProduct(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
	UpdateProduct(ctx context.Context, item domain.MenuItem) error
	DeleteProduct(ctx context.Context, id string) error
}

type OrderGateway interface {
	ListOrders(ctx context.Context, lookup ProductLookup) (*OrderSnapshot, error)
	// CreateOrder returns the backend id when the response echoes one
	CreateOrder(ctx context.Context, order domain.Order) (string, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.Status) error
	SetTableOccupancy(ctx context.Context, tableID string, occupied bool) error
}

type MenuGenerator interface {
	GenerateMenu(ctx context.Context, concept string) ([]domain.MenuItem, error)
}

type Backend interface {
	CatalogGateway
	OrderGateway
	MenuGenerator
}
