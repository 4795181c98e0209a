package interfaces

import (
	"context"

	"github.com/YelzhanWeb/refugio-pos/internal/domain"
)

// CurrentUser exposes the user of the active session, if any
type CurrentUser interface {
	CurrentUser() (domain.User, bool)
}

// Интерфейсы Сервисов (Business Logic)
type OrderService interface {
	PlaceOrder(ctx context.Context, tableID string, items []domain.OrderItem) (*domain.PendingOrder, error)
	AdvanceStatus(ctx context.Context, orderID string, status domain.Status) error
	SettleOrder(ctx context.Context, orderID, tableID string) error
	CancelOrder(ctx context.Context, orderID string, confirmed bool) error
	RetryPending(ctx context.Context, tempID string) (*domain.PendingOrder, error)
	DiscardPending(tempID string) error
	History(ctx context.Context, orderID string) ([]*domain.StatusLog, error)
}

type CatalogService interface {
	Refresh(ctx context.Context) ([]domain.MenuItem, error)
	Items() []domain.MenuItem
	Lookup(id string) (domain.MenuItem, bool)
	Create(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
	Update(ctx context.Context, item domain.MenuItem) error
	Delete(ctx context.Context, id string) error
	Approve(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
}

type MenuService interface {
	Generate(ctx context.Context, concept string) ([]domain.MenuItem, error)
	Last() []domain.MenuItem
}

type SessionService interface {
	CurrentUser
	Login(ctx context.Context, username, role string) (domain.User, error)
	Logout(ctx context.Context) error
}
