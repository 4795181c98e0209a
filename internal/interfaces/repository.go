package interfaces

import (
	"context"
	"errors"

	"github.com/YelzhanWeb/refugio-pos/internal/domain"
)

// ErrNotFound is returned by repositories when no row matches
var ErrNotFound = errors.New("not found")

// Интерфейсы Репозиториев (Adapter/Postgres, Adapter/Memory)
type StatusJournal interface {
	LogStatus(ctx context.Context, orderID string, status domain.Status, changedBy string, notes *string) error
	GetStatusHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.TerminalSession) error
	FindByName(ctx context.Context, name string) (*domain.TerminalSession, error)
	Update(ctx context.Context, session *domain.TerminalSession) error
	UpdateHeartbeat(ctx context.Context, name string) error
	ListAll(ctx context.Context) ([]*domain.TerminalSession, error)
	IncrementOrdersPlaced(ctx context.Context, name string) error
}
