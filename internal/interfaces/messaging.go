package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/refugio-pos/internal/domain"
)

// Сообщения RabbitMQ
type NotificationMessage struct {
	ID          string    `json:"id"`
	Level       string    `json:"level"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	OrderID     string    `json:"order_id,omitempty"`
	TableID     string    `json:"table_id,omitempty"`
	TableNumber int       `json:"table_number,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
	Persistent  bool      `json:"persistent"`
	Origin      string    `json:"origin"`
	Timestamp   time.Time `json:"timestamp"`
}

// Интерфейсы Messaging (Adapter/RabbitMQ)
type MessagePublisher interface {
	PublishNotification(ctx context.Context, msg NotificationMessage) error
}

type MessageConsumer interface {
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type NotificationHandler func(ctx context.Context, body []byte) error

// Notifier delivers user-visible, non-blocking notifications. It never fails:
// delivery problems are the implementation's to log.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}
