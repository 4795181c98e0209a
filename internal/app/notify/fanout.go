package notify

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/logger"
	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

// Multi delivers one notification to several sinks. The id and timestamp are
// assigned once so every sink sees the same notification.
type Multi []interfaces.Notifier

func (m Multi) Notify(ctx context.Context, n domain.Notification) {
	n = stamp(n, time.Now)
	for _, sink := range m {
		if sink != nil {
			sink.Notify(ctx, n)
		}
	}
}

// LogNotifier writes notifications to the service log
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (l *LogNotifier) Notify(ctx context.Context, n domain.Notification) {
	details := map[string]interface{}{
		"notification_id": n.ID,
		"level":           string(n.Level),
		"title":           n.Title,
	}
	if n.OrderID != "" {
		details["order_id"] = n.OrderID
	}
	if n.TableID != "" {
		details["table_id"] = n.TableID
	}
	l.logger.Info("notification", n.Message, "", details)
}

// Broadcaster forwards order notifications raised on this terminal to the
// other terminals through the message bus.
type Broadcaster struct {
	publisher interfaces.MessagePublisher
	origin    string
	logger    logger.Logger
}

func NewBroadcaster(publisher interfaces.MessagePublisher, origin string, log logger.Logger) *Broadcaster {
	return &Broadcaster{publisher: publisher, origin: origin, logger: log}
}

func (b *Broadcaster) Notify(ctx context.Context, n domain.Notification) {
	// only order events are of interest elsewhere, and remote ones are never re-sent
	if n.OrderID == "" || n.Origin != "" {
		return
	}

	msg := ToMessage(n)
	msg.Origin = b.origin
	if err := b.publisher.PublishNotification(ctx, msg); err != nil {
		b.logger.Error("notification_publish_failed", "Failed to broadcast notification", "", map[string]interface{}{
			"notification_id": n.ID,
			"order_id":        n.OrderID,
		}, err)
	}
}

// Console prints notifications, one per line
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Notify(ctx context.Context, n domain.Notification) {
	fmt.Fprintf(c.w, "[%s] %s: %s\n", n.Level, n.Title, n.Message)
}

func ToMessage(n domain.Notification) interfaces.NotificationMessage {
	return interfaces.NotificationMessage{
		ID:          n.ID,
		Level:       string(n.Level),
		Title:       n.Title,
		Message:     n.Message,
		OrderID:     n.OrderID,
		TableID:     n.TableID,
		TableNumber: n.TableNumber,
		DurationMs:  n.Duration.Milliseconds(),
		Persistent:  n.Persistent,
		Origin:      n.Origin,
		Timestamp:   n.CreatedAt,
	}
}

func FromMessage(msg interfaces.NotificationMessage) domain.Notification {
	return domain.Notification{
		ID:          msg.ID,
		Level:       domain.NotificationLevel(msg.Level),
		Title:       msg.Title,
		Message:     msg.Message,
		OrderID:     msg.OrderID,
		TableID:     msg.TableID,
		TableNumber: msg.TableNumber,
		Duration:    time.Duration(msg.DurationMs) * time.Millisecond,
		Persistent:  msg.Persistent,
		Origin:      msg.Origin,
		CreatedAt:   msg.Timestamp,
	}
}

// Transient builds a short-lived notification
func Transient(level domain.NotificationLevel, title, message string) domain.Notification {
	return domain.Notification{
		Level:    level,
		Title:    title,
		Message:  message,
		Duration: domain.TransientDuration,
	}
}
