package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/logger"
	"github.com/YelzhanWeb/refugio-pos/internal/app/notify"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

// NotificationHandler turns notifications broadcast by other terminals into
// local ones. Messages this terminal sent itself are skipped.
type NotificationHandler struct {
	sink   interfaces.Notifier
	origin string
	logger logger.Logger
}

func NewNotificationHandler(sink interfaces.Notifier, origin string, logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		sink:   sink,
		origin: origin,
		logger: logger,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.NotificationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return fmt.Errorf("failed to parse notification: %w", err)
	}

	if msg.Origin == "" {
		msg.Origin = "unknown"
	}
	if msg.Origin == h.origin {
		return nil
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received %s notification from %s", msg.Level, msg.Origin),
		"", map[string]interface{}{
			"notification_id": msg.ID,
			"order_id":        msg.OrderID,
			"origin":          msg.Origin,
		})

	h.sink.Notify(ctx, notify.FromMessage(msg))
	return nil
}
