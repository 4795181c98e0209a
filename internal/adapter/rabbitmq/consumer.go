package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/logger"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

const reconnectDelay = 5 * time.Second

type consumer struct {
	conn     Connection
	exchange string
	logger   logger.Logger
	delay    time.Duration
}

func NewConsumer(conn Connection, exchange string, logger logger.Logger) interfaces.MessageConsumer {
	return &consumer{conn: conn, exchange: exchange, logger: logger, delay: reconnectDelay}
}

// ConsumeNotifications reads the fanout exchange through a private queue
// until ctx is done, re-subscribing after every disconnect
func (c *consumer) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	for {
		err := c.consumeOnce(ctx, handler)

		// Если контекст отменен - выходим
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrConnectionClosed) {
			return err
		}

		c.logger.Error("consumer_disconnected", "Notifications consumer disconnected, reconnecting", "", map[string]interface{}{
			"retry_in": c.delay.String(),
		}, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.delay):
		}
	}
}

func (c *consumer) consumeOnce(ctx context.Context, handler interfaces.NotificationHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := declareFanout(ch, c.exchange); err != nil {
		return err
	}

	// Временная эксклюзивная очередь на каждый терминал
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", c.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("consumer_started", "Listening for notifications", "", map[string]interface{}{
		"exchange": c.exchange,
		"queue":    q.Name,
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return errors.New("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return errors.New("messages channel closed")
			}

			// auto-ack: a notification that cannot be handled is dropped
			if err := handler(ctx, msg.Body); err != nil {
				c.logger.Debug("notification_dropped", "Notification handler failed", "", map[string]interface{}{
					"message_id": msg.MessageId,
					"error":      err.Error(),
				})
			}
		}
	}
}
