package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/logger"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

type published struct {
	exchange string
	msg      amqp.Publishing
}

type fakeChannel struct {
	mu         sync.Mutex
	exchanges  map[string]string
	bindings   []string
	published  []published
	deliveries chan amqp.Delivery
	closeChan  chan *amqp.Error
	closed     bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		exchanges:  make(map[string]string),
		deliveries: make(chan amqp.Delivery, 8),
		closeChan:  make(chan *amqp.Error, 1),
	}
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchanges[name] = kind
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (Queue, error) {
	return Queue{Name: "amq.gen-1"}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bindings = append(f.bindings, name+"->"+exchange)
	return nil
}

func (f *fakeChannel) Publish(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{exchange, msg})
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeChannel) NotifyClose() <-chan *amqp.Error { return f.closeChan }

// fakeConnection hands out the queued channels in order
type fakeConnection struct {
	mu       sync.Mutex
	channels []*fakeChannel
	opened   int
}

func (f *fakeConnection) Channel() (Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.opened >= len(f.channels) {
		return nil, ErrConnectionClosed
	}
	ch := f.channels[f.opened]
	f.opened++
	return ch, nil
}

func (f *fakeConnection) Opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

func (f *fakeConnection) Close() error   { return nil }
func (f *fakeConnection) IsClosed() bool { return false }

func TestPublishNotification(t *testing.T) {
	ch := newFakeChannel()
	pub := NewPublisher(&fakeConnection{channels: []*fakeChannel{ch}}, "notifications_fanout")

	msg := interfaces.NotificationMessage{
		ID: "n1", Level: "alert", Title: "MESA 4", OrderID: "42",
		TableNumber: 4, DurationMs: 8000, Persistent: true, Origin: "terminal-1",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.PublishNotification(context.Background(), msg))

	assert.Equal(t, "fanout", ch.exchanges["notifications_fanout"])
	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, "notifications_fanout", got.exchange)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, "n1", got.msg.MessageId)
	assert.True(t, ch.closed)

	var decoded interfaces.NotificationMessage
	require.NoError(t, json.Unmarshal(got.msg.Body, &decoded))
	assert.Equal(t, msg, decoded)
}

func TestConsumeNotificationsReconnects(t *testing.T) {
	first, second := newFakeChannel(), newFakeChannel()
	conn := &fakeConnection{channels: []*fakeChannel{first, second}}
	c := &consumer{conn: conn, exchange: "notifications_fanout", logger: logger.Discard(), delay: time.Millisecond}

	var mu sync.Mutex
	var bodies []string
	handler := func(ctx context.Context, body []byte) error {
		mu.Lock()
		defer mu.Unlock()
		bodies = append(bodies, string(body))
		if string(body) == "bad" {
			return errors.New("cannot parse")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.ConsumeNotifications(ctx, handler) }()

	received := func(n int) func() bool {
		return func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(bodies) == n
		}
	}

	first.deliveries <- amqp.Delivery{Body: []byte("one")}
	first.deliveries <- amqp.Delivery{Body: []byte("bad")}
	assert.Eventually(t, received(2), time.Second, time.Millisecond)
	first.closeChan <- &amqp.Error{Code: 320, Reason: "CONNECTION_FORCED"}

	assert.Eventually(t, func() bool { return conn.Opened() == 2 }, time.Second, time.Millisecond)
	second.deliveries <- amqp.Delivery{Body: []byte("two")}

	assert.Eventually(t, received(3), time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, []string{"amq.gen-1->notifications_fanout"}, second.bindings)
}
