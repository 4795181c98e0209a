package notify

import (
	"context"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/google/uuid"

	"github.com/YelzhanWeb/refugio-pos/internal/domain"
)

// Center keeps the most recent notifications for the terminal UI. Once the
// capacity is reached the oldest entry is evicted.
type Center struct {
	mu        sync.Mutex
	buf       deque.Deque[domain.Notification]
	dismissed map[string]bool
	capacity  int
	now       func() time.Time
}

func NewCenter(capacity int) *Center {
	if capacity < 1 {
		capacity = 1
	}
	return &Center{
		capacity:  capacity,
		dismissed: make(map[string]bool),
		now:       time.Now,
	}
}

func (c *Center) Notify(ctx context.Context, n domain.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n = stamp(n, c.now)
	c.buf.PushBack(n)
	for c.buf.Len() > c.capacity {
		evicted := c.buf.PopFront()
		delete(c.dismissed, evicted.ID)
	}
}

// Recent returns up to limit notifications, newest first. limit <= 0 means all.
func (c *Center) Recent(limit int) []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.buf.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	list := make([]domain.Notification, 0, n)
	for i := c.buf.Len() - 1; i >= 0 && len(list) < n; i-- {
		list = append(list, c.buf.At(i))
	}
	return list
}

// Active returns what is currently on screen: persistent notifications until
// dismissed, the rest until their duration elapses. Newest first.
func (c *Center) Active() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var list []domain.Notification
	for i := c.buf.Len() - 1; i >= 0; i-- {
		n := c.buf.At(i)
		if c.dismissed[n.ID] {
			continue
		}
		if n.Persistent || now.Before(n.CreatedAt.Add(n.Duration)) {
			list = append(list, n)
		}
	}
	return list
}

// Dismiss hides a notification from Active. Unknown ids report false.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := 0; i < c.buf.Len(); i++ {
		if c.buf.At(i).ID == id {
			c.dismissed[id] = true
			return true
		}
	}
	return false
}

func stamp(n domain.Notification, now func() time.Time) domain.Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now()
	}
	if n.Duration <= 0 {
		n.Duration = domain.TransientDuration
	}
	return n
}
