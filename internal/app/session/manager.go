package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/logger"
	"github.com/YelzhanWeb/refugio-pos/internal/app/notify"
	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

type CatalogPoller interface {
	Poll(ctx context.Context) ([]domain.MenuItem, error)
}

type OrderPoller interface {
	Poll(ctx context.Context) ([]domain.Order, error)
}

// Session is one login. It owns the poll loop; nothing outlives Logout.
type Session struct {
	User      domain.User
	StartedAt time.Time

	cancel  context.CancelFunc
	done    chan struct{}
	healthy bool
}

// Manager owns the current session of the terminal
type Manager struct {
	catalog  CatalogPoller
	orders   OrderPoller
	sessions interfaces.SessionRepository
	notifier interfaces.Notifier
	logger   logger.Logger
	interval time.Duration

	mu      sync.Mutex
	current *Session
}

func NewManager(
	catalog CatalogPoller,
	orders OrderPoller,
	sessions interfaces.SessionRepository,
	notifier interfaces.Notifier,
	logger logger.Logger,
	interval time.Duration,
) *Manager {
	return &Manager{
		catalog:  catalog,
		orders:   orders,
		sessions: sessions,
		notifier: notifier,
		logger:   logger,
		interval: interval,
	}
}

// Login starts a session. An active session is torn down first.
func (m *Manager) Login(ctx context.Context, username, rawRole string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{Username: username, Role: role}

	m.mu.Lock()
	if m.current != nil {
		m.stopLocked(ctx)
	}

	// 1. Регистрация сессии
	if err := m.register(ctx, user); err != nil {
		m.mu.Unlock()
		return domain.User{}, err
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		User:      user,
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
		healthy:   true,
	}
	m.current = s
	m.mu.Unlock()

	m.logger.Info("session_started", fmt.Sprintf("User %s logged in as %s", username, role), "", map[string]interface{}{
		"username": username,
		"role":     string(role),
	})

	// 2. Первичная синхронизация, затем опрос в фоне
	m.tick(sessionCtx, s, false)
	go m.pollLoop(sessionCtx, s)

	return user, nil
}

// Logout stops the poll loop and marks the session offline
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return domain.ErrNoSession
	}
	m.stopLocked(ctx)
	return nil
}

// Close ends the session if there is one, for shutdown
func (m *Manager) Close(ctx context.Context) {
	if err := m.Logout(ctx); err != nil && !errors.Is(err, domain.ErrNoSession) {
		m.logger.Error("session_close_failed", "Failed to close session", "", nil, err)
	}
}

func (m *Manager) CurrentUser() (domain.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return domain.User{}, false
	}
	return m.current.User, true
}

func (m *Manager) register(ctx context.Context, user domain.User) error {
	existing, err := m.sessions.FindByName(ctx, user.Username)
	switch {
	case err == nil:
		existing.Role = user.Role
		existing.UpdateHeartbeat()
		if err := m.sessions.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
	case errors.Is(err, interfaces.ErrNotFound):
		created, err := domain.NewTerminalSession(user.Username, user.Role)
		if err != nil {
			return err
		}
		if err := m.sessions.Create(ctx, created); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
	default:
		return fmt.Errorf("failed to find session: %w", err)
	}
	return nil
}

// stopLocked cancels the poll loop, waits for it and records the logout.
// Callers hold mu.
func (m *Manager) stopLocked(ctx context.Context) {
	s := m.current
	m.current = nil

	s.cancel()
	<-s.done

	record, err := m.sessions.FindByName(ctx, s.User.Username)
	if err == nil {
		record.SetOffline()
		err = m.sessions.Update(ctx, record)
	}
	if err != nil {
		m.logger.Error("session_offline_failed", "Failed to mark session offline", "", map[string]interface{}{
			"username": s.User.Username,
		}, err)
	}

	m.logger.Info("session_stopped", fmt.Sprintf("User %s logged out", s.User.Username), "", nil)
}

func (m *Manager) pollLoop(ctx context.Context, s *Session) {
	defer close(s.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx, s, true)
		}
	}
}

// tick refreshes catalog and orders. Failures are reported once when the
// connection goes bad and once when it comes back.
func (m *Manager) tick(ctx context.Context, s *Session, heartbeat bool) {
	var failures []error
	if _, err := m.catalog.Poll(ctx); err != nil {
		failures = append(failures, err)
	}
	if _, err := m.orders.Poll(ctx); err != nil {
		failures = append(failures, err)
	}

	// a poll cut short by logout says nothing about the backend
	if ctx.Err() != nil {
		return
	}

	switch {
	case len(failures) > 0 && s.healthy:
		s.healthy = false
		m.logger.Warn("poll_failing", "Background refresh failing", "", map[string]interface{}{
			"error": errors.Join(failures...).Error(),
		})
		m.notifier.Notify(ctx, notify.Transient(domain.LevelWarning, "Conexión",
			"No se pudo actualizar; se muestra el último estado conocido"))
	case len(failures) == 0 && !s.healthy:
		s.healthy = true
		m.logger.Info("poll_recovered", "Background refresh recovered", "", nil)
		m.notifier.Notify(ctx, notify.Transient(domain.LevelSuccess, "Conexión", "Conexión restablecida"))
	}

	if !heartbeat {
		return
	}
	if err := m.sessions.UpdateHeartbeat(ctx, s.User.Username); err != nil {
		m.logger.Error("heartbeat_failed", "Failed to update heartbeat", "", nil, err)
	} else {
		m.logger.Debug("heartbeat_sent", "Heartbeat sent", "", nil)
	}
}
