package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

// StatusJournal keeps the journal in process when no database is configured
type StatusJournal struct {
	mu      sync.Mutex
	entries []*domain.StatusLog
}

func NewStatusJournal() *StatusJournal {
	return &StatusJournal{}
}

func (j *StatusJournal) LogStatus(ctx context.Context, orderID string, status domain.Status, changedBy string, notes *string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, &domain.StatusLog{
		ID:        len(j.entries) + 1,
		OrderID:   orderID,
		Status:    status,
		ChangedBy: changedBy,
		ChangedAt: time.Now(),
		Notes:     notes,
	})
	return nil
}

func (j *StatusJournal) GetStatusHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var logs []*domain.StatusLog
	for _, e := range j.entries {
		if e.OrderID == orderID {
			entry := *e
			logs = append(logs, &entry)
		}
	}
	return logs, nil
}

// SessionRepository is the in-process terminal session registry
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*domain.TerminalSession
	nextID   int
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*domain.TerminalSession), nextID: 1}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.TerminalSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[session.Name]; exists {
		return fmt.Errorf("session %q already exists", session.Name)
	}
	session.ID = r.nextID
	r.nextID++
	stored := *session
	r.sessions[session.Name] = &stored
	return nil
}

func (r *SessionRepository) FindByName(ctx context.Context, name string) (*domain.TerminalSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[name]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	found := *s
	return &found, nil
}

func (r *SessionRepository) Update(ctx context.Context, session *domain.TerminalSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.Name]; !ok {
		return interfaces.ErrNotFound
	}
	stored := *session
	r.sessions[session.Name] = &stored
	return nil
}

func (r *SessionRepository) UpdateHeartbeat(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[name]
	if !ok {
		return interfaces.ErrNotFound
	}
	s.UpdateHeartbeat()
	return nil
}

func (r *SessionRepository) ListAll(ctx context.Context) ([]*domain.TerminalSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]*domain.TerminalSession, 0, len(r.sessions))
	for _, name := range sortedKeys(r.sessions) {
		s := *r.sessions[name]
		list = append(list, &s)
	}
	return list, nil
}

func (r *SessionRepository) IncrementOrdersPlaced(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[name]
	if !ok {
		return interfaces.ErrNotFound
	}
	s.IncrementOrdersPlaced()
	return nil
}
