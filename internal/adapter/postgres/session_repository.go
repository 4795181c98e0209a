package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

type sessionRepository struct {
	db DB
}

func NewSessionRepository(db DB) interfaces.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.TerminalSession) error {
	query := `
		INSERT INTO terminal_sessions (name, role, status, last_seen, orders_placed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		session.Name, string(session.Role), string(session.Status), session.LastSeen, session.OrdersPlaced, session.CreatedAt,
	).Scan(&session.ID)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) FindByName(ctx context.Context, name string) (*domain.TerminalSession, error) {
	query := `
		SELECT id, name, role, status, last_seen, orders_placed, created_at
		FROM terminal_sessions
		WHERE name = $1
	`

	var (
		session domain.TerminalSession
		role    string
		status  string
	)
	err := r.db.QueryRow(ctx, query, name).Scan(
		&session.ID, &session.Name, &role, &status,
		&session.LastSeen, &session.OrdersPlaced, &session.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	session.Role = domain.Role(role)
	session.Status = domain.SessionStatus(status)
	return &session, nil
}

func (r *sessionRepository) Update(ctx context.Context, session *domain.TerminalSession) error {
	query := `
		UPDATE terminal_sessions
		SET role = $1, status = $2, last_seen = $3, orders_placed = $4
		WHERE name = $5
	`
	tag, err := r.db.Exec(ctx, query,
		string(session.Role), string(session.Status), session.LastSeen, session.OrdersPlaced, session.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *sessionRepository) UpdateHeartbeat(ctx context.Context, name string) error {
	query := `
		UPDATE terminal_sessions
		SET last_seen = $1, status = $2
		WHERE name = $3
	`
	_, err := r.db.Exec(ctx, query, time.Now(), string(domain.SessionStatusOnline), name)
	if err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	return nil
}

func (r *sessionRepository) ListAll(ctx context.Context) ([]*domain.TerminalSession, error) {
	query := `
		SELECT id, name, role, status, last_seen, orders_placed, created_at
		FROM terminal_sessions
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.TerminalSession
	for rows.Next() {
		var (
			session domain.TerminalSession
			role    string
			status  string
		)
		if err := rows.Scan(
			&session.ID, &session.Name, &role, &status,
			&session.LastSeen, &session.OrdersPlaced, &session.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		session.Role = domain.Role(role)
		session.Status = domain.SessionStatus(status)
		sessions = append(sessions, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, nil
}

func (r *sessionRepository) IncrementOrdersPlaced(ctx context.Context, name string) error {
	query := `
		UPDATE terminal_sessions
		SET orders_placed = orders_placed + 1
		WHERE name = $1
	`
	_, err := r.db.Exec(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to increment orders placed: %w", err)
	}
	return nil
}
