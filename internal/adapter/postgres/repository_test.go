package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

func TestMigrateCommits(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, Migrate(context.Background(), db))
	assert.True(t, db.committed)
	assert.False(t, db.rolled)
	assert.Contains(t, db.last().sql, "CREATE TABLE IF NOT EXISTS order_status_log")
}

func TestSessionFindByNameNotFound(t *testing.T) {
	db := &fakeDB{rowErr: pgx.ErrNoRows}
	_, err := NewSessionRepository(db).FindByName(context.Background(), "ana")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestSessionFindByName(t *testing.T) {
	seen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	db := &fakeDB{row: []any{7, "ana", "WAITER", "online", seen, 3, seen}}

	session, err := NewSessionRepository(db).FindByName(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, 7, session.ID)
	assert.Equal(t, domain.RoleWaiter, session.Role)
	assert.Equal(t, domain.SessionStatusOnline, session.Status)
	assert.Equal(t, 3, session.OrdersPlaced)
	assert.Equal(t, []any{"ana"}, db.last().args)
}

func TestSessionUpdateMissingRow(t *testing.T) {
	db := &fakeDB{affected: 0}
	err := NewSessionRepository(db).Update(context.Background(), &domain.TerminalSession{Name: "ghost"})
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	db.affected = 1
	require.NoError(t, NewSessionRepository(db).Update(context.Background(), &domain.TerminalSession{
		Name: "ana", Role: domain.RoleAdmin, Status: domain.SessionStatusOffline,
	}))
	assert.Equal(t, "ADMIN", db.last().args[0])
	assert.Equal(t, "offline", db.last().args[1])
}

func TestSessionCreateScansID(t *testing.T) {
	db := &fakeDB{row: []any{12}}
	session, err := domain.NewTerminalSession("luis", domain.RoleKitchen)
	require.NoError(t, err)

	require.NoError(t, NewSessionRepository(db).Create(context.Background(), session))
	assert.Equal(t, 12, session.ID)
	assert.Equal(t, "INSERT INTO terminal_sessions (name, role, status, last_seen, orders_placed, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		compact(db.last().sql))
}

func TestJournalRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	note := "order placed"
	db := &fakeDB{rows: [][]any{
		{1, "42", "PENDING", "ana", at, &note},
		{2, "42", "COOKING", "luis", at.Add(time.Minute), (*string)(nil)},
	}}
	journal := NewStatusJournal(db)
	ctx := context.Background()

	require.NoError(t, journal.LogStatus(ctx, "42", domain.StatusReady, "luis", nil))
	insert := db.last()
	assert.Equal(t, "42", insert.args[0])
	assert.Equal(t, "READY", insert.args[1])
	assert.Equal(t, "luis", insert.args[2])

	logs, err := journal.GetStatusHistory(ctx, "42")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.StatusPending, logs[0].Status)
	require.NotNil(t, logs[0].Notes)
	assert.Equal(t, "order placed", *logs[0].Notes)
	assert.Equal(t, domain.StatusCooking, logs[1].Status)
	assert.Nil(t, logs[1].Notes)
}
