package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

type statusJournal struct {
	db DB
}

// NewStatusJournal records every order mutation made from this terminal
func NewStatusJournal(db DB) interfaces.StatusJournal {
	return &statusJournal{db: db}
}

func (j *statusJournal) LogStatus(ctx context.Context, orderID string, status domain.Status, changedBy string, notes *string) error {
	query := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at, notes)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := j.db.Exec(ctx, query, orderID, string(status), changedBy, time.Now(), notes)
	if err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}

func (j *statusJournal) GetStatusHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at, id
	`

	rows, err := j.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var (
			log    domain.StatusLog
			status string
		)
		if err := rows.Scan(&log.ID, &log.OrderID, &status, &log.ChangedBy, &log.ChangedAt, &log.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		log.Status = domain.Status(status)
		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}

	return logs, nil
}
