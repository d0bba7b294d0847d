package sqlite

import (
	"context"
	"fmt"

	"github.com/mmynk/settleup/internal/models"
)

const outboxColumns = "id, user_id, table_name, operation, record_id, data, created_at, last_error"

// AppendOutbox stores a new pending mutation. Entries are append-only;
// the only later mutation allowed is SetOutboxError.
func (s *SQLiteStore) AppendOutbox(ctx context.Context, e *models.OutboxEntry) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sync_queue ("+outboxColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.UserID, e.Table, e.Op, e.RecordID, []byte(e.Payload), e.CreatedAt, e.LastError,
	)
	if err != nil {
		return fmt.Errorf("failed to append outbox entry: %w", err)
	}
	return nil
}

// OutboxForUser retrieves a user's pending mutations, oldest first.
func (s *SQLiteStore) OutboxForUser(ctx context.Context, userID string) ([]models.OutboxEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+outboxColumns+" FROM sync_queue WHERE user_id = ? ORDER BY created_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var entries []models.OutboxEntry
	for rows.Next() {
		var e models.OutboxEntry
		var data []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.Table, &e.Op, &e.RecordID, &data, &e.CreatedAt, &e.LastError); err != nil {
			return nil, fmt.Errorf("failed to scan outbox entry: %w", err)
		}
		e.Payload = data
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox: %w", err)
	}
	return entries, nil
}

// DeleteOutbox removes an entry once the remote store has acknowledged it.
func (s *SQLiteStore) DeleteOutbox(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sync_queue WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete outbox entry: %w", err)
	}
	return nil
}

// SetOutboxError records the most recent delivery failure on an entry.
func (s *SQLiteStore) SetOutboxError(ctx context.Context, id, msg string) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE sync_queue SET last_error = ? WHERE id = ?", msg, id); err != nil {
		return fmt.Errorf("failed to set outbox error: %w", err)
	}
	return nil
}

// CountOutbox returns the number of pending mutations for a user.
func (s *SQLiteStore) CountOutbox(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sync_queue WHERE user_id = ?", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count outbox: %w", err)
	}
	return n, nil
}
