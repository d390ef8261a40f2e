package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/BrandonDHaskell/foodstation/internal/db"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

type NotificationStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewNotificationStore(db *sql.DB, writer *dbpkg.Worker) *NotificationStore {
	return &NotificationStore{db: db, writer: writer}
}

func (s *NotificationStore) Enqueue(ctx context.Context, n types.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO notifications(notification_id, user_id, message, station_id, rack_id, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?);
`, n.ID, n.UserID, n.Message, n.StationID, n.RackID, n.CreatedAt.UTC().UnixMilli()); err != nil {
			return fmt.Errorf("enqueue notification: %w", err)
		}
		return nil
	})
}

func (s *NotificationStore) ListForUser(ctx context.Context, userID string, limit int) ([]types.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT notification_id, user_id, message, station_id, rack_id, created_at_ms
FROM notifications
WHERE user_id = ?
ORDER BY seq DESC
LIMIT ?;
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []types.Notification
	for rows.Next() {
		var (
			n         types.Notification
			createdMs int64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.StationID, &n.RackID, &createdMs); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.CreatedAt = msToTime(createdMs)
		out = append(out, n)
	}
	return out, rows.Err()
}
