package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/BrandonDHaskell/foodstation/internal/db"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

const defaultActivityLimit = 100

type ActivityStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewActivityStore(db *sql.DB, writer *dbpkg.Worker) *ActivityStore {
	return &ActivityStore{db: db, writer: writer}
}

func (s *ActivityStore) Append(ctx context.Context, entry types.ActivityLogEntry) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return appendEntryTx(ctx, tx, entry)
	})
}

func appendEntryTx(ctx context.Context, tx *sql.Tx, e types.ActivityLogEntry) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	atMs, err := nextRackTimeTx(ctx, tx, e.StationID, e.RackID, e.At.UTC().UnixMilli())
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO activity_log(
  entry_id, kind, actor_id, station_id, rack_id,
  food_name, food_diet, food_image_url, food_date, at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
		e.ID, string(e.Kind), e.ActorID, e.StationID, e.RackID,
		e.Food.Name, e.Food.Diet, e.Food.ImageURL, e.Food.Date, atMs,
	); err != nil {
		return fmt.Errorf("append activity %s: %w", e.ID, err)
	}
	return nil
}

// nextRackTimeTx keeps a rack's entries strictly ordered in time at the
// stored millisecond precision.
func nextRackTimeTx(ctx context.Context, tx *sql.Tx, stationID, rackID string, atMs int64) (int64, error) {
	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx, `
SELECT MAX(at_ms) FROM activity_log WHERE station_id = ? AND rack_id = ?;
`, stationID, rackID).Scan(&last); err != nil {
		return 0, fmt.Errorf("latest activity for %s/%s: %w", stationID, rackID, err)
	}
	if last.Valid && atMs <= last.Int64 {
		return last.Int64 + 1, nil
	}
	return atMs, nil
}

// List returns matching entries newest first.
func (s *ActivityStore) List(ctx context.Context, f types.ActivityFilter) ([]types.ActivityLogEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.StationID != "" {
		where = append(where, "station_id = ?")
		args = append(args, f.StationID)
	}
	if f.RackID != "" {
		where = append(where, "rack_id = ?")
		args = append(args, f.RackID)
	}
	if f.ActorID != "" {
		where = append(where, "actor_id = ?")
		args = append(args, f.ActorID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	q := `
SELECT entry_id, kind, actor_id, station_id, rack_id,
       food_name, food_diet, food_image_url, food_date, at_ms
FROM activity_log`
	if len(where) > 0 {
		q += "\nWHERE " + strings.Join(where, " AND ")
	}
	q += "\nORDER BY seq DESC\nLIMIT ?;"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var out []types.ActivityLogEntry
	for rows.Next() {
		var (
			e    types.ActivityLogEntry
			kind string
			atMs int64
		)
		if err := rows.Scan(
			&e.ID, &kind, &e.ActorID, &e.StationID, &e.RackID,
			&e.Food.Name, &e.Food.Diet, &e.Food.ImageURL, &e.Food.Date, &atMs,
		); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.Kind = types.ActivityKind(kind)
		e.At = msToTime(atMs)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Ledger commits a rack compare-and-swap and its activity entry in one
// transaction on the single-writer worker.
type Ledger struct {
	writer *dbpkg.Worker
}

func NewLedger(writer *dbpkg.Worker) *Ledger {
	return &Ledger{writer: writer}
}

func (l *Ledger) CommitRack(ctx context.Context, change store.RackChange, entry types.ActivityLogEntry) error {
	if err := change.Next.Validate(); err != nil {
		return err
	}
	return l.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		now := time.Now().UTC().UnixMilli()
		if err := updateRackTx(ctx, tx, change, now); err != nil {
			return err
		}
		return appendEntryTx(ctx, tx, entry)
	})
}
