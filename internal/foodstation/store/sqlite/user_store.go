package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/BrandonDHaskell/foodstation/internal/db"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

type UserStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewUserStore(db *sql.DB, writer *dbpkg.Worker) *UserStore {
	return &UserStore{db: db, writer: writer}
}

func (s *UserStore) CreateUser(ctx context.Context, rec store.UserRecord) error {
	u := rec.User
	u.ID = strings.TrimSpace(u.ID)
	if u.ID == "" {
		return fmt.Errorf("%w: user id is required", types.ErrValidation)
	}
	if len(rec.CredentialHash) != 32 {
		return fmt.Errorf("%w: credential hash must be 32 bytes", types.ErrValidation)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `
SELECT COUNT(*) FROM users WHERE user_id = ? OR credential_hash = ?;
`, u.ID, rec.CredentialHash).Scan(&exists)
		if err != nil {
			return fmt.Errorf("CreateUser check: %w", err)
		}
		if exists > 0 {
			return fmt.Errorf("%w: user id or credential already registered", types.ErrValidation)
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO users(user_id, display_name, role, credential_hash, created_at_ms)
VALUES (?, ?, ?, ?, ?);
`, u.ID, u.DisplayName, string(u.Role), rec.CredentialHash, u.CreatedAt.UTC().UnixMilli()); err != nil {
			return fmt.Errorf("CreateUser insert: %w", err)
		}
		return nil
	})
}

const userSelect = `
SELECT user_id, display_name, role, scan_count, last_scan_at_ms, created_at_ms
FROM users`

func scanUser(row rowScanner) (types.User, error) {
	var (
		u        types.User
		role     string
		lastScan sql.NullInt64
		created  int64
	)
	if err := row.Scan(&u.ID, &u.DisplayName, &role, &u.ScanCount, &lastScan, &created); err != nil {
		return types.User{}, err
	}
	u.Role = types.Role(role)
	u.LastScanAt = nullMsToTime(lastScan)
	u.CreatedAt = msToTime(created)
	return u, nil
}

func (s *UserStore) GetUser(ctx context.Context, userID string) (types.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, userSelect+" WHERE user_id = ?;", userID))
	if errors.Is(err, sql.ErrNoRows) {
		return types.User{}, fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
	}
	if err != nil {
		return types.User{}, fmt.Errorf("GetUser: %w", err)
	}
	return u, nil
}

func (s *UserStore) LookupByCredential(ctx context.Context, hash []byte) (types.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, userSelect+" WHERE credential_hash = ?;", hash))
	if errors.Is(err, sql.ErrNoRows) {
		return types.User{}, fmt.Errorf("credential: %w", types.ErrNotFound)
	}
	if err != nil {
		return types.User{}, fmt.Errorf("LookupByCredential: %w", err)
	}
	return u, nil
}

func (s *UserStore) RecordScan(ctx context.Context, userID string, t time.Time) (types.User, error) {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	var out types.User
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE users
SET scan_count      = scan_count + 1,
    last_scan_at_ms = ?
WHERE user_id = ?;
`, t.UTC().UnixMilli(), userID)
		if err != nil {
			return fmt.Errorf("RecordScan update: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
		}
		u, err := scanUser(tx.QueryRowContext(ctx, userSelect+" WHERE user_id = ?;", userID))
		if err != nil {
			return fmt.Errorf("RecordScan reload: %w", err)
		}
		out = u
		return nil
	})
	return out, err
}
