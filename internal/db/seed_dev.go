package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

type SeedDevOptions struct {
	// AdminToken, when set, registers a dev admin user whose QR token is
	// this value.
	AdminToken string
	// Racks is the number of racks on the starter station (default 4).
	Racks int
}

// SeedDev creates a starter station and, optionally, an admin user. It is
// idempotent.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()
	if opt.Racks <= 0 {
		opt.Racks = 4
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO stations(station_id, name, address, latitude, longitude, created_at_ms, updated_at_ms)
VALUES ('station-dev', 'Dev Food Station', 'Dev', 0, 0, ?, ?);`, now, now); err != nil {
		return fmt.Errorf("seed station: %w", err)
	}

	for i := 1; i <= opt.Racks; i++ {
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO racks(station_id, rack_id, position, fill_state, updated_at_ms)
VALUES ('station-dev', ?, ?, 'empty', ?);`, fmt.Sprintf("R%d", i), i, now); err != nil {
			return fmt.Errorf("seed rack R%d: %w", i, err)
		}
	}

	token := strings.TrimSpace(opt.AdminToken)
	if token == "" {
		return nil
	}
	if _, err := db.ExecContext(ctx, `
INSERT INTO users(user_id, display_name, role, credential_hash, created_at_ms)
VALUES ('admin-dev', 'Dev Admin', 'admin', ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  credential_hash = excluded.credential_hash,
  role = 'admin';
`, types.HashCredential(token), now); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	return nil
}
