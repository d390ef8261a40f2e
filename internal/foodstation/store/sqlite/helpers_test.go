package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/BrandonDHaskell/foodstation/internal/db"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production.  The connection is closed automatically when the
// test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Shared cache keeps the in-memory database alive for the lifetime of
	// the pool; the name is unique per test.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		name,
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn.  The worker is closed
// automatically when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

// seedStation inserts a station with n empty racks named R1..Rn.
func seedStation(t *testing.T, conn *sql.DB, stationID string, n int) {
	t.Helper()

	now := time.Now().UTC().UnixMilli()
	if _, err := conn.ExecContext(context.Background(), `
INSERT INTO stations(station_id, name, created_at_ms, updated_at_ms) VALUES (?, ?, ?, ?);`,
		stationID, "Station "+stationID, now, now,
	); err != nil {
		t.Fatalf("seed station: %v", err)
	}
	for i := 1; i <= n; i++ {
		if _, err := conn.ExecContext(context.Background(), `
INSERT INTO racks(station_id, rack_id, position, fill_state, updated_at_ms) VALUES (?, ?, ?, 'empty', ?);`,
			stationID, fmt.Sprintf("R%d", i), i, now,
		); err != nil {
			t.Fatalf("seed rack: %v", err)
		}
	}
}

func riceRack(t *testing.T, id, donor string) types.Rack {
	t.Helper()

	r, err := types.EmptyRack(id, 1).Fill(
		types.FoodDescriptor{Name: "Rice", Diet: "veg", ImageURL: "img1", Date: "2024-01-01"},
		types.Provenance{DonorID: donor, DepositedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)},
	)
	if err != nil {
		t.Fatalf("fill rack: %v", err)
	}
	return r
}
