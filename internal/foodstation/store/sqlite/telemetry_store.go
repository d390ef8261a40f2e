package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbpkg "github.com/BrandonDHaskell/foodstation/internal/db"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

type TelemetryStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewTelemetryStore(db *sql.DB, writer *dbpkg.Worker) *TelemetryStore {
	return &TelemetryStore{db: db, writer: writer}
}

func (s *TelemetryStore) UpsertTelemetry(ctx context.Context, stationID string, rec store.TelemetryRecord) error {
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	req := rec.Request

	var reportedMs any
	if rec.ReportedAt != nil {
		reportedMs = rec.ReportedAt.UTC().UnixMilli()
	}
	var rackID any
	if req.RackID != "" {
		rackID = req.RackID
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO station_telemetry(
  station_id, received_at_ms, reported_at_ms, rack_id,
  distance_cm, temperature_c, gas, humidity_pct, door_closed,
  firmware_version, uptime_s
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(station_id) DO UPDATE SET
  received_at_ms   = excluded.received_at_ms,
  reported_at_ms   = excluded.reported_at_ms,
  rack_id          = excluded.rack_id,
  distance_cm      = excluded.distance_cm,
  temperature_c    = excluded.temperature_c,
  gas              = excluded.gas,
  humidity_pct     = excluded.humidity_pct,
  door_closed      = excluded.door_closed,
  firmware_version = excluded.firmware_version,
  uptime_s         = excluded.uptime_s;
`,
			stationID, rec.ReceivedAt.UTC().UnixMilli(), reportedMs, rackID,
			nullFloat(req.DistanceCm), nullFloat(req.TemperatureC), nullFloat(req.Gas), nullFloat(req.HumidityPct),
			nullBool(req.DoorClosed), req.FirmwareVersion, int64(req.UptimeSeconds),
		); err != nil {
			return fmt.Errorf("upsert telemetry %s: %w", stationID, err)
		}
		return nil
	})
}

func (s *TelemetryStore) LatestTelemetry(ctx context.Context, stationID string) (store.TelemetryRecord, error) {
	var (
		rec                                  store.TelemetryRecord
		receivedMs                           int64
		reportedMs                           sql.NullInt64
		rackID, firmware                     sql.NullString
		distance, temperature, gas, humidity sql.NullFloat64
		doorClosed, uptime                   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT received_at_ms, reported_at_ms, rack_id,
       distance_cm, temperature_c, gas, humidity_pct, door_closed,
       firmware_version, uptime_s
FROM station_telemetry
WHERE station_id = ?;
`, stationID).Scan(
		&receivedMs, &reportedMs, &rackID,
		&distance, &temperature, &gas, &humidity, &doorClosed,
		&firmware, &uptime,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return store.TelemetryRecord{}, fmt.Errorf("telemetry for %s: %w", stationID, types.ErrNotFound)
	}
	if err != nil {
		return store.TelemetryRecord{}, fmt.Errorf("LatestTelemetry: %w", err)
	}

	rec.ReceivedAt = msToTime(receivedMs)
	rec.ReportedAt = nullMsToTime(reportedMs)
	rec.Request = types.TelemetryRequest{
		StationID:       stationID,
		RackID:          rackID.String,
		DistanceCm:      nullFloatPtr(distance),
		TemperatureC:    nullFloatPtr(temperature),
		Gas:             nullFloatPtr(gas),
		HumidityPct:     nullFloatPtr(humidity),
		FirmwareVersion: firmware.String,
		UptimeSeconds:   uint64(uptime.Int64),
	}
	if doorClosed.Valid {
		v := doorClosed.Int64 == 1
		rec.Request.DoorClosed = &v
	}
	return rec, nil
}

func (s *TelemetryStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM station_telemetry WHERE received_at_ms < ?;`,
			cutoff.UTC().UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("prune telemetry: %w", err)
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}
