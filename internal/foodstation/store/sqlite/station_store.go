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

type StationStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewStationStore(db *sql.DB, writer *dbpkg.Worker) *StationStore {
	return &StationStore{db: db, writer: writer}
}

func (s *StationStore) CreateStation(ctx context.Context, st types.Station) error {
	st.ID = strings.TrimSpace(st.ID)
	if st.ID == "" {
		return fmt.Errorf("%w: station id is required", types.ErrValidation)
	}
	for _, r := range st.Racks {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	now := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO stations(station_id, name, address, latitude, longitude, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?);
`, st.ID, st.Name, st.Address, st.Latitude, st.Longitude, now, now)
		if err != nil {
			return fmt.Errorf("CreateStation insert: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: station %s already exists", types.ErrValidation, st.ID)
		}

		for _, r := range st.Racks {
			if err := insertRack(ctx, tx, st.ID, r, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertRack(ctx context.Context, tx *sql.Tx, stationID string, r types.Rack, nowMs int64) error {
	cols := rackColumns(r)
	if _, err := tx.ExecContext(ctx, `
INSERT INTO racks(
  station_id, rack_id, position, fill_state,
  food_name, food_diet, food_image_url, food_date, donor_id, deposited_at_ms,
  sensor_distance_cm, sensor_temperature_c, sensor_gas, sensor_humidity_pct, sensor_observed_at_ms,
  updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
		stationID, r.ID, r.Position, string(r.State),
		cols.foodName, cols.foodDiet, cols.foodImage, cols.foodDate, cols.donorID, cols.depositedMs,
		cols.distance, cols.temperature, cols.gas, cols.humidity, cols.observedMs,
		nowMs,
	); err != nil {
		return fmt.Errorf("insert rack %s/%s: %w", stationID, r.ID, err)
	}
	return nil
}

// rackCols flattens the tagged rack into nullable column values.
type rackCols struct {
	foodName, foodDiet, foodImage, foodDate, donorID any
	depositedMs                                      any
	distance, temperature, gas, humidity, observedMs any
}

func rackColumns(r types.Rack) rackCols {
	var c rackCols
	if r.State == types.FillFilled && r.Food != nil && r.Provenance != nil {
		c.foodName = r.Food.Name
		c.foodDiet = r.Food.Diet
		c.foodImage = r.Food.ImageURL
		c.foodDate = r.Food.Date
		c.donorID = r.Provenance.DonorID
		c.depositedMs = r.Provenance.DepositedAt.UTC().UnixMilli()
	}
	if r.Sensor != nil {
		c.distance = r.Sensor.DistanceCm
		c.temperature = r.Sensor.TemperatureC
		c.gas = r.Sensor.Gas
		c.humidity = r.Sensor.HumidityPct
		c.observedMs = r.Sensor.ObservedAt.UTC().UnixMilli()
	}
	return c
}

const rackSelect = `
SELECT rack_id, position, fill_state,
       food_name, food_diet, food_image_url, food_date, donor_id, deposited_at_ms,
       sensor_distance_cm, sensor_temperature_c, sensor_gas, sensor_humidity_pct, sensor_observed_at_ms
FROM racks
WHERE station_id = ?
ORDER BY position, rack_id;`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRack(row rowScanner) (types.Rack, error) {
	var (
		r                                    types.Rack
		state                                string
		name, diet, image, date, donor       sql.NullString
		deposited, observed                  sql.NullInt64
		distance, temperature, gas, humidity sql.NullFloat64
	)
	if err := row.Scan(
		&r.ID, &r.Position, &state,
		&name, &diet, &image, &date, &donor, &deposited,
		&distance, &temperature, &gas, &humidity, &observed,
	); err != nil {
		return types.Rack{}, err
	}
	r.State = types.FillState(state)

	if r.State == types.FillFilled {
		r.Food = &types.FoodDescriptor{
			Name:     name.String,
			Diet:     diet.String,
			ImageURL: image.String,
			Date:     date.String,
		}
		r.Provenance = &types.Provenance{
			DonorID:     donor.String,
			DepositedAt: msToTime(deposited.Int64),
		}
	}
	if observed.Valid {
		r.Sensor = &types.SensorSnapshot{
			DistanceCm:   distance.Float64,
			TemperatureC: temperature.Float64,
			Gas:          gas.Float64,
			HumidityPct:  humidity.Float64,
			ObservedAt:   msToTime(observed.Int64),
		}
	}
	return r, nil
}

func (s *StationStore) GetStation(ctx context.Context, stationID string) (types.Station, error) {
	var (
		st               types.Station
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT station_id, name, address, latitude, longitude, created_at_ms, updated_at_ms
FROM stations
WHERE station_id = ?;
`, stationID).Scan(&st.ID, &st.Name, &st.Address, &st.Latitude, &st.Longitude, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Station{}, fmt.Errorf("station %s: %w", stationID, types.ErrNotFound)
	}
	if err != nil {
		return types.Station{}, fmt.Errorf("GetStation query: %w", err)
	}
	st.CreatedAt = msToTime(created)
	st.UpdatedAt = msToTime(updated)

	racks, err := s.loadRacks(ctx, stationID)
	if err != nil {
		return types.Station{}, err
	}
	st.Racks = racks
	return st, nil
}

func (s *StationStore) loadRacks(ctx context.Context, stationID string) ([]types.Rack, error) {
	rows, err := s.db.QueryContext(ctx, rackSelect, stationID)
	if err != nil {
		return nil, fmt.Errorf("load racks %s: %w", stationID, err)
	}
	defer rows.Close()

	racks := []types.Rack{}
	for rows.Next() {
		r, err := scanRack(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rack: %w", err)
		}
		racks = append(racks, r)
	}
	return racks, rows.Err()
}

func (s *StationStore) ListStations(ctx context.Context) ([]types.Station, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT station_id FROM stations ORDER BY station_id;`)
	if err != nil {
		return nil, fmt.Errorf("ListStations query: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Close before issuing more queries: the pool has a single connection.
	rows.Close()

	out := make([]types.Station, 0, len(ids))
	for _, id := range ids {
		st, err := s.GetStation(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *StationStore) UpdateRack(ctx context.Context, change store.RackChange) error {
	if err := change.Next.Validate(); err != nil {
		return err
	}
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return updateRackTx(ctx, tx, change, time.Now().UTC().UnixMilli())
	})
}

// updateRackTx is the compare-and-swap on the rack's fill state. Must be
// called inside an existing transaction.
func updateRackTx(ctx context.Context, tx *sql.Tx, change store.RackChange, nowMs int64) error {
	cols := rackColumns(change.Next)
	res, err := tx.ExecContext(ctx, `
UPDATE racks
SET fill_state            = ?,
    food_name             = ?,
    food_diet             = ?,
    food_image_url        = ?,
    food_date             = ?,
    donor_id              = ?,
    deposited_at_ms       = ?,
    sensor_distance_cm    = COALESCE(?, sensor_distance_cm),
    sensor_temperature_c  = COALESCE(?, sensor_temperature_c),
    sensor_gas            = COALESCE(?, sensor_gas),
    sensor_humidity_pct   = COALESCE(?, sensor_humidity_pct),
    sensor_observed_at_ms = COALESCE(?, sensor_observed_at_ms),
    version               = version + 1,
    updated_at_ms         = ?
WHERE station_id = ? AND rack_id = ? AND fill_state = ?;
`,
		string(change.Next.State),
		cols.foodName, cols.foodDiet, cols.foodImage, cols.foodDate, cols.donorID, cols.depositedMs,
		cols.distance, cols.temperature, cols.gas, cols.humidity, cols.observedMs,
		nowMs,
		change.StationID, change.RackID, string(change.Expected),
	)
	if err != nil {
		return fmt.Errorf("update rack %s/%s: %w", change.StationID, change.RackID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rack rows affected: %w", err)
	}
	if n == 1 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE stations SET updated_at_ms = ? WHERE station_id = ?;`,
			nowMs, change.StationID,
		); err != nil {
			return fmt.Errorf("touch station %s: %w", change.StationID, err)
		}
		return nil
	}

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT fill_state FROM racks WHERE station_id = ? AND rack_id = ?;`,
		change.StationID, change.RackID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("rack %s/%s: %w", change.StationID, change.RackID, types.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read rack state: %w", err)
	}
	return fmt.Errorf("rack %s/%s is %s, expected %s: %w",
		change.StationID, change.RackID, current, change.Expected, types.ErrWriteConflict)
}

func (s *StationStore) RecordSensorSnapshot(ctx context.Context, stationID, rackID string, snap types.SensorSnapshot) error {
	if snap.ObservedAt.IsZero() {
		snap.ObservedAt = time.Now().UTC()
	}
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE racks
SET sensor_distance_cm    = ?,
    sensor_temperature_c  = ?,
    sensor_gas            = ?,
    sensor_humidity_pct   = ?,
    sensor_observed_at_ms = ?
WHERE station_id = ? AND rack_id = ?;
`, snap.DistanceCm, snap.TemperatureC, snap.Gas, snap.HumidityPct, snap.ObservedAt.UTC().UnixMilli(),
			stationID, rackID)
		if err != nil {
			return fmt.Errorf("RecordSensorSnapshot: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("rack %s/%s: %w", stationID, rackID, types.ErrNotFound)
		}
		return nil
	})
}
