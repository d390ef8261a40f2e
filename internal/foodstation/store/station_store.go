package store

import (
	"context"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

// RackChange is a conditional rack write: it applies only if the stored
// fill state still equals Expected.
type RackChange struct {
	StationID string
	RackID    string
	Expected  types.FillState
	Next      types.Rack
}

type StationStore interface {
	CreateStation(ctx context.Context, st types.Station) error
	GetStation(ctx context.Context, stationID string) (types.Station, error)
	ListStations(ctx context.Context) ([]types.Station, error)

	// UpdateRack returns types.ErrWriteConflict when the rack's fill state
	// no longer matches change.Expected.
	UpdateRack(ctx context.Context, change RackChange) error

	// RecordSensorSnapshot stores the latest reading for one rack without
	// touching its fill state.
	RecordSensorSnapshot(ctx context.Context, stationID, rackID string, snap types.SensorSnapshot) error
}
