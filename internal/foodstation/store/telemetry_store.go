package store

import (
	"context"
	"time"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

type TelemetryRecord struct {
	ReceivedAt time.Time
	ReportedAt *time.Time // optional device-reported timestamp
	Request    types.TelemetryRequest
}

// TelemetryStore keeps only the latest telemetry row per station.
type TelemetryStore interface {
	UpsertTelemetry(ctx context.Context, stationID string, rec TelemetryRecord) error
	LatestTelemetry(ctx context.Context, stationID string) (TelemetryRecord, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
