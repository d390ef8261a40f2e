package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

// TelemetryStore keeps the latest telemetry record per station.
type TelemetryStore struct {
	mu   sync.RWMutex
	data map[string]store.TelemetryRecord
}

func NewTelemetryStore() *TelemetryStore {
	return &TelemetryStore{
		data: make(map[string]store.TelemetryRecord),
	}
}

func (s *TelemetryStore) UpsertTelemetry(_ context.Context, stationID string, rec store.TelemetryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	s.data[stationID] = rec
	return nil
}

func (s *TelemetryStore) LatestTelemetry(_ context.Context, stationID string) (store.TelemetryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[stationID]
	if !ok {
		return store.TelemetryRecord{}, fmt.Errorf("telemetry for %s: %w", stationID, types.ErrNotFound)
	}
	return rec, nil
}

func (s *TelemetryStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, rec := range s.data {
		if rec.ReceivedAt.Before(cutoff) {
			delete(s.data, id)
			n++
		}
	}
	return n, nil
}
