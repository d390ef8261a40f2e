package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

type StationStore struct {
	mu       sync.RWMutex
	stations map[string]types.Station
}

func NewStationStore(seed ...types.Station) *StationStore {
	s := &StationStore{stations: make(map[string]types.Station)}
	for _, st := range seed {
		_ = s.CreateStation(context.Background(), st)
	}
	return s
}

func (s *StationStore) CreateStation(_ context.Context, st types.Station) error {
	st.ID = strings.TrimSpace(st.ID)
	if st.ID == "" {
		return fmt.Errorf("%w: station id is required", types.ErrValidation)
	}
	for _, r := range st.Racks {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	st.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stations[st.ID]; ok {
		return fmt.Errorf("%w: station %s already exists", types.ErrValidation, st.ID)
	}
	s.stations[st.ID] = cloneStation(st)
	return nil
}

func (s *StationStore) GetStation(_ context.Context, stationID string) (types.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stations[stationID]
	if !ok {
		return types.Station{}, fmt.Errorf("station %s: %w", stationID, types.ErrNotFound)
	}
	return cloneStation(st), nil
}

func (s *StationStore) ListStations(_ context.Context) ([]types.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Station, 0, len(s.stations))
	for _, st := range s.stations {
		out = append(out, cloneStation(st))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *StationStore) UpdateRack(_ context.Context, change store.RackChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(change)
}

// applyLocked performs the compare-and-swap. Caller holds s.mu.
func (s *StationStore) applyLocked(change store.RackChange) error {
	if err := change.Next.Validate(); err != nil {
		return err
	}
	st, ok := s.stations[change.StationID]
	if !ok {
		return fmt.Errorf("station %s: %w", change.StationID, types.ErrNotFound)
	}
	for i, r := range st.Racks {
		if r.ID != change.RackID {
			continue
		}
		if r.State != change.Expected {
			return fmt.Errorf("rack %s/%s is %s, expected %s: %w",
				change.StationID, change.RackID, r.State, change.Expected, types.ErrWriteConflict)
		}
		next := cloneRack(change.Next)
		next.ID = r.ID
		next.Position = r.Position
		st.Racks[i] = next
		st.UpdatedAt = time.Now().UTC()
		s.stations[st.ID] = st
		return nil
	}
	return fmt.Errorf("rack %s/%s: %w", change.StationID, change.RackID, types.ErrNotFound)
}

func (s *StationStore) RecordSensorSnapshot(_ context.Context, stationID, rackID string, snap types.SensorSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stations[stationID]
	if !ok {
		return fmt.Errorf("station %s: %w", stationID, types.ErrNotFound)
	}
	for i, r := range st.Racks {
		if r.ID == rackID {
			snap := snap
			st.Racks[i].Sensor = &snap
			return nil
		}
	}
	return fmt.Errorf("rack %s/%s: %w", stationID, rackID, types.ErrNotFound)
}
