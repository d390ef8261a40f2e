package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

type AddStationRequest struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address,omitempty"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	RackIDs   []string `json:"rack_ids,omitempty"`
	Racks     int      `json:"racks,omitempty"` // used when RackIDs is empty: R1..Rn
}

// StationRegistry is the read side of the rack ledger plus station
// provisioning.
type StationRegistry struct {
	store store.StationStore
}

func NewStationRegistry(st store.StationStore) *StationRegistry {
	return &StationRegistry{store: st}
}

func (r *StationRegistry) IsKnown(ctx context.Context, stationID string) (bool, error) {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return false, nil
	}
	_, err := r.store.GetStation(ctx, stationID)
	if errors.Is(err, types.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *StationRegistry) Get(ctx context.Context, stationID string) (types.Station, error) {
	return r.store.GetStation(ctx, strings.TrimSpace(stationID))
}

func (r *StationRegistry) List(ctx context.Context) ([]types.Station, error) {
	return r.store.ListStations(ctx)
}

func (r *StationRegistry) Add(ctx context.Context, req AddStationRequest) (types.Station, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return types.Station{}, fmt.Errorf("%w: station id is required", types.ErrValidation)
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return types.Station{}, fmt.Errorf("%w: coordinates out of range", types.ErrValidation)
	}

	rackIDs := req.RackIDs
	if len(rackIDs) == 0 {
		for i := 1; i <= req.Racks; i++ {
			rackIDs = append(rackIDs, fmt.Sprintf("R%d", i))
		}
	}
	if len(rackIDs) == 0 {
		return types.Station{}, fmt.Errorf("%w: a station needs at least one rack", types.ErrValidation)
	}

	seen := make(map[string]struct{}, len(rackIDs))
	racks := make([]types.Rack, 0, len(rackIDs))
	for i, rid := range rackIDs {
		rid = strings.TrimSpace(rid)
		if rid == "" {
			return types.Station{}, fmt.Errorf("%w: empty rack id", types.ErrValidation)
		}
		if _, dup := seen[rid]; dup {
			return types.Station{}, fmt.Errorf("%w: duplicate rack id %s", types.ErrValidation, rid)
		}
		seen[rid] = struct{}{}
		racks = append(racks, types.EmptyRack(rid, i+1))
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = id
	}
	now := time.Now().UTC()
	st := types.Station{
		ID:        id,
		Name:      name,
		Address:   strings.TrimSpace(req.Address),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Racks:     racks,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.CreateStation(ctx, st); err != nil {
		return types.Station{}, err
	}
	return st, nil
}
