package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

var (
	ErrInvalidStationID = errors.New("station_id is required")
)

// SensorPublisher receives every accepted rack reading.
type SensorPublisher interface {
	Publish(r types.SensorReading)
}

// DoorTracker is the slice of the actuator gateway that telemetry touches.
type DoorTracker interface {
	Current(stationID string) types.DoorState
	Acknowledge(stationID string, closed bool, at time.Time)
}

type TelemetryService struct {
	telemetry store.TelemetryStore
	stations  store.StationStore
	registry  *StationRegistry
	sensors   SensorPublisher
	doors     DoorTracker
}

func NewTelemetryService(ts store.TelemetryStore, ss store.StationStore, reg *StationRegistry, sensors SensorPublisher, doors DoorTracker) *TelemetryService {
	return &TelemetryService{telemetry: ts, stations: ss, registry: reg, sensors: sensors, doors: doors}
}

// Record accepts telemetry from unknown stations too, so a freshly
// installed device shows up before it is provisioned; only known stations
// feed the sensor stream and the ledger's snapshot.
func (s *TelemetryService) Record(ctx context.Context, req types.TelemetryRequest) (types.TelemetryResponse, error) {
	stationID := strings.TrimSpace(req.StationID)
	if stationID == "" {
		return types.TelemetryResponse{}, ErrInvalidStationID
	}
	req.StationID = stationID
	req.RackID = strings.TrimSpace(req.RackID)

	known, err := s.registry.IsKnown(ctx, stationID)
	if err != nil {
		return types.TelemetryResponse{}, err
	}

	now := time.Now().UTC()
	rec := store.TelemetryRecord{
		ReceivedAt: now,
		ReportedAt: parseOptionalTimestamp(req.ReportedAt),
		Request:    req,
	}
	if err := s.telemetry.UpsertTelemetry(ctx, stationID, rec); err != nil {
		return types.TelemetryResponse{}, err
	}

	if known {
		if req.DoorClosed != nil {
			s.doors.Acknowledge(stationID, *req.DoorClosed, now)
		}
		if err := s.applyReading(ctx, req, now); err != nil {
			return types.TelemetryResponse{}, err
		}
	}

	return types.TelemetryResponse{
		OK:         true,
		Known:      known,
		StationID:  stationID,
		Door:       s.doors.Current(stationID).Position,
		ServerTime: now.Format(time.RFC3339Nano),
	}, nil
}

func (s *TelemetryService) applyReading(ctx context.Context, req types.TelemetryRequest, now time.Time) error {
	if req.RackID == "" || req.DistanceCm == nil {
		return nil
	}
	snap := types.SensorSnapshot{
		DistanceCm: *req.DistanceCm,
		ObservedAt: now,
	}
	if req.TemperatureC != nil {
		snap.TemperatureC = *req.TemperatureC
	}
	if req.Gas != nil {
		snap.Gas = *req.Gas
	}
	if req.HumidityPct != nil {
		snap.HumidityPct = *req.HumidityPct
	}

	if err := s.stations.RecordSensorSnapshot(ctx, req.StationID, req.RackID, snap); err != nil {
		return err
	}
	s.sensors.Publish(types.SensorReading{
		StationID:      req.StationID,
		RackID:         req.RackID,
		SensorSnapshot: snap,
	})
	return nil
}

// DoorCommand is polled by the station's motor controller.
func (s *TelemetryService) DoorCommand(ctx context.Context, stationID string) (types.DoorCommand, error) {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return types.DoorCommand{}, ErrInvalidStationID
	}
	known, err := s.registry.IsKnown(ctx, stationID)
	if err != nil {
		return types.DoorCommand{}, err
	}
	if !known {
		return types.DoorCommand{}, types.ErrNotFound
	}

	st := s.doors.Current(stationID)
	cmd := types.DoorCommand{
		StationID:  stationID,
		Door:       st.Position,
		ServerTime: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if !st.CommandedAt.IsZero() {
		cmd.CommandedAt = st.CommandedAt.Format(time.RFC3339Nano)
	}
	return cmd, nil
}

// parseOptionalTimestamp attempts to parse a device-reported timestamp.
// Returns nil if the string is empty or unparseable.
func parseOptionalTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		u := t.UTC()
		return &u
	}
	return nil
}
