package httpapi

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

// Station firmware encodes telemetry as a google.protobuf.Struct using the
// same field names as the JSON body.

// ── Telemetry ────────────────────────────────────────────────────────────────

func telemetryRequestFromStruct(p *structpb.Struct) (types.TelemetryRequest, error) {
	f := p.GetFields()
	req := types.TelemetryRequest{
		StationID:       f["station_id"].GetStringValue(),
		RackID:          f["rack_id"].GetStringValue(),
		FirmwareVersion: f["firmware_version"].GetStringValue(),
		ReportedAt:      f["reported_at"].GetStringValue(),
	}

	var err error
	if req.DistanceCm, err = optionalNumber(f, "distance_cm"); err != nil {
		return req, err
	}
	if req.TemperatureC, err = optionalNumber(f, "temperature_c"); err != nil {
		return req, err
	}
	if req.Gas, err = optionalNumber(f, "gas"); err != nil {
		return req, err
	}
	if req.HumidityPct, err = optionalNumber(f, "humidity_pct"); err != nil {
		return req, err
	}
	up, err := optionalNumber(f, "uptime_s")
	if err != nil {
		return req, err
	}
	if up != nil && *up > 0 {
		req.UptimeSeconds = uint64(*up)
	}

	if v, ok := f["door_closed"]; ok {
		b, isBool := v.GetKind().(*structpb.Value_BoolValue)
		if !isBool {
			return req, fmt.Errorf("%w: door_closed must be a bool", types.ErrValidation)
		}
		closed := b.BoolValue
		req.DoorClosed = &closed
	}
	return req, nil
}

func optionalNumber(f map[string]*structpb.Value, key string) (*float64, error) {
	v, ok := f[key]
	if !ok {
		return nil, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}
	n, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum {
		return nil, fmt.Errorf("%w: %s must be a number", types.ErrValidation, key)
	}
	x := n.NumberValue
	return &x, nil
}

func telemetryResponseToStruct(r types.TelemetryResponse) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"ok":          r.OK,
		"known":       r.Known,
		"station_id":  r.StationID,
		"door":        string(r.Door),
		"server_time": r.ServerTime,
	})
}

// ── Door ─────────────────────────────────────────────────────────────────────

func doorCommandToStruct(c types.DoorCommand) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"station_id":   c.StationID,
		"door":         string(c.Door),
		"commanded_at": c.CommandedAt,
		"server_time":  c.ServerTime,
	})
}
