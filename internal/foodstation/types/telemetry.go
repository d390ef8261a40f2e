package types

import "time"

type DoorPosition string

const (
	DoorClosed DoorPosition = "closed"
	DoorOpen   DoorPosition = "open"
)

// DoorState is the optimistic, station-wide actuator state. Acknowledged is
// set once device telemetry reports the commanded position.
type DoorState struct {
	StationID    string          `json:"station_id"`
	Position     DoorPosition    `json:"position"`
	CommandedAt  time.Time       `json:"commanded_at"`
	Acknowledged bool            `json:"acknowledged"`
	AckAt        *time.Time      `json:"ack_at,omitempty"`
	Snapshot     *SensorSnapshot `json:"snapshot,omitempty"`
}

type SensorReading struct {
	StationID string `json:"station_id"`
	RackID    string `json:"rack_id"`
	SensorSnapshot
}

type TelemetryRequest struct {
	StationID       string   `json:"station_id"`
	RackID          string   `json:"rack_id,omitempty"`
	DistanceCm      *float64 `json:"distance_cm,omitempty"`
	TemperatureC    *float64 `json:"temperature_c,omitempty"`
	Gas             *float64 `json:"gas,omitempty"`
	HumidityPct     *float64 `json:"humidity_pct,omitempty"`
	DoorClosed      *bool    `json:"door_closed,omitempty"`
	FirmwareVersion string   `json:"firmware_version,omitempty"`
	UptimeSeconds   uint64   `json:"uptime_s,omitempty"`
	ReportedAt      string   `json:"reported_at,omitempty"` // optional device timestamp
}

type TelemetryResponse struct {
	OK         bool         `json:"ok"`
	Known      bool         `json:"known"`
	StationID  string       `json:"station_id"`
	Door       DoorPosition `json:"door"`
	ServerTime string       `json:"server_time"`
}

// DoorCommand is what the motor controller polls for.
type DoorCommand struct {
	StationID   string       `json:"station_id"`
	Door        DoorPosition `json:"door"`
	CommandedAt string       `json:"commanded_at"`
	ServerTime  string       `json:"server_time"`
}
