package types

import "time"

type ActivityKind string

const (
	ActivityDonation   ActivityKind = "donation"
	ActivityCollection ActivityKind = "collection"
)

// ActivityLogEntry is immutable once appended.
type ActivityLogEntry struct {
	ID        string         `json:"id"`
	Kind      ActivityKind   `json:"kind"`
	ActorID   string         `json:"actor_id"`
	StationID string         `json:"station_id"`
	RackID    string         `json:"rack_id"`
	Food      FoodDescriptor `json:"food"`
	At        time.Time      `json:"at"`
}

type ActivityFilter struct {
	StationID string
	RackID    string
	ActorID   string
	Limit     int
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	StationID string    `json:"station_id,omitempty"`
	RackID    string    `json:"rack_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
