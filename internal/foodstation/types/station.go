package types

import (
	"fmt"
	"strings"
	"time"
)

type FillState string

const (
	FillEmpty  FillState = "empty"
	FillFilled FillState = "filled"
)

func (s FillState) Valid() bool {
	return s == FillEmpty || s == FillFilled
}

// FoodDescriptor is what the donor tells the station about the item.
type FoodDescriptor struct {
	Name     string `json:"name"`
	Diet     string `json:"diet,omitempty"`
	ImageURL string `json:"image_url"`
	Date     string `json:"date,omitempty"` // expiry or preparation date, as entered
}

// Validate requires a name and an image; diet and date are optional.
func (d FoodDescriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: food name is required", ErrValidation)
	}
	if strings.TrimSpace(d.ImageURL) == "" {
		return fmt.Errorf("%w: food image is required", ErrValidation)
	}
	return nil
}

func (d FoodDescriptor) Normalize() FoodDescriptor {
	return FoodDescriptor{
		Name:     strings.TrimSpace(d.Name),
		Diet:     strings.ToLower(strings.TrimSpace(d.Diet)),
		ImageURL: strings.TrimSpace(d.ImageURL),
		Date:     strings.TrimSpace(d.Date),
	}
}

type Provenance struct {
	DonorID     string    `json:"donor_id"`
	DepositedAt time.Time `json:"deposited_at"`
}

type SensorSnapshot struct {
	DistanceCm   float64   `json:"distance_cm"`
	TemperatureC float64   `json:"temperature_c"`
	Gas          float64   `json:"gas"`
	HumidityPct  float64   `json:"humidity_pct"`
	ObservedAt   time.Time `json:"observed_at"`
}

// Rack is a tagged variant: State==FillFilled carries Food and Provenance,
// State==FillEmpty carries neither. Build values with EmptyRack, Fill and
// Clear rather than by hand; Validate checks the invariant.
type Rack struct {
	ID         string          `json:"id"`
	Position   int             `json:"position"`
	State      FillState       `json:"state"`
	Food       *FoodDescriptor `json:"food,omitempty"`
	Provenance *Provenance     `json:"provenance,omitempty"`
	Sensor     *SensorSnapshot `json:"sensor,omitempty"`
}

func EmptyRack(id string, position int) Rack {
	return Rack{ID: id, Position: position, State: FillEmpty}
}

func (r Rack) Filled() bool { return r.State == FillFilled }

// Fill returns a copy of r holding desc. The sensor snapshot is kept.
func (r Rack) Fill(desc FoodDescriptor, prov Provenance) (Rack, error) {
	desc = desc.Normalize()
	if err := desc.Validate(); err != nil {
		return Rack{}, err
	}
	if strings.TrimSpace(prov.DonorID) == "" {
		return Rack{}, fmt.Errorf("%w: donor id is required", ErrValidation)
	}
	if prov.DepositedAt.IsZero() {
		prov.DepositedAt = time.Now().UTC()
	}
	out := r
	out.State = FillFilled
	out.Food = &desc
	out.Provenance = &prov
	return out, nil
}

// Clear returns a copy of r with descriptor and provenance removed together.
func (r Rack) Clear() Rack {
	out := r
	out.State = FillEmpty
	out.Food = nil
	out.Provenance = nil
	return out
}

func (r Rack) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: rack id is required", ErrValidation)
	}
	switch r.State {
	case FillFilled:
		if r.Food == nil || r.Provenance == nil {
			return fmt.Errorf("%w: filled rack %s has no descriptor", ErrValidation, r.ID)
		}
		return r.Food.Validate()
	case FillEmpty:
		if r.Food != nil || r.Provenance != nil {
			return fmt.Errorf("%w: empty rack %s carries a descriptor", ErrValidation, r.ID)
		}
		return nil
	default:
		return fmt.Errorf("%w: rack %s has unknown state %q", ErrValidation, r.ID, r.State)
	}
}

type Station struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Racks     []Rack    `json:"racks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Station) Rack(id string) (Rack, bool) {
	for _, r := range s.Racks {
		if r.ID == id {
			return r, true
		}
	}
	return Rack{}, false
}

// FirstRack returns the lowest-positioned rack in the given state.
func (s Station) FirstRack(state FillState) (Rack, bool) {
	var (
		best  Rack
		found bool
	)
	for _, r := range s.Racks {
		if r.State != state {
			continue
		}
		if !found || r.Position < best.Position {
			best, found = r, true
		}
	}
	return best, found
}

func (s Station) Count(state FillState) int {
	n := 0
	for _, r := range s.Racks {
		if r.State == state {
			n++
		}
	}
	return n
}
