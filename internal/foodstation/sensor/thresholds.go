package sensor

import (
	"fmt"
	"sort"

	"github.com/BrandonDHaskell/foodstation/internal/config"
)

type Presence int

const (
	PresenceUnknown Presence = iota
	PresencePresent
	PresenceAbsent
	PresenceAmbiguous
)

func (p Presence) String() string {
	switch p {
	case PresencePresent:
		return "present"
	case PresenceAbsent:
		return "absent"
	case PresenceAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Thresholds classify an ultrasonic distance reading. Readings in the band
// [PresentBelowCm, AbsentAboveCm] are ambiguous.
type Thresholds struct {
	PresentBelowCm  float64
	AbsentAboveCm   float64
	DebounceSamples int
}

func (t Thresholds) Classify(distanceCm float64) Presence {
	switch {
	case distanceCm < t.PresentBelowCm:
		return PresencePresent
	case distanceCm > t.AbsentAboveCm:
		return PresenceAbsent
	default:
		return PresenceAmbiguous
	}
}

func (t Thresholds) Validate() error {
	if t.PresentBelowCm <= 0 || t.AbsentAboveCm <= 0 {
		return fmt.Errorf("thresholds must be positive (present<%v, absent>%v)", t.PresentBelowCm, t.AbsentAboveCm)
	}
	if t.PresentBelowCm > t.AbsentAboveCm {
		return fmt.Errorf("present_below_cm %v exceeds absent_above_cm %v", t.PresentBelowCm, t.AbsentAboveCm)
	}
	if t.DebounceSamples < 1 {
		return fmt.Errorf("debounce_samples must be at least 1")
	}
	return nil
}

// Policy resolves thresholds for a rack: rack override, then station
// override, then the service defaults.
type Policy struct {
	defaults Thresholds
	file     config.PolicyFile
}

// NewPolicy rejects any station or rack whose effective thresholds, after
// overrides are merged onto the defaults, would be inverted.
func NewPolicy(defaults Thresholds, file config.PolicyFile) (*Policy, error) {
	if defaults.DebounceSamples < 1 {
		defaults.DebounceSamples = 1
	}
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("default sensor policy: %w", err)
	}
	p := &Policy{defaults: defaults, file: file}

	stationIDs := make([]string, 0, len(file.Stations))
	for id := range file.Stations {
		stationIDs = append(stationIDs, id)
	}
	sort.Strings(stationIDs)
	for _, sid := range stationIDs {
		station := merge(defaults, file.Stations[sid].Thresholds)
		if err := station.Validate(); err != nil {
			return nil, fmt.Errorf("sensor policy for station %s: %w", sid, err)
		}
		for rid, rt := range file.Stations[sid].Racks {
			if err := merge(station, rt).Validate(); err != nil {
				return nil, fmt.Errorf("sensor policy for station %s rack %s: %w", sid, rid, err)
			}
		}
	}
	return p, nil
}

func (p *Policy) For(stationID, rackID string) Thresholds {
	out := p.defaults
	sp, ok := p.file.Stations[stationID]
	if !ok {
		return out
	}
	out = merge(out, sp.Thresholds)
	if rt, ok := sp.Racks[rackID]; ok {
		out = merge(out, rt)
	}
	return out
}

func merge(base Thresholds, o config.Thresholds) Thresholds {
	if o.PresentBelowCm != nil {
		base.PresentBelowCm = *o.PresentBelowCm
	}
	if o.AbsentAboveCm != nil {
		base.AbsentAboveCm = *o.AbsentAboveCm
	}
	if o.DebounceSamples != nil {
		base.DebounceSamples = *o.DebounceSamples
	}
	return base
}
