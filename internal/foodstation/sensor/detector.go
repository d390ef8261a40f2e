package sensor

import "github.com/BrandonDHaskell/foodstation/internal/foodstation/types"

// Detector debounces presence classification: the stable value changes only
// after DebounceSamples consecutive readings agree.
type Detector struct {
	th        Thresholds
	candidate Presence
	run       int
	stable    Presence
	last      *types.SensorSnapshot
}

func NewDetector(th Thresholds) *Detector {
	if th.DebounceSamples < 1 {
		th.DebounceSamples = 1
	}
	return &Detector{th: th}
}

// Observe feeds one reading and reports the stable presence and whether it
// changed with this reading.
func (d *Detector) Observe(snap types.SensorSnapshot) (Presence, bool) {
	s := snap
	d.last = &s

	p := d.th.Classify(snap.DistanceCm)
	if p == d.candidate {
		d.run++
	} else {
		d.candidate = p
		d.run = 1
	}

	if d.run >= d.th.DebounceSamples && d.stable != d.candidate {
		d.stable = d.candidate
		return d.stable, true
	}
	return d.stable, false
}

func (d *Detector) Current() Presence { return d.stable }

func (d *Detector) Last() (types.SensorSnapshot, bool) {
	if d.last == nil {
		return types.SensorSnapshot{}, false
	}
	return *d.last, true
}
