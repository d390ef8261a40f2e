package sensor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/foodstation/internal/config"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/sensor"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

var defaults = sensor.Thresholds{PresentBelowCm: 15, AbsentAboveCm: 20, DebounceSamples: 1}

func at(d float64) types.SensorSnapshot {
	return types.SensorSnapshot{DistanceCm: d, ObservedAt: time.Now().UTC()}
}

func TestThresholds_Classify(t *testing.T) {
	cases := []struct {
		distance float64
		want     sensor.Presence
	}{
		{8, sensor.PresencePresent},
		{14.9, sensor.PresencePresent},
		{15, sensor.PresenceAmbiguous},
		{17, sensor.PresenceAmbiguous},
		{20, sensor.PresenceAmbiguous},
		{20.1, sensor.PresenceAbsent},
		{25, sensor.PresenceAbsent},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, defaults.Classify(tc.distance), "distance %v", tc.distance)
	}
}

func TestPolicy_RackOverridesStation(t *testing.T) {
	twelve, nine, twentyTwo := 12.0, 9.0, 22.0
	three := 3
	p, err := sensor.NewPolicy(defaults, config.PolicyFile{
		Stations: map[string]config.StationPolicy{
			"StationA": {
				Thresholds: config.Thresholds{PresentBelowCm: &twelve, AbsentAboveCm: &twentyTwo},
				Racks: map[string]config.Thresholds{
					"R3": {PresentBelowCm: &nine, DebounceSamples: &three},
				},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, defaults, p.For("StationB", "R1"))
	assert.Equal(t, sensor.Thresholds{PresentBelowCm: 12, AbsentAboveCm: 22, DebounceSamples: 1}, p.For("StationA", "R1"))
	assert.Equal(t, sensor.Thresholds{PresentBelowCm: 9, AbsentAboveCm: 22, DebounceSamples: 3}, p.For("StationA", "R3"))
}

func TestPolicy_RejectsInvertedMergedThresholds(t *testing.T) {
	twentyFive, thirteen := 25.0, 13.0

	// Valid on its own, but above the default absent threshold of 20.
	_, err := sensor.NewPolicy(defaults, config.PolicyFile{
		Stations: map[string]config.StationPolicy{
			"StationA": {Thresholds: config.Thresholds{PresentBelowCm: &twentyFive}},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "StationA")

	// Rack override inverts the station's merged thresholds.
	_, err = sensor.NewPolicy(defaults, config.PolicyFile{
		Stations: map[string]config.StationPolicy{
			"StationA": {
				Racks: map[string]config.Thresholds{"R2": {AbsentAboveCm: &thirteen}},
			},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rack R2")

	_, err = sensor.NewPolicy(sensor.Thresholds{PresentBelowCm: 30, AbsentAboveCm: 20}, config.PolicyFile{})
	assert.Error(t, err)
}

func TestDetector_DebouncesFlicker(t *testing.T) {
	th := defaults
	th.DebounceSamples = 3
	d := sensor.NewDetector(th)

	p, changed := d.Observe(at(8))
	assert.Equal(t, sensor.PresenceUnknown, p)
	assert.False(t, changed)

	d.Observe(at(8))
	d.Observe(at(25)) // flicker resets the run
	d.Observe(at(8))
	d.Observe(at(8))
	assert.Equal(t, sensor.PresenceUnknown, d.Current())

	p, changed = d.Observe(at(8))
	assert.Equal(t, sensor.PresencePresent, p)
	assert.True(t, changed)

	_, changed = d.Observe(at(8))
	assert.False(t, changed, "repeated agreement is not a new crossing")

	last, ok := d.Last()
	require.True(t, ok)
	assert.Equal(t, 8.0, last.DistanceCm)
}

func TestDetector_SingleSampleReactsImmediately(t *testing.T) {
	d := sensor.NewDetector(defaults)

	p, changed := d.Observe(at(25))
	assert.Equal(t, sensor.PresenceAbsent, p)
	assert.True(t, changed)

	p, _ = d.Observe(at(17))
	assert.Equal(t, sensor.PresenceAmbiguous, p)
}

func TestHub_LatestAndFanOut(t *testing.T) {
	h := sensor.NewHub(4)
	sub := h.Subscribe("StationA")
	defer sub.Close()
	other := h.Subscribe("StationB")
	defer other.Close()

	h.Publish(types.SensorReading{StationID: "StationA", RackID: "R1", SensorSnapshot: at(30)})
	h.Publish(types.SensorReading{StationID: "StationA", RackID: "R1", SensorSnapshot: at(8)})

	latest, ok := h.Latest("StationA", "R1")
	require.True(t, ok)
	assert.Equal(t, 8.0, latest.DistanceCm)

	first := <-sub.C()
	second := <-sub.C()
	assert.Equal(t, 30.0, first.DistanceCm)
	assert.Equal(t, 8.0, second.DistanceCm)

	select {
	case r := <-other.C():
		t.Fatalf("StationB subscriber received %+v", r)
	default:
	}

	_, ok = h.Latest("StationA", "R2")
	assert.False(t, ok)
}

func TestHub_SlowSubscriberKeepsNewest(t *testing.T) {
	h := sensor.NewHub(2)
	sub := h.Subscribe("StationA")
	defer sub.Close()

	for _, d := range []float64{1, 2, 3, 4, 5} {
		h.Publish(types.SensorReading{StationID: "StationA", RackID: "R1", SensorSnapshot: at(d)})
	}

	var got []float64
	for len(got) < 2 {
		got = append(got, (<-sub.C()).DistanceCm)
	}
	assert.Equal(t, 5.0, got[len(got)-1])
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	h := sensor.NewHub(1)
	sub := h.Subscribe("StationA")
	sub.Close()
	sub.Close()

	_, open := <-sub.C()
	assert.False(t, open)

	// Publishing after close must not panic.
	h.Publish(types.SensorReading{StationID: "StationA", RackID: "R1", SensorSnapshot: at(8)})
}
