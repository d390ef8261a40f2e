package sensor

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

var (
	readingsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "foodstation",
		Name:      "sensor_readings_published_total",
		Help:      "Sensor readings accepted by the hub.",
	})
	readingsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "foodstation",
		Name:      "sensor_readings_dropped_total",
		Help:      "Readings dropped because a subscriber was not keeping up.",
	})
)

type rackKey struct {
	station string
	rack    string
}

// Hub is the live sensor stream. It retains only the latest reading per
// rack and fans every reading out to the station's subscribers.
type Hub struct {
	mu     sync.RWMutex
	latest map[rackKey]types.SensorReading
	subs   map[string]map[*Subscription]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		latest: make(map[rackKey]types.SensorReading),
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Publish never blocks. A subscriber with a full buffer loses its oldest
// queued reading so the newest one is always delivered.
func (h *Hub) Publish(r types.SensorReading) {
	if r.ObservedAt.IsZero() {
		r.ObservedAt = time.Now().UTC()
	}

	h.mu.Lock()
	h.latest[rackKey{r.StationID, r.RackID}] = r
	h.mu.Unlock()
	readingsPublishedTotal.Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[r.StationID] {
		sub.deliver(r)
	}
}

func (h *Hub) Latest(stationID, rackID string) (types.SensorReading, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.latest[rackKey{stationID, rackID}]
	return r, ok
}

func (h *Hub) Subscribe(stationID string) *Subscription {
	sub := &Subscription{
		hub:       h,
		stationID: stationID,
		ch:        make(chan types.SensorReading, h.buffer),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[stationID] == nil {
		h.subs[stationID] = make(map[*Subscription]struct{})
	}
	h.subs[stationID][sub] = struct{}{}
	return sub
}

type Subscription struct {
	hub       *Hub
	stationID string
	ch        chan types.SensorReading
	once      sync.Once
}

// C is closed when the subscription is closed.
func (s *Subscription) C() <-chan types.SensorReading { return s.ch }

func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[s.stationID], s)
		if len(h.subs[s.stationID]) == 0 {
			delete(h.subs, s.stationID)
		}
		close(s.ch)
	})
}

// deliver is called with the hub read lock held, so the channel cannot be
// closed underneath it.
func (s *Subscription) deliver(r types.SensorReading) {
	select {
	case s.ch <- r:
		return
	default:
	}
	select {
	case <-s.ch:
		readingsDroppedTotal.Inc()
	default:
	}
	select {
	case s.ch <- r:
	default:
		readingsDroppedTotal.Inc()
	}
}
