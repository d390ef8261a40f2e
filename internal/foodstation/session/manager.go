package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/sensor"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (types.User, error)
}

type StationReader interface {
	GetStation(ctx context.Context, stationID string) (types.Station, error)
}

// Door is the actuator gateway as seen by a session.
type Door interface {
	Open(ctx context.Context, stationID string, snap *types.SensorSnapshot) (types.DoorState, error)
	Close(ctx context.Context, stationID string, snap *types.SensorSnapshot) (types.DoorState, error)
	Current(stationID string) types.DoorState
	// Verify returns types.ErrActuatorUnacknowledged while no device report
	// has confirmed the commanded position.
	Verify(stationID string) error
}

type Notifier interface {
	Notify(ctx context.Context, n types.Notification)
}

type Config struct {
	Retry          RetryPolicy
	ConfirmTimeout time.Duration // default 2m
	RestoreTimeout time.Duration // bounds Cancelling; default 2m
	IdleTTL        time.Duration // default 10m
}

type Dependencies struct {
	Identity IdentityResolver
	Stations StationReader
	Ledger   store.Ledger
	Door     Door
	Sensors  *sensor.Hub
	Policy   *sensor.Policy
	Notifier Notifier
	Logger   zerolog.Logger
	Config   Config
}

// Manager owns every live session. Sessions are independent objects; the
// manager only tracks them and arbitrates the station door.
type Manager struct {
	deps  Dependencies
	locks *lockTable

	mu       sync.RWMutex
	sessions map[string]*Session

	now func() time.Time
}

func NewManager(d Dependencies) *Manager {
	if d.Config.ConfirmTimeout <= 0 {
		d.Config.ConfirmTimeout = 2 * time.Minute
	}
	if d.Config.RestoreTimeout <= 0 {
		d.Config.RestoreTimeout = 2 * time.Minute
	}
	if d.Config.IdleTTL <= 0 {
		d.Config.IdleTTL = 10 * time.Minute
	}
	return &Manager{
		deps:     d,
		locks:    newLockTable(),
		sessions: make(map[string]*Session),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a session at a station, waiting for a QR scan.
func (m *Manager) Start(ctx context.Context, stationID string) (View, error) {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return View{}, fmt.Errorf("%w: station id is required", types.ErrValidation)
	}
	if _, err := m.deps.Stations.GetStation(ctx, stationID); err != nil {
		return View{}, err
	}

	now := m.now()
	s := &Session{
		m:         m,
		id:        uuid.NewString(),
		stationID: stationID,
		state:     StateIdle,
		createdAt: now,
		updatedAt: now,
	}
	s.logger = m.deps.Logger.With().
		Str("session_id", s.id).
		Str("station_id", stationID).
		Logger()

	s.mu.Lock()
	s.transitionLocked(StateAuthenticating, adviceScan)
	v := s.viewLocked()
	s.mu.Unlock()

	m.mu.Lock()
	m.sessions[s.id] = s
	activeSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	return v, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[strings.TrimSpace(id)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// DoorHolder reports which session currently holds a station's door.
func (m *Manager) DoorHolder(stationID string) (string, bool) {
	return m.locks.doorHolder(stationID)
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	activeSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()
}

func (m *Manager) snapshot() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}
