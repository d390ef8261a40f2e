package actuator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

type Options struct {
	MaxRetries  uint64        // default 3
	BaseBackoff time.Duration // default 100ms
	MaxInterval time.Duration // default 2s
}

// Gateway owns the station-wide door state. Writes are best effort and the
// state is optimistic until telemetry acknowledges it.
type Gateway struct {
	motor  MotorChannel
	opts   Options
	logger zerolog.Logger

	mu    sync.RWMutex
	state map[string]types.DoorState
}

func NewGateway(motor MotorChannel, opts Options, logger zerolog.Logger) *Gateway {
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = 100 * time.Millisecond
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = 2 * time.Second
	}
	return &Gateway{
		motor:  motor,
		opts:   opts,
		logger: logger,
		state:  make(map[string]types.DoorState),
	}
}

func (g *Gateway) Open(ctx context.Context, stationID string, snap *types.SensorSnapshot) (types.DoorState, error) {
	return g.command(ctx, stationID, types.DoorOpen, snap)
}

func (g *Gateway) Close(ctx context.Context, stationID string, snap *types.SensorSnapshot) (types.DoorState, error) {
	return g.command(ctx, stationID, types.DoorClosed, snap)
}

func (g *Gateway) command(ctx context.Context, stationID string, pos types.DoorPosition, snap *types.SensorSnapshot) (types.DoorState, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = g.opts.BaseBackoff
	exp.MaxInterval = g.opts.MaxInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, g.opts.MaxRetries), ctx)

	attempt := 0
	op := func() error {
		attempt++
		err := g.motor.SetDoor(ctx, stationID, pos)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		g.logger.Warn().Err(err).
			Str("station_id", stationID).
			Str("door", string(pos)).
			Int("attempt", attempt).
			Msg("door command failed, retrying")
		return err
	}
	if err := backoff.Retry(op, policy); err != nil {
		return g.Current(stationID), fmt.Errorf("set door %s on %s: %w", pos, stationID, err)
	}

	st := types.DoorState{
		StationID:   stationID,
		Position:    pos,
		CommandedAt: time.Now().UTC(),
	}
	if snap != nil {
		s := *snap
		st.Snapshot = &s
	}

	g.mu.Lock()
	g.state[stationID] = st
	g.mu.Unlock()

	g.logger.Info().Str("station_id", stationID).Str("door", string(pos)).Msg("door commanded")
	return st, nil
}

// Current returns the last commanded state; a station never commanded is
// reported closed and unacknowledged.
func (g *Gateway) Current(stationID string) types.DoorState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	st, ok := g.state[stationID]
	if !ok {
		return types.DoorState{StationID: stationID, Position: types.DoorClosed}
	}
	return st
}

// Acknowledge records a physical door reading from telemetry. It marks the
// state acknowledged only when the reading matches the commanded position.
func (g *Gateway) Acknowledge(stationID string, closed bool, at time.Time) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	physical := types.DoorOpen
	if closed {
		physical = types.DoorClosed
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.state[stationID]
	if !ok {
		return
	}
	if st.Position == physical && !at.Before(st.CommandedAt) {
		st.Acknowledged = true
		st.AckAt = &at
	} else {
		st.Acknowledged = false
		st.AckAt = nil
	}
	g.state[stationID] = st
}

// Verify reports ErrActuatorUnacknowledged when no telemetry has confirmed
// the commanded position yet. Callers treat this as advisory.
func (g *Gateway) Verify(stationID string) error {
	st := g.Current(stationID)
	if !st.Acknowledged {
		return fmt.Errorf("door %s on %s: %w", st.Position, stationID, types.ErrActuatorUnacknowledged)
	}
	return nil
}
