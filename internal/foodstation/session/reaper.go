package session

import (
	"context"
	"time"
)

// Reaper sweeps sessions that have gone quiet. Finished sessions are
// forgotten after the idle TTL and sessions abandoned before the door opened
// are cancelled. A session stuck in Cancelling past the idle TTL is forced
// to Cancelled; confirming sessions are left to their own timeout.
type Reaper struct {
	m        *Manager
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewReaper(m *Manager, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{m: m, interval: interval, done: make(chan struct{})}
}

func (r *Reaper) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	go r.loop(ctx)
}

// Stop signals the reaper to exit and waits for it to finish.
func (r *Reaper) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

func (r *Reaper) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.m.Sweep(ctx)
		}
	}
}

// Sweep runs one reaping pass and returns how many sessions were forgotten.
func (m *Manager) Sweep(ctx context.Context) int {
	cutoff := m.now().Add(-m.deps.Config.IdleTTL)
	removed := 0
	for _, s := range m.snapshot() {
		s.mu.Lock()
		if s.updatedAt.After(cutoff) {
			s.mu.Unlock()
			continue
		}
		switch {
		case s.state.Terminal():
			s.mu.Unlock()
			m.forget(s.id)
			removed++
			continue
		case s.state == StateCancelling:
			s.forceCancelLocked(ctx, "reaped")
		case !s.holdsDoor && s.state.Cancellable():
			s.logger.Info().Str("state", string(s.state)).Msg("reaping idle session")
			s.transitionLocked(StateCancelled, adviceCancelled)
		}
		s.mu.Unlock()
	}
	return removed
}
