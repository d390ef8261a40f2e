package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
)

// TelemetryPruner periodically deletes telemetry rows of stations that have
// not reported within the retention period.
//
// A retention of 0 disables pruning entirely.
type TelemetryPruner struct {
	store     store.TelemetryStore
	retention time.Duration
	interval  time.Duration
	logger    zerolog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

type PrunerConfig struct {
	// RetentionDays of 0 keeps everything.
	RetentionDays int
	// IntervalHours defaults to 6.
	IntervalHours int
}

// NewTelemetryPruner creates a pruner but does not start it.
func NewTelemetryPruner(s store.TelemetryStore, cfg PrunerConfig, logger zerolog.Logger) *TelemetryPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &TelemetryPruner{
		store:     s,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start runs an immediate prune, then repeats on the interval until ctx is
// cancelled or Stop is called.
func (p *TelemetryPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Info().Msg("telemetry pruner disabled (retention=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	go p.loop(ctx)

	p.logger.Info().
		Int("retention_days", int(p.retention.Hours()/24)).
		Dur("interval", p.interval).
		Msg("telemetry pruner started")
}

// Stop signals the pruner to exit and waits for it to finish.
func (p *TelemetryPruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

func (p *TelemetryPruner) loop(ctx context.Context) {
	defer close(p.done)

	p.prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *TelemetryPruner) prune(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-p.retention)
	deleted, err := p.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error().Err(err).Msg("telemetry prune failed")
		return
	}
	if deleted > 0 {
		p.logger.Info().
			Int64("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("telemetry pruned")
	}
}
