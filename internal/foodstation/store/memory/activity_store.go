package memory

import (
	"context"
	"sync"
	"time"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

// ActivityStore is an in-memory append-only activity log.
// It is intended for use in tests and dev environments.
type ActivityStore struct {
	mu      sync.Mutex
	entries []types.ActivityLogEntry
}

func NewActivityStore() *ActivityStore {
	return &ActivityStore{}
}

func (s *ActivityStore) Append(_ context.Context, entry types.ActivityLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	// A rack's entries are strictly ordered in time.
	for i := len(s.entries) - 1; i >= 0; i-- {
		last := s.entries[i]
		if last.StationID != entry.StationID || last.RackID != entry.RackID {
			continue
		}
		if !entry.At.After(last.At) {
			entry.At = last.At.Add(time.Millisecond)
		}
		break
	}
	s.entries = append(s.entries, entry)
	return nil
}

// List returns matching entries newest first.
func (s *ActivityStore) List(_ context.Context, f types.ActivityFilter) ([]types.ActivityLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.ActivityLogEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if f.StationID != "" && e.StationID != f.StationID {
			continue
		}
		if f.RackID != "" && e.RackID != f.RackID {
			continue
		}
		if f.ActorID != "" && e.ActorID != f.ActorID {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// Entries returns a copy of all entries in append order.  Test-only helper.
func (s *ActivityStore) Entries() []types.ActivityLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ActivityLogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Ledger commits rack changes against a StationStore and appends to an
// ActivityStore while holding the station lock, so no reader sees one
// without the other.
type Ledger struct {
	stations *StationStore
	activity *ActivityStore

	// failAppend lets tests simulate a log write failure.
	failAppend error
}

func NewLedger(stations *StationStore, activity *ActivityStore) *Ledger {
	return &Ledger{stations: stations, activity: activity}
}

// FailNextAppend makes the next CommitRack fail at the log append step.
// Test-only helper.
func (l *Ledger) FailNextAppend(err error) {
	l.stations.mu.Lock()
	defer l.stations.mu.Unlock()
	l.failAppend = err
}

func (l *Ledger) CommitRack(ctx context.Context, change store.RackChange, entry types.ActivityLogEntry) error {
	l.stations.mu.Lock()
	defer l.stations.mu.Unlock()

	st, ok := l.stations.stations[change.StationID]
	if !ok {
		return l.stations.applyLocked(change)
	}
	before := cloneStation(st)

	if err := l.stations.applyLocked(change); err != nil {
		return err
	}

	if l.failAppend != nil {
		err := l.failAppend
		l.failAppend = nil
		l.stations.stations[before.ID] = before
		return err
	}
	return l.activity.Append(ctx, entry)
}
