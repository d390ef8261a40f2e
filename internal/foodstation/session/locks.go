package session

import "sync"

type rackKey struct {
	station string
	rack    string
}

// lockTable holds the station door locks and the rack locks. Both are taken
// together when a door opens and released together on commit or cancel.
type lockTable struct {
	mu    sync.Mutex
	doors map[string]string // station -> owning session
	racks map[rackKey]string
}

func newLockTable() *lockTable {
	return &lockTable{
		doors: make(map[string]string),
		racks: make(map[rackKey]string),
	}
}

func (l *lockTable) acquire(stationID, rackID, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if h, ok := l.doors[stationID]; ok && h != owner {
		return ErrStationBusy
	}
	k := rackKey{stationID, rackID}
	if h, ok := l.racks[k]; ok && h != owner {
		return ErrStationBusy
	}
	l.doors[stationID] = owner
	l.racks[k] = owner
	return nil
}

func (l *lockTable) release(stationID, rackID, owner string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.doors[stationID] == owner {
		delete(l.doors, stationID)
	}
	k := rackKey{stationID, rackID}
	if l.racks[k] == owner {
		delete(l.racks, k)
	}
}

func (l *lockTable) doorHolder(stationID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.doors[stationID]
	return h, ok
}
