package engine

import (
	"sync"
	"time"
)

// Status is a point-in-time snapshot of the sync state, readable by
// any presentation layer.
type Status struct {
	Online         bool      `json:"is_online"`
	Syncing        bool      `json:"is_syncing"`
	LastSyncTime   time.Time `json:"last_sync_time"`
	PendingChanges int       `json:"pending_changes"`
}

// Tracker owns the mutable sync status and notifies subscribers on
// every change. It replaces ambient globals: the scheduler owns one
// instance and everything else reads snapshots.
type Tracker struct {
	mu   sync.RWMutex
	st   Status
	subs []chan Status
}

// NewTracker returns a Tracker with everything zeroed (offline, idle,
// never synced).
func NewTracker() *Tracker {
	return &Tracker{}
}

// Snapshot returns a copy of the current status.
func (t *Tracker) Snapshot() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.st
}

// Subscribe returns a channel that receives a snapshot after every
// status change. Slow subscribers miss intermediate snapshots rather
// than blocking the sync path.
func (t *Tracker) Subscribe() <-chan Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := make(chan Status, 1)
	t.subs = append(t.subs, ch)
	return ch
}

// SetOnline records the connectivity state.
func (t *Tracker) SetOnline(online bool) {
	t.update(func(st *Status) { st.Online = online })
}

// SetSyncing records whether a full sync is in flight.
func (t *Tracker) SetSyncing(syncing bool) {
	t.update(func(st *Status) { st.Syncing = syncing })
}

// SetLastSync records the completion time of the most recent sync attempt.
func (t *Tracker) SetLastSync(at time.Time) {
	t.update(func(st *Status) { st.LastSyncTime = at })
}

// SetPending records the current outbox depth.
func (t *Tracker) SetPending(n int) {
	t.update(func(st *Status) { st.PendingChanges = n })
}

func (t *Tracker) update(fn func(*Status)) {
	t.mu.Lock()
	fn(&t.st)
	st := t.st
	subs := t.subs
	t.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- st:
		default:
			// Drop stale snapshot so the latest one fits.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}
