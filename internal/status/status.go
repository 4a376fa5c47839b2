// Package status implements the device freshness model: a device is online
// iff its most recent reading is at most OnlineWindow old.
package status

import (
	"sync"
	"time"

	"envdash.dev/envdash/internal/sensorapi"
)

// OnlineWindow is the recency threshold for the online classification.
const OnlineWindow = 20 * time.Second

// IsOnline reports whether a device with the given most recent reading is
// considered online at the given instant. A nil reading (device has never
// reported) is always offline, as is a reading whose timestamp cannot be
// parsed.
//
// Readings timestamped in the future (clock skew on the backend) produce a
// negative elapsed time and are reported online. This is accepted behavior,
// not corrected.
func IsOnline(r *sensorapi.Reading, now time.Time) bool {
	if r == nil {
		return false
	}
	recorded, ok := r.RecordedTime()
	if !ok {
		return false
	}
	return now.Sub(recorded) <= OnlineWindow
}

// Tracker holds the derived online flag per device. Entries are merged by key
// rather than replaced wholesale, so interleaved refresh paths never erase
// each other's results. The map is transient and never persisted.
type Tracker struct {
	mu     sync.RWMutex
	online map[string]bool
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		online: make(map[string]bool),
	}
}

// Set records the online flag for a device.
func (t *Tracker) Set(deviceID string, online bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.online[deviceID] = online
}

// Online reports the online flag for a device. Devices never probed are
// offline.
func (t *Tracker) Online(deviceID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.online[deviceID]
}

// Known reports whether the device has a recorded status entry.
func (t *Tracker) Known(deviceID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[deviceID]
	return ok
}

// Snapshot returns a copy of the status map.
func (t *Tracker) Snapshot() map[string]bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]bool, len(t.online))
	for id, v := range t.online {
		out[id] = v
	}
	return out
}

// OnlineCount returns the number of devices currently flagged online.
func (t *Tracker) OnlineCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, v := range t.online {
		if v {
			n++
		}
	}
	return n
}
