package timing

import (
	"log"
	"sync"
	"time"
)

// DeviceStatus is the per-sensor liveness block in the status payload.
type DeviceStatus struct {
	Role     Role       `json:"role"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
	Online   bool       `json:"online"`
}

type deviceRecord struct {
	role     Role
	lastSeen time.Time
}

// Registry maps device ids to their configured roles and tracks when each
// device was last heard from. Devices are fixed at configuration time;
// last-seen is the only mutable field, written by the two event producers
// (transport receiver and local capture) and read by status snapshots.
type Registry struct {
	mu         sync.RWMutex
	devices    map[string]*deviceRecord
	staleAfter time.Duration
	now        func() time.Time
}

func NewRegistry(devices map[string]string, staleAfter time.Duration) *Registry {
	r := &Registry{
		devices:    make(map[string]*deviceRecord, len(devices)),
		staleAfter: staleAfter,
		now:        time.Now,
	}
	for id, roleName := range devices {
		role, ok := ParseRole(roleName)
		if !ok {
			log.Printf("devices: ignoring %q with unknown role %q", id, roleName)
			continue
		}
		r.devices[id] = &deviceRecord{role: role}
	}
	return r
}

// Role returns the configured role for a device id.
func (r *Registry) Role(id string) (Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.devices[id]
	if !ok {
		return "", false
	}
	return rec.role, true
}

// Seen records that an event was received from the device.
func (r *Registry) Seen(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.devices[id]; ok {
		rec.lastSeen = r.now()
	}
}

// Status returns a copy of all device liveness records. A device is online
// when it has been heard from within the staleness window.
func (r *Registry) Status() map[string]DeviceStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	out := make(map[string]DeviceStatus, len(r.devices))
	for id, rec := range r.devices {
		st := DeviceStatus{Role: rec.role}
		if !rec.lastSeen.IsZero() {
			t := rec.lastSeen
			st.LastSeen = &t
			st.Online = now.Sub(rec.lastSeen) <= r.staleAfter
		}
		out[id] = st
	}
	return out
}
