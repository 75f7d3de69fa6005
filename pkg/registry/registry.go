// Package registry pkg/registry/registry.go keeps the ordered,
// upsert-by-identity mapping of device summaries backing the fleet view.
package registry

import (
	"sync"

	"github.com/omnisense/raindash/pkg/models"
)

// Registry maps device ids to summaries, preserving insertion order
// except for in-place replacement on upsert. At most one entry exists
// per id.
type Registry struct {
	mu      sync.RWMutex
	devices []models.DeviceSummary
	index   map[models.DeviceID]int
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		index: make(map[models.DeviceID]int),
	}
}

// ReplaceAll swaps in the result of a full-list fetch wholesale.
func (r *Registry) ReplaceAll(summaries []models.DeviceSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.devices = r.devices[:0]
	r.index = make(map[models.DeviceID]int, len(summaries))

	for _, s := range summaries {
		r.upsertLocked(s)
	}
}

// Upsert replaces the entry with the same id in place, preserving its
// position and the order of all other entries, or appends a new one.
func (r *Registry) Upsert(s models.DeviceSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.upsertLocked(s)
}

func (r *Registry) upsertLocked(s models.DeviceSummary) {
	if i, ok := r.index[s.ID]; ok {
		r.devices[i] = s
		return
	}

	r.index[s.ID] = len(r.devices)
	r.devices = append(r.devices, s)
}

// Get returns the summary for id, if present.
func (r *Registry) Get(id models.DeviceID) (models.DeviceSummary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return models.DeviceSummary{}, false
	}

	return r.devices[i], true
}

// Snapshot returns the current entries in order.
func (r *Registry) Snapshot() []models.DeviceSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.DeviceSummary, len(r.devices))
	copy(out, r.devices)

	return out
}

// Positions returns the coordinates of all devices whose lat and lng
// are both finite. Devices without a usable position are excluded,
// never plotted at zero.
func (r *Registry) Positions() []models.Position {
	r.mu.RLock()
	defer r.mu.RUnlock()

	positions := make([]models.Position, 0, len(r.devices))

	for i := range r.devices {
		if !r.devices[i].HasPosition() {
			continue
		}

		positions = append(positions, models.Position{
			Lat: r.devices[i].Lat,
			Lng: r.devices[i].Lng,
		})
	}

	return positions
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.devices)
}
