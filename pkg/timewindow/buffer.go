// Package timewindow pkg/timewindow/buffer.go implements the bounded,
// time-ordered reading buffer behind every open device view, plus the
// display range that decides which readings it retains.
package timewindow

import (
	"sort"
	"sync"
	"time"

	"github.com/omnisense/raindash/pkg/models"
)

// DefaultCapacity bounds a buffer when no explicit capacity is given.
const DefaultCapacity = 500

// Buffer is an ordered, bounded collection of readings for one device.
// Contents are replaced wholesale after a REST fetch and appended to by
// the push path; every retained reading satisfies timestamp >= cutoff.
type Buffer struct {
	mu       sync.RWMutex
	capacity int
	cutoff   time.Time
	readings []models.Reading
}

// NewBuffer creates a buffer holding at most capacity readings.
// Non-positive capacities fall back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Buffer{
		capacity: capacity,
		readings: make([]models.Reading, 0, capacity),
	}
}

// Replace discards the current contents and stores the given readings,
// keeping only those at or after cutoff, sorted ascending by timestamp.
// If the result exceeds capacity, only the most recent entries survive.
// Exact duplicates are retained; a snapshot is authoritative for its
// window and two readings in the same instant are two physical events.
func (b *Buffer) Replace(readings []models.Reading, cutoff time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := make([]models.Reading, 0, len(readings))

	for _, r := range readings {
		if r.Timestamp.Before(cutoff) {
			continue
		}

		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Timestamp.Before(kept[j].Timestamp)
	})

	if len(kept) > b.capacity {
		kept = kept[len(kept)-b.capacity:]
	}

	b.cutoff = cutoff
	b.readings = kept
}

// Insert appends one reading arriving over the push channel. Readings
// before cutoff are dropped silently (stale for the current view).
// When the buffer overflows, the oldest entries are evicted until the
// size is back at capacity. Returns whether the reading was retained.
func (b *Buffer) Insert(r models.Reading, cutoff time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r.Timestamp.Before(cutoff) {
		return false
	}

	b.cutoff = cutoff
	b.readings = append(b.readings, r)

	if over := len(b.readings) - b.capacity; over > 0 {
		b.readings = append(b.readings[:0], b.readings[over:]...)
	}

	return true
}

// Sum returns the total rainfall for readings with from <= ts <= to.
// When from precedes the buffer cutoff the buffer is not guaranteed to
// cover the window and the result is a lower bound; see Covers.
func (b *Buffer) Sum(from, to time.Time) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var total float64

	for _, r := range b.readings {
		if r.Timestamp.Before(from) || r.Timestamp.After(to) {
			continue
		}

		total += r.RainfallMM
	}

	return total
}

// Covers reports whether a window starting at from is fully covered by
// the buffered data, i.e. whether Sum(from, ...) is exact rather than a
// lower bound.
func (b *Buffer) Covers(from time.Time) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return !from.Before(b.cutoff)
}

// Latest returns the most recent reading, if any.
func (b *Buffer) Latest() (models.Reading, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.readings) == 0 {
		return models.Reading{}, false
	}

	latest := b.readings[0]

	for _, r := range b.readings[1:] {
		if r.Timestamp.After(latest.Timestamp) {
			latest = r
		}
	}

	return latest, true
}

// Points returns a copy of the buffered readings sorted ascending by
// timestamp, the order the view layer displays them in.
func (b *Buffer) Points() []models.Reading {
	b.mu.RLock()
	defer b.mu.RUnlock()

	points := make([]models.Reading, len(b.readings))
	copy(points, b.readings)

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	return points
}

// Len returns the number of buffered readings.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.readings)
}
