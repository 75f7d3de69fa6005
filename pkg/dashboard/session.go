// Package dashboard pkg/dashboard/session.go reconciles REST snapshots
// with push events into the per-device reading buffers and the fleet
// registry, and exposes the windowed aggregates the view layer renders.
package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/omnisense/raindash/pkg/models"
	"github.com/omnisense/raindash/pkg/timewindow"
)

// Status is the user-visible state of a session's data.
type Status int

const (
	// StatusLoading means a fetch is outstanding and no data has
	// arrived yet for the active selection.
	StatusLoading Status = iota

	// StatusReady means the buffer holds current data.
	StatusReady

	// StatusNoData means the last fetch succeeded but returned nothing.
	StatusNoData

	// StatusError means the last fetch failed; the buffer was cleared
	// rather than left holding stale data.
	StatusError
)

// Summary is the device view model, recomputed after every mutation:
// the three standard aggregates, the selected range's aggregate, and
// the buffered points.
type Summary struct {
	DeviceID models.DeviceID
	Range    timewindow.Range
	Status   Status
	Err      error

	LastHour float64
	LastDay  float64
	Today    float64
	Selected float64

	Latest    models.Reading
	HasLatest bool
	Points    []models.Reading
}

// DeviceSession owns the reading buffer for one open device view. All
// mutations (fetch completions, push inserts, range changes) are
// serialized under one lock, so a REST replace and the push inserts
// that arrive after it land in wall-clock arrival order. Push readings
// that arrive while a fetch is in flight are parked and applied after
// the replace, re-validated against the new cutoff.
type DeviceSession struct {
	id      models.DeviceID
	fetcher Fetcher
	logger  *zap.SugaredLogger
	now     func() time.Time

	mu       sync.Mutex
	buffer   *timewindow.Buffer
	rng      timewindow.Range
	gen      uint64
	inFlight bool
	pending  []models.Reading
	status   Status
	err      error
	onUpdate func(Summary)
}

// SessionOption configures a DeviceSession.
type SessionOption func(*DeviceSession)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *DeviceSession) { s.now = now }
}

// WithCapacity overrides the buffer capacity.
func WithCapacity(capacity int) SessionOption {
	return func(s *DeviceSession) { s.buffer = timewindow.NewBuffer(capacity) }
}

// WithOnUpdate registers a callback invoked with a fresh Summary after
// every mutation. It runs under the session lock; keep it cheap.
func WithOnUpdate(fn func(Summary)) SessionOption {
	return func(s *DeviceSession) { s.onUpdate = fn }
}

// NewDeviceSession creates a session for one device with the given
// initial range. No fetch is issued until Start or SetRange.
func NewDeviceSession(
	id models.DeviceID, fetcher Fetcher, r timewindow.Range,
	logger *zap.SugaredLogger, opts ...SessionOption) *DeviceSession {
	s := &DeviceSession{
		id:      id,
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
		buffer:  timewindow.NewBuffer(timewindow.DefaultCapacity),
		rng:     r,
		status:  StatusLoading,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// DeviceID returns the device this session is viewing.
func (s *DeviceSession) DeviceID() models.DeviceID {
	return s.id
}

// Start issues the initial fetch for the session's range.
func (s *DeviceSession) Start(ctx context.Context) {
	s.mu.Lock()
	gen, r := s.beginFetchLocked(s.rng)
	s.mu.Unlock()

	go s.fetch(ctx, gen, r)
}

// SetRange switches the active display range. The outstanding fetch, if
// any, is superseded: its response will carry a stale generation and be
// discarded on arrival. The push subscription is untouched; only the
// cutoff used to filter new events changes.
func (s *DeviceSession) SetRange(ctx context.Context, r timewindow.Range) {
	s.mu.Lock()
	gen, _ := s.beginFetchLocked(r)
	s.mu.Unlock()

	go s.fetch(ctx, gen, r)
}

// Refresh refetches the current range.
func (s *DeviceSession) Refresh(ctx context.Context) {
	s.mu.Lock()
	gen, r := s.beginFetchLocked(s.rng)
	s.mu.Unlock()

	go s.fetch(ctx, gen, r)
}

// beginFetchLocked tags a new fetch generation for range r. Last-known
// values stay visible until the new fetch resolves; only then does the
// wholesale replace happen.
func (s *DeviceSession) beginFetchLocked(r timewindow.Range) (uint64, timewindow.Range) {
	s.rng = r
	s.gen++
	s.inFlight = true
	s.status = StatusLoading
	s.err = nil

	return s.gen, r
}

func (s *DeviceSession) fetch(ctx context.Context, gen uint64, r timewindow.Range) {
	readings, err := s.fetcher.Readings(ctx, s.id, r, s.now())
	s.complete(gen, readings, err)
}

// complete applies a fetch result. Responses for a superseded
// generation are discarded silently: they were issued for a selection
// that is no longer active, an expected outcome rather than a fault.
func (s *DeviceSession) complete(gen uint64, readings []models.Reading, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		s.logger.Debugw("discarding stale fetch response",
			"device", s.id, "generation", gen, "active", s.gen)
		return
	}

	s.inFlight = false
	cutoff := s.rng.Cutoff(s.now())

	if err != nil {
		s.logger.Warnw("readings fetch failed", "device", s.id, "error", err)
		s.buffer.Replace(nil, cutoff)
		s.status = StatusError
		s.err = err
	} else {
		s.buffer.Replace(readings, cutoff)
		s.err = nil
		s.status = StatusReady
	}

	// Replay the pushes that arrived while the fetch was in flight,
	// re-validated against the possibly new cutoff. They postdate the
	// snapshot, so the replace cannot have contained them.
	for _, r := range s.pending {
		s.buffer.Insert(r, cutoff)
	}

	s.pending = nil

	if s.status == StatusReady && s.buffer.Len() == 0 {
		s.status = StatusNoData
	}

	s.notifyLocked()
}

// HandleReading applies one push reading under the active cutoff. While
// a fetch is in flight the reading is parked so the later replace
// cannot wipe it; otherwise it is inserted immediately.
func (s *DeviceSession) HandleReading(ev models.ReadingEvent) {
	if ev.DeviceID != s.id {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		s.pending = append(s.pending, ev.Reading)
		return
	}

	if !s.buffer.Insert(ev.Reading, s.rng.Cutoff(s.now())) {
		return
	}

	if s.status == StatusNoData {
		s.status = StatusReady
	}

	s.notifyLocked()
}

// Summary computes the current view model.
func (s *DeviceSession) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.summaryLocked()
}

func (s *DeviceSession) summaryLocked() Summary {
	now := s.now()

	summary := Summary{
		DeviceID: s.id,
		Range:    s.rng,
		Status:   s.status,
		Err:      s.err,
		LastHour: s.buffer.Sum(now.Add(-time.Hour), now),
		LastDay:  s.buffer.Sum(now.Add(-24*time.Hour), now),
		Today:    s.buffer.Sum(midnightOf(now), now),
		Selected: s.buffer.Sum(s.rng.Cutoff(now), now),
		Points:   s.buffer.Points(),
	}

	summary.Latest, summary.HasLatest = s.buffer.Latest()

	return summary
}

func (s *DeviceSession) notifyLocked() {
	if s.onUpdate == nil {
		return
	}

	s.onUpdate(s.summaryLocked())
}

func midnightOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
