package dashboard

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/omnisense/raindash/pkg/models"
	"github.com/omnisense/raindash/pkg/registry"
	"github.com/omnisense/raindash/pkg/viewport"
)

// FleetSummary is the dashboard-level view model: the ordered device
// list and the map viewport fitted to it.
type FleetSummary struct {
	Devices []models.DeviceSummary
	View    viewport.View
	Status  Status
	Err     error
}

// FleetSession owns the device registry behind the dashboard view and
// keeps the derived viewport current. Full-list fetches and per-device
// push updates are serialized the same way DeviceSession serializes
// buffer mutations: upserts arriving while a list fetch is in flight
// are parked and re-applied after the wholesale replace.
type FleetSession struct {
	fetcher Fetcher
	logger  *zap.SugaredLogger

	mu       sync.Mutex
	registry *registry.Registry
	view     viewport.View
	gen      uint64
	inFlight bool
	pending  []models.DeviceSummary
	status   Status
	err      error
	onUpdate func(FleetSummary)
}

// FleetOption configures a FleetSession.
type FleetOption func(*FleetSession)

// WithFleetOnUpdate registers a callback invoked after every mutation.
func WithFleetOnUpdate(fn func(FleetSummary)) FleetOption {
	return func(f *FleetSession) { f.onUpdate = fn }
}

// NewFleetSession creates an empty fleet session. The viewport starts
// at the fallback view until positions arrive.
func NewFleetSession(fetcher Fetcher, logger *zap.SugaredLogger, opts ...FleetOption) *FleetSession {
	f := &FleetSession{
		fetcher:  fetcher,
		logger:   logger,
		registry: registry.New(),
		view:     viewport.Fit(nil),
		status:   StatusLoading,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Refresh issues a full-list fetch. A response that arrives after a
// newer Refresh was issued is discarded.
func (f *FleetSession) Refresh(ctx context.Context) {
	f.mu.Lock()
	f.gen++
	f.inFlight = true
	f.status = StatusLoading
	f.err = nil
	gen := f.gen
	f.mu.Unlock()

	go func() {
		devices, err := f.fetcher.Devices(ctx)
		f.complete(gen, devices, err)
	}()
}

func (f *FleetSession) complete(gen uint64, devices []models.DeviceSummary, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.gen {
		f.logger.Debugw("discarding stale device list", "generation", gen, "active", f.gen)
		return
	}

	f.inFlight = false

	if err != nil {
		f.logger.Warnw("device list fetch failed", "error", err)
		f.registry.ReplaceAll(nil)
		f.status = StatusError
		f.err = err
	} else {
		f.registry.ReplaceAll(devices)
		f.err = nil
		f.status = StatusReady
	}

	for _, s := range f.pending {
		f.registry.Upsert(s)
	}

	f.pending = nil

	if f.status == StatusReady && f.registry.Len() == 0 {
		f.status = StatusNoData
	}

	f.refitLocked()
	f.notifyLocked()
}

// Upsert applies one device:update push event.
func (f *FleetSession) Upsert(summary models.DeviceSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inFlight {
		f.pending = append(f.pending, summary)
		return
	}

	f.registry.Upsert(summary)

	if f.status == StatusNoData {
		f.status = StatusReady
	}

	f.refitLocked()
	f.notifyLocked()
}

// Snapshot returns the ordered device list.
func (f *FleetSession) Snapshot() []models.DeviceSummary {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.registry.Snapshot()
}

// View returns the current fitted viewport.
func (f *FleetSession) View() viewport.View {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.view
}

// Summary returns the current fleet view model.
func (f *FleetSession) Summary() FleetSummary {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.summaryLocked()
}

// refitLocked recomputes the viewport from scratch; the fit is a pure
// function of the position set, never patched incrementally.
func (f *FleetSession) refitLocked() {
	f.view = viewport.Fit(f.registry.Positions())
}

func (f *FleetSession) summaryLocked() FleetSummary {
	return FleetSummary{
		Devices: f.registry.Snapshot(),
		View:    f.view,
		Status:  f.status,
		Err:     f.err,
	}
}

func (f *FleetSession) notifyLocked() {
	if f.onUpdate == nil {
		return
	}

	f.onUpdate(f.summaryLocked())
}
