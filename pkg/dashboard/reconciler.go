package dashboard

import (
	"sync"

	"go.uber.org/zap"

	"github.com/omnisense/raindash/pkg/models"
)

// Reconciler routes push events from the process-wide connection to the
// sessions that consume them: readings to the per-device session that
// is viewing the device, summaries to the fleet session. It implements
// push.Handler.
type Reconciler struct {
	fleet  *FleetSession
	logger *zap.SugaredLogger

	mu       sync.RWMutex
	sessions map[models.DeviceID]*DeviceSession
}

// NewReconciler creates a reconciler feeding the given fleet session.
func NewReconciler(fleet *FleetSession, logger *zap.SugaredLogger) *Reconciler {
	return &Reconciler{
		fleet:    fleet,
		logger:   logger,
		sessions: make(map[models.DeviceID]*DeviceSession),
	}
}

// Attach registers a device session to receive readings for its device.
// A session attached for an id replaces any previous one.
func (r *Reconciler) Attach(s *DeviceSession) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.DeviceID()] = s
}

// Detach removes the session for id, typically when the device view
// closes. Subsequent readings for the device are dropped: this is a
// view-scoped cache, not a durable store.
func (r *Reconciler) Detach(id models.DeviceID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
}

// HandleReading routes one reading:new event. Events for devices not
// currently viewed are dropped.
func (r *Reconciler) HandleReading(ev models.ReadingEvent) {
	r.mu.RLock()
	session, ok := r.sessions[ev.DeviceID]
	r.mu.RUnlock()

	if !ok {
		r.logger.Debugw("dropping reading for unobserved device", "device", ev.DeviceID)
		return
	}

	session.HandleReading(ev)
}

// HandleDeviceUpdate routes one device:update event.
func (r *Reconciler) HandleDeviceUpdate(summary models.DeviceSummary) {
	if r.fleet == nil {
		return
	}

	r.fleet.Upsert(summary)
}
