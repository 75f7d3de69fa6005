package simulator

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/omnisense/raindash/pkg/config"
	"github.com/omnisense/raindash/pkg/models"
)

const defaultQueryHours = 24

var errUnknownDevice = errors.New("unknown device")

// Server serves the backend surface the dashboard client consumes:
// health, device list, per-device summary and readings, and the
// websocket push endpoint.
type Server struct {
	cfg      *config.Simulator
	store    *Store
	hub      *Hub
	logger   *zap.SugaredLogger
	router   *mux.Router
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	devices []models.DeviceSummary
}

// NewServer creates a server seeded with the configured devices.
func NewServer(cfg *config.Simulator, store *Store, hub *Hub, logger *zap.SugaredLogger) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		hub:    hub,
		logger: logger,
		router: mux.NewRouter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	for _, d := range cfg.Devices {
		s.devices = append(s.devices, models.DeviceSummary{
			ID:       models.DeviceID(d.ID),
			Name:     d.Name,
			Lat:      d.Lat,
			Lng:      d.Lng,
			IsOnline: true,
		})
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/health", s.getHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/devices", s.getDevices).Methods(http.MethodGet)
	s.router.HandleFunc("/api/devices/{id}", s.getDevice).Methods(http.MethodGet)
	s.router.HandleFunc("/api/devices/{id}/rain", s.getRain).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWS)
}

// Handler returns the HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return cors.AllowAll().Handler(s.router)
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) getDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.Devices())
}

// Devices returns a copy of the current device summaries.
func (s *Server) Devices() []models.DeviceSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices := make([]models.DeviceSummary, len(s.devices))
	copy(devices, s.devices)

	return devices
}

func (s *Server) getDevice(w http.ResponseWriter, r *http.Request) {
	id, err := deviceID(r)
	if err != nil {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}

	device, err := s.device(id)
	if err != nil {
		http.Error(w, "device not found", http.StatusNotFound)
		return
	}

	writeJSON(w, device)
}

func (s *Server) getRain(w http.ResponseWriter, r *http.Request) {
	id, err := deviceID(r)
	if err != nil {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}

	if _, err := s.device(id); err != nil {
		http.Error(w, "device not found", http.StatusNotFound)
		return
	}

	since := querySince(r)

	readings, err := s.store.ReadingsSince(r.Context(), id, since)
	if err != nil {
		s.logger.Errorw("readings query failed", "device", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, readings)
}

// querySince resolves the requested window: today=true anchors it to
// local midnight, otherwise hours=N (default 24) back from now.
func querySince(r *http.Request) time.Time {
	now := time.Now()

	if r.URL.Query().Get("today") == "true" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}

	hours := defaultQueryHours
	if v := r.URL.Query().Get("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			hours = n
		}
	}

	return now.Add(-time.Duration(hours) * time.Hour)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}

	id := s.hub.Add(conn)

	// Drain the connection; clients never send, but reads surface
	// disconnects.
	go func() {
		defer s.hub.Remove(id)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) device(id models.DeviceID) (models.DeviceSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.devices {
		if d.ID == id {
			return d, nil
		}
	}

	return models.DeviceSummary{}, errUnknownDevice
}

// setOnline flips a device's online flag and returns the new summary.
func (s *Server) setOnline(id models.DeviceID, online bool) (models.DeviceSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.devices {
		if s.devices[i].ID == id {
			s.devices[i].IsOnline = online
			return s.devices[i], nil
		}
	}

	return models.DeviceSummary{}, errUnknownDevice
}

func deviceID(r *http.Request) (models.DeviceID, error) {
	n, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, err
	}

	return models.DeviceID(n), nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
