package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omnisense/raindash/pkg/models"
)

type recordingHandler struct {
	mu       sync.Mutex
	readings []models.ReadingEvent
	updates  []models.DeviceSummary
}

func (h *recordingHandler) HandleReading(ev models.ReadingEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.readings = append(h.readings, ev)
}

func (h *recordingHandler) HandleDeviceUpdate(summary models.DeviceSummary) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.updates = append(h.updates, summary)
}

func (h *recordingHandler) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.readings), len(h.updates)
}

// pushServer upgrades each connection and writes the given frames.
func pushServer(t *testing.T, frames []string) string {
	t.Helper()

	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		for _, frame := range frames {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
		}
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestSubscriberDispatch(t *testing.T) {
	frames := []string{
		`{"event": "reading:new", "payload": {"deviceId": 7, "timestamp": "2026-08-30T12:00:00Z", "rainfall_mm": 1.5}}`,
		`{"event": "device:update", "payload": {"id": 7, "name": "gauge-7", "lat": 13.7, "lng": 100.5, "isOnline": true}}`,
		`{"event": "reading:new", "payload": {"timestamp": "2026-08-30T12:00:00Z"}}`, // malformed, no id
		`{"event": "image:new", "payload": {"deviceId": 7, "url": "x.jpg"}}`,         // not consumed
		`not json at all`,
		`{"event": "reading:new", "payload": {"deviceId": 7, "timestamp": "2026-08-30T12:01:00Z", "rainfall_mm": 0.5}}`,
	}

	handler := &recordingHandler{}
	sub := NewSubscriber(pushServer(t, frames), handler, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})

	go func() {
		defer close(done)
		sub.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		readings, updates := handler.counts()
		return readings == 2 && updates == 1
	}, 5*time.Second, 10*time.Millisecond)

	handler.mu.Lock()
	assert.Equal(t, models.DeviceID(7), handler.readings[0].DeviceID)
	assert.Equal(t, 1.5, handler.readings[0].Reading.RainfallMM)
	assert.Equal(t, 0.5, handler.readings[1].Reading.RainfallMM)
	assert.Equal(t, "gauge-7", handler.updates[0].Name)
	handler.mu.Unlock()

	cancel()
	sub.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not stop after cancel")
	}
}

func TestSubscriberReconnects(t *testing.T) {
	upgrader := websocket.Upgrader{}

	var (
		mu    sync.Mutex
		dials int
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		dials++
		n := dials
		mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		if n == 1 {
			// Drop the first connection immediately to force a redial.
			conn.Close()
			return
		}

		frame := `{"event": "reading:new", "payload": {"deviceId": 1, "timestamp": "2026-08-30T12:00:00Z", "rainfall_mm": 1}}`
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
	}))
	defer server.Close()

	handler := &recordingHandler{}
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	sub := NewSubscriber(url, handler, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sub.Run(ctx)

	require.Eventually(t, func() bool {
		readings, _ := handler.counts()
		return readings == 1
	}, 15*time.Second, 25*time.Millisecond)

	mu.Lock()
	assert.GreaterOrEqual(t, dials, 2)
	mu.Unlock()
}

func TestSubscriberRunStopsOnCancel(t *testing.T) {
	handler := &recordingHandler{}
	sub := NewSubscriber(pushServer(t, nil), handler, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)

	go func() { errCh <- sub.Run(ctx) }()

	// Let the first dial land before canceling.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
