package simulator

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/omnisense/raindash/pkg/models"
)

const (
	// burstChance is the probability per tick that a device is inside
	// a rain burst rather than dry.
	burstChance = 0.3

	// maxBurstMM caps a single reading during a burst.
	maxBurstMM = 4.0

	// offlineFlipChance is the probability per tick that one device
	// toggles its online flag.
	offlineFlipChance = 0.05

	retentionAge = 7 * 24 * time.Hour
)

// Generator periodically emits random readings for every seed device,
// persisting them and broadcasting the matching push events.
type Generator struct {
	server   *Server
	store    *Store
	hub      *Hub
	logger   *zap.SugaredLogger
	interval time.Duration
	rng      *rand.Rand
}

// NewGenerator creates a generator driving the given server.
func NewGenerator(server *Server, store *Store, hub *Hub, interval time.Duration, logger *zap.SugaredLogger) *Generator {
	return &Generator{
		server:   server,
		store:    store,
		hub:      hub,
		logger:   logger,
		interval: interval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start emits readings on every tick until ctx is canceled. It
// implements lifecycle.Service.
func (g *Generator) Start(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	g.logger.Infow("generator started", "interval", g.interval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.tick(ctx)
		}
	}
}

func (g *Generator) tick(ctx context.Context) {
	now := time.Now()

	for _, device := range g.server.Devices() {
		if !device.IsOnline {
			continue
		}

		reading := models.Reading{
			Timestamp:  now,
			RainfallMM: g.rainfall(),
		}

		if err := g.store.SaveReading(ctx, device.ID, reading); err != nil {
			g.logger.Errorw("failed to persist reading", "device", device.ID, "error", err)
			continue
		}

		g.hub.Broadcast(models.EventReadingNew, map[string]interface{}{
			"deviceId":    device.ID,
			"timestamp":   reading.Timestamp.Format(time.RFC3339Nano),
			"rainfall_mm": reading.RainfallMM,
		})
	}

	g.maybeFlipOnline()

	if err := g.store.Prune(ctx, retentionAge); err != nil {
		g.logger.Warnw("prune failed", "error", err)
	}
}

// rainfall produces 0 most of the time and small bursts otherwise,
// which is roughly what a tipping-bucket gauge reports.
func (g *Generator) rainfall() float64 {
	if g.rng.Float64() > burstChance {
		return 0
	}

	return g.rng.Float64() * maxBurstMM
}

// Stop disconnects the push clients. The reading store is owned by the
// caller and outlives the generator.
func (g *Generator) Stop(context.Context) error {
	g.hub.CloseAll()
	return nil
}

func (g *Generator) maybeFlipOnline() {
	if g.rng.Float64() > offlineFlipChance {
		return
	}

	devices := g.server.Devices()
	if len(devices) == 0 {
		return
	}

	target := devices[g.rng.Intn(len(devices))]

	summary, err := g.server.setOnline(target.ID, !target.IsOnline)
	if err != nil {
		return
	}

	g.logger.Infow("device flipped", "device", summary.ID, "online", summary.IsOnline)
	g.hub.Broadcast(models.EventDeviceUpdate, summary)
}
