package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/omnisense/raindash/pkg/backend"
	"github.com/omnisense/raindash/pkg/config"
	"github.com/omnisense/raindash/pkg/dashboard"
	"github.com/omnisense/raindash/pkg/models"
	"github.com/omnisense/raindash/pkg/push"
	"github.com/omnisense/raindash/pkg/timewindow"
)

const summaryInterval = 30 * time.Second

func main() {
	cfgFile := flag.String("config", "raindash.json", "Path to config file")
	deviceID := flag.Int64("device", 0, "Device id to open a live view for (0: fleet view only)")
	rangeFlag := flag.String("range", "24h", "Display range: 1h, 6h, 12h, 24h, 48h, 72h or today")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	var (
		zapLogger *zap.Logger
		err       error
	)

	if *debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}

	if err != nil {
		fmt.Printf("can't initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	logger := zapLogger.Sugar()

	if err := config.LoadEnvFile(".env"); err != nil {
		logger.Warnw("failed to load .env file", "error", err)
	}

	var cfg config.Client
	if err := config.LoadAndValidate(*cfgFile, &cfg); err != nil {
		logger.Errorf("error reading config file: %v", err)
		os.Exit(1)
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		logger.Errorf("invalid configuration: %v", err)
		os.Exit(1)
	}

	selected, err := timewindow.Parse(*rangeFlag)
	if err != nil {
		logger.Errorf("invalid -range: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := backend.NewClient(cfg.BackendURL, cfg.Token, logger)

	fleet := dashboard.NewFleetSession(client, logger)
	reconciler := dashboard.NewReconciler(fleet, logger)

	var session *dashboard.DeviceSession

	if *deviceID != 0 {
		opts := []dashboard.SessionOption{}
		if cfg.BufferCapacity > 0 {
			opts = append(opts, dashboard.WithCapacity(cfg.BufferCapacity))
		}

		session = dashboard.NewDeviceSession(
			models.DeviceID(*deviceID), client, selected, logger, opts...)
		reconciler.Attach(session)
		session.Start(ctx)
	}

	fleet.Refresh(ctx)

	subscriber := push.NewSubscriber(cfg.PushURL, reconciler, logger)

	go func() {
		if err := subscriber.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Errorf("push subscriber stopped: %v", err)
		}
	}()

	go reportLoop(ctx, fleet, session, logger)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	logger.Info("shutdown signal received, initiating graceful shutdown...")
	cancel()

	if err := subscriber.Close(); err != nil {
		logger.Warnw("error closing push subscriber", "error", err)
	}

	logger.Info("shutdown complete")
}

// reportLoop periodically logs what the view layer would render.
func reportLoop(ctx context.Context, fleet *dashboard.FleetSession, session *dashboard.DeviceSession, logger *zap.SugaredLogger) {
	ticker := time.NewTicker(summaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fs := fleet.Summary()
			logger.Infow("fleet",
				"devices", len(fs.Devices),
				"center_lat", fs.View.Center.Lat,
				"center_lng", fs.View.Center.Lng,
				"zoom", fs.View.Zoom,
				"status", fs.Status)

			if session == nil {
				continue
			}

			ds := session.Summary()
			logger.Infow("device",
				"id", ds.DeviceID,
				"range", ds.Range.String(),
				"status", ds.Status,
				"mm_1h", ds.LastHour,
				"mm_24h", ds.LastDay,
				"mm_today", ds.Today,
				"mm_selected", ds.Selected,
				"points", len(ds.Points))
		}
	}
}
