package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/omnisense/raindash/pkg/config"
	"github.com/omnisense/raindash/pkg/lifecycle"
	"github.com/omnisense/raindash/pkg/simulator"
)

func main() {
	cfgFile := flag.String("config", "omnisim.json", "Path to config file")
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

	var cfg config.Simulator
	if err := config.LoadAndValidate(*cfgFile, &cfg); err != nil {
		logger.Errorf("error reading config file: %v", err)
		os.Exit(1)
	}

	store, err := simulator.NewStore(cfg.DBPath)
	if err != nil {
		logger.Errorf("failed to open reading store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	hub := simulator.NewHub(logger)
	server := simulator.NewServer(&cfg, store, hub, logger)
	generator := simulator.NewGenerator(server, store, hub, time.Duration(cfg.EmitInterval), logger)

	err = lifecycle.RunServer(context.Background(), &lifecycle.ServerOptions{
		ListenAddr:  cfg.ListenAddr,
		ServiceName: "omnisim",
		Handler:     server.Handler(),
		Service:     generator,
		Logger:      logger,
	})
	if err != nil {
		logger.Errorf("simulator exited: %v", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
