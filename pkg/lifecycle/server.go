// Package lifecycle runs a long-lived service next to its HTTP listener
// and owns the shutdown sequence for both.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const ShutdownTimeout = 10 * time.Second

// Service defines the interface that all services must implement.
type Service interface {
	Start(context.Context) error
	Stop(context.Context) error
}

// ServerOptions holds configuration for creating a server.
type ServerOptions struct {
	ListenAddr  string
	ServiceName string
	Handler     http.Handler
	Service     Service
	Logger      *zap.SugaredLogger
}

// RunServer starts a service with the provided options and handles
// lifecycle: the HTTP listener and the service run until a signal, an
// error from either, or ctx cancellation triggers a graceful shutdown.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts.Logger.Infow("starting service",
		"service", opts.ServiceName, "addr", opts.ListenAddr)

	httpServer := &http.Server{
		Addr:    opts.ListenAddr,
		Handler: opts.Handler,
	}

	errChan := make(chan error, 1)

	go func() {
		if err := opts.Service.Start(ctx); err != nil && ctx.Err() == nil {
			select {
			case errChan <- err:
			default:
				opts.Logger.Errorw("service error", "error", err)
			}
		}
	}()

	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- err:
			default:
				opts.Logger.Errorw("http server error", "error", err)
			}
		}
	}()

	return handleShutdown(ctx, cancel, httpServer, opts, errChan)
}

func handleShutdown(
	ctx context.Context, cancel context.CancelFunc,
	httpServer *http.Server, opts *ServerOptions, errChan chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error

	select {
	case sig := <-sigChan:
		opts.Logger.Infow("received signal, initiating shutdown", "signal", sig.String())
	case err := <-errChan:
		opts.Logger.Errorw("received error, initiating shutdown", "error", err)
		runErr = fmt.Errorf("service error: %w", err)
	case <-ctx.Done():
		opts.Logger.Infow("context canceled, initiating shutdown")
		runErr = ctx.Err()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		opts.Logger.Warnw("http server shutdown incomplete", "error", err)
	}

	if err := opts.Service.Stop(shutdownCtx); err != nil {
		opts.Logger.Errorw("error during service shutdown", "error", err)

		if runErr == nil {
			runErr = fmt.Errorf("shutdown error: %w", err)
		}
	}

	return runErr
}
