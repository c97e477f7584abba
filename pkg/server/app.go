package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	"StockDash/internal/usecase"
	"StockDash/pkg/config"
	xhttp "StockDash/pkg/http"
	applogger "StockDash/pkg/logger"
)

// App encapsulates the HTTP server and background jobs.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	handler    xhttp.Handler
	renderer   echo.Renderer
	prefetcher *usecase.Prefetcher
	httpServer *xhttp.Server
}

// New creates a new App. prefetcher may be nil.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	renderer echo.Renderer,
	prefetcher *usecase.Prefetcher,
) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{
		cfg:        cfg,
		l:          l,
		handler:    handler,
		renderer:   renderer,
		prefetcher: prefetcher,
	}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done or the
// listener fails.
func (a *App) RunContext(ctx context.Context) error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(a.cfg.Server.CORSOrigins...),
		xhttp.WithMetrics(a.cfg.Metrics.Enabled, a.cfg.Metrics.Path, a.cfg.Server.SlowThreshold),
		xhttp.WithRenderer(a.renderer),
		xhttp.WithLogger(a.l),
	)

	if a.prefetcher != nil {
		if err := a.prefetcher.Start(); err != nil {
			return fmt.Errorf("start prefetcher: %w", err)
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case err := <-a.httpServer.Errors():
		a.l.Error("http server failed", applogger.Error(err))
		runErr = err
	}

	a.shutdown()
	return runErr
}

// shutdown stops the HTTP server first so no request is cut off by a
// closed dependency, then the scheduler.
func (a *App) shutdown() {
	a.l.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.prefetcher != nil {
		a.prefetcher.Stop()
	}

	a.l.Info("shutdown complete")
}
