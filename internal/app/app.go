package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"humandetector/internal/config"
	"humandetector/internal/detection"
	"humandetector/internal/handler"
	"humandetector/internal/logger"
	"humandetector/internal/route"
	"humandetector/internal/service/ai"
	"humandetector/internal/service/inference"
	"humandetector/internal/service/websocket"
	"humandetector/internal/viewer"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	pipeline   *detection.Pipeline
	hubService *websocket.HubService
	manager    *viewer.Manager
	server     *http.Server
}

// NewLoader picks the detector backend named in the configuration.
func NewLoader(cfg *config.Config, logger *logger.Logger) (detection.Loader, error) {
	switch cfg.DetectorBackend {
	case config.BackendGoCV:
		return ai.NewLoader(cfg, logger), nil
	case config.BackendRemote:
		return inference.NewLoader(cfg, logger), nil
	}
	return nil, fmt.Errorf("unknown detector backend %q", cfg.DetectorBackend)
}

func NewApp(cfg *config.Config, logger *logger.Logger) (*App, error) {
	loader, err := NewLoader(cfg, logger)
	if err != nil {
		return nil, err
	}

	pipeline := detection.NewPipeline(loader, cfg.MaxDetections, logger)
	hub := websocket.NewHubService(logger)
	manager := viewer.NewManager(pipeline, handler.StatePublisher(hub, logger),
		time.Duration(cfg.SessionTTL)*time.Minute, logger)

	router := route.SetupRoutes(route.Services{Pipeline: pipeline, Manager: manager, Hub: hub}, cfg, logger)

	return &App{
		config:     cfg,
		logger:     logger,
		pipeline:   pipeline,
		hubService: hub,
		manager:    manager,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves HTTP and the background services until ctx is cancelled or
// one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	// Start background services
	g.Go(func() error {
		a.hubService.Run(ctx)
		return nil
	})
	g.Go(func() error {
		a.manager.Run(ctx, sweepInterval)
		return nil
	})
	g.Go(func() error {
		// A failed warm-up is not fatal; the next selection loads again.
		if err := a.pipeline.Warm(ctx); err != nil {
			a.logger.Warning("Could not initialize detection model: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		a.logger.Info("🚀 Human Detector listening on http://localhost:%d", a.config.Port)
		a.logger.Info("🤖 Detector backend: %s, max %d detections", a.config.DetectorBackend, a.config.MaxDetections)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("Shutting down")
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close releases the detection model and flushes the log files.
func (a *App) Close() error {
	return multierr.Combine(a.pipeline.Close(), a.logger.Close())
}
