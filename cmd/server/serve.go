package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"worship-presenter/internal/channel"
	"worship-presenter/internal/config"
	"worship-presenter/internal/db"
	"worship-presenter/internal/drag"
	"worship-presenter/internal/handlers"
	"worship-presenter/internal/logging"
	"worship-presenter/internal/scene"
	"worship-presenter/internal/services"
	"worship-presenter/internal/style"
	"worship-presenter/internal/syncproto"
)

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, logCloser := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer logCloser.Close()

	// Initialize database
	if err := db.InitDatabase(cfg.Database.Path); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize services
	sceneStore := services.NewSceneStore(db.DB, logging.WithComponent(logger, "scenes"))
	seeded, err := sceneStore.SeedDefaults(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed scene templates: %w", err)
	}
	if seeded > 0 {
		logger.Info("seeded default scene templates", "count", seeded)
	}
	catalog, err := scene.DefaultCatalog()
	if err != nil {
		return err
	}

	sessionStore, err := services.NewSessionStore(cfg.Data.Dir, logging.WithComponent(logger, "sessions"))
	if err != nil {
		return err
	}

	bus := channel.NewBus()
	defer bus.Close()

	wsService := services.NewWebSocketService(bus, services.SocketOptions{
		WriteWait:       cfg.Sync.WriteWaitDuration(),
		PongWait:        cfg.Sync.PongWaitDuration(),
		MaxMessageBytes: cfg.Sync.MaxMessageBytes,
		SendBuffer:      cfg.Sync.SendBuffer,
	}, logging.WithComponent(logger, "relay"))
	go wsService.Run(ctx)

	presenters := services.NewPresenterService(bus, syncproto.PresenterOptions{
		Registry: scene.NewRegistry(sceneStore, catalog),
		Policy:   style.DistinctColorPolicy{MinDistinct: cfg.Styles.MultiColorMinDistinct},
		Debounce: cfg.Styles.Debounce(),
		Canvas:   drag.Canvas{Width: cfg.Canvas.BaseWidth, Height: cfg.Canvas.BaseHeight},
		Drag: syncproto.DragOptions{
			Disabled:    cfg.Drag.Disabled,
			ThresholdPx: cfg.Drag.ThresholdPx,
			SnapToGrid:  cfg.Drag.Snap,
			GridSize:    cfg.Drag.GridSize,
		},
	}, logger)
	defer presenters.Close()

	// Initialize handlers
	httpLogger := logging.WithComponent(logger, "http")
	router := handlers.SetupRoutes(
		handlers.NewWebSocketHandler(wsService, httpLogger),
		handlers.NewControlHandler(presenters, wsService, httpLogger),
		handlers.NewSceneHandler(sceneStore, httpLogger),
		handlers.NewSessionHandler(sessionStore, httpLogger),
		httpLogger,
	)

	// Configure server
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		// Configure TLS if enabled
		if cfg.TLS.Enabled {
			server.TLSConfig = &tls.Config{
				MinVersion: getTLSVersion(cfg.TLS.MinVersion),
			}
			logger.Info("starting HTTPS server",
				"addr", server.Addr,
				"cert_file", cfg.TLS.CertFile,
				"key_file", cfg.TLS.KeyFile,
				"min_version", cfg.TLS.MinVersion)
			errCh <- server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
			return
		}
		logger.Info("starting HTTP server", "addr", server.Addr)
		logger.Warn("HTTP mode is not recommended for production")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// getTLSVersion converts string version to tls.Version constant
func getTLSVersion(version string) uint16 {
	switch version {
	case "1.0":
		return tls.VersionTLS10
	case "1.1":
		return tls.VersionTLS11
	case "1.2":
		return tls.VersionTLS12
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}
