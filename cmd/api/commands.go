// cmd/api/commands.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"field-service-api/config"
	"field-service-api/internal/api/routes"
	"field-service-api/internal/auth"
	"field-service-api/internal/database"
	"field-service-api/internal/logger"
	"field-service-api/internal/s3"
	"field-service-api/internal/socket"
	"field-service-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	connectTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

// app holds what both commands need.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	backend *store.Backend
	stores  *store.Stores
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	backend, err := store.Open(connectCtx, cfg)
	if err != nil {
		return nil, err
	}
	// Collections register their unique fields, so they come before Migrate.
	stores := store.NewStores(backend)
	if err := backend.Migrate(connectCtx); err != nil {
		_ = backend.Close(ctx)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("storage ready", zap.String("driver", backend.Driver()))

	return &app{cfg: cfg, log: log, backend: backend, stores: stores}, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.backend.Close(ctx); err != nil {
		a.log.Warn("close storage", zap.Error(err))
	}
	_ = a.log.Sync()
}

func (a *app) seeder() *database.Seeder {
	return &database.Seeder{Stores: a.stores, Config: a.cfg, Log: a.log}
}

func runSeed(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()
	return a.seeder().Seed(cmd.Context())
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	// The memory backend starts empty on every run.
	if a.backend.Driver() == store.DriverMemory || a.cfg.Auth.Enabled {
		if err := a.seeder().Seed(ctx); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	hub := socket.NewHub(a.log)
	defer hub.Close()

	deps := routes.Dependencies{
		Config: a.cfg,
		Stores: a.stores,
		Hub:    hub,
		Log:    a.log,
	}

	if a.cfg.Auth.Enabled {
		ttl, _ := a.cfg.JWT.TTL() // validated by LoadConfig
		deps.Tokens = auth.NewTokenManager(a.cfg.JWT.Secret, ttl)
	}

	if a.cfg.S3Enabled() {
		uploader, err := s3.NewUploader(ctx, a.cfg.S3)
		if err != nil {
			return fmt.Errorf("init s3: %w", err)
		}
		deps.Exporter = uploader
	} else {
		a.log.Info("s3 not configured, report export disabled")
	}

	gin.SetMode(a.cfg.Server.Mode)
	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           routes.SetupRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting API server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("run server: %w", err)
		}
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
