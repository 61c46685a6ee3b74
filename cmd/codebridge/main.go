package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/codebridge/codebridge/pkg/api"
	"github.com/codebridge/codebridge/pkg/auth"
	"github.com/codebridge/codebridge/pkg/config"
	"github.com/codebridge/codebridge/pkg/observability"
	"github.com/codebridge/codebridge/pkg/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		observability.DefaultLogger().WithError(err).Error("server exited")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithField("version", cfg.Observability.ServiceVersion).Info("starting codebridge")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		registry *prometheus.Registry
		metrics  *observability.Metrics
	)
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		metrics = observability.NewMetrics(registry)
	}

	pgStore, err := postgres.NewPostgresStore(cfg.Storage)
	if err != nil {
		return err
	}
	if err := pgStore.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("database ready")

	var store api.Store = pgStore
	if metrics != nil {
		store = postgres.NewInstrumentedStore(store, metrics)
	}
	health := observability.NewHealthChecker(pgStore.DB(), nil, cfg.Observability.ServiceVersion)

	if cfg.Storage.CacheEnabled {
		cached, err := postgres.NewCachedStore(store, cfg.Storage, metrics)
		if err != nil {
			return err
		}
		store = cached
		health = observability.NewHealthChecker(pgStore.DB(), cached.Redis(), cfg.Observability.ServiceVersion)
		logger.WithField("redis", cfg.Storage.RedisURL != "").Info("cache enabled")
	}

	// TODO: replace the built-in demo users with a persisted credential store
	credentials := auth.NewDemoCredentialStore()
	logger.Warn("using built-in demo credentials")

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenIssuer, cfg.Auth.TokenDuration)

	server := api.NewServer(api.ServerOptions{
		Store:            store,
		Credentials:      credentials,
		JWTManager:       jwtManager,
		Logger:           logger,
		Metrics:          metrics,
		Health:           health,
		Version:          cfg.Observability.ServiceVersion,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		MaxBodyBytes:     cfg.Server.MaxBodyBytes,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		StandardLimit:    cfg.RateLimit.StandardLimit,
		StrictLimit:      cfg.RateLimit.StrictLimit,
		RateLimitWindow:  cfg.RateLimit.Window,
	})

	for _, limiter := range server.Limiters() {
		limiter.StartCleanup(ctx, cfg.RateLimit.CleanupInterval)
	}

	if metrics != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					metrics.UpdateDBStats(pgStore.DB().Stats())
					if projects, err := store.CountProjects(ctx); err == nil {
						metrics.ProjectsTotal.Set(float64(projects))
					}
					if contentCount, err := store.CountContent(ctx); err == nil {
						metrics.ContentTotal.Set(float64(contentCount))
					}
				}
			}
		}()
	}

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	opsMux := http.NewServeMux()
	observability.RegisterHealthRoutes(opsMux, health)
	if registry != nil {
		observability.RegisterMetricsEndpoint(opsMux, registry)
	}
	opsServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:      opsMux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, apiServer, opsServer)
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		cancel()
		return store.Close()
	})

	var g errgroup.Group
	g.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.WithField("addr", opsServer.Addr).Info("ops server listening")
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(shutdown.WaitForShutdown)

	return g.Wait()
}
