// Copyright 2026 The SurgePlane Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/swasthyasetu/surgeplane/internal/audit"
	"github.com/swasthyasetu/surgeplane/internal/authz"
	"github.com/swasthyasetu/surgeplane/internal/cache"
	"github.com/swasthyasetu/surgeplane/internal/config"
	"github.com/swasthyasetu/surgeplane/internal/forecast"
	"github.com/swasthyasetu/surgeplane/internal/hospital"
	"github.com/swasthyasetu/surgeplane/internal/identity"
	"github.com/swasthyasetu/surgeplane/internal/observability/logger"
	"github.com/swasthyasetu/surgeplane/internal/observability/metrics"
	"github.com/swasthyasetu/surgeplane/internal/observability/tracing"
	"github.com/swasthyasetu/surgeplane/internal/session"
	"github.com/swasthyasetu/surgeplane/internal/store/postgres"
	"github.com/swasthyasetu/surgeplane/internal/tenant"
	transportHTTP "github.com/swasthyasetu/surgeplane/internal/transport/http"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}
}

func databaseConfig(cfg *config.Config) postgres.Config {
	return postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	log := logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		OTel:        cfg.Observability.OTELEnabled,
	})
	log.Info("starting surgeplane", logger.String("version", version), logger.String("env", cfg.Env))

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   cfg.Observability.SamplingRate,
		Endpoint:       cfg.Observability.OTELEndpoint,
		Insecure:       cfg.Observability.OTELInsecure,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error("tracer shutdown failed", logger.Error(err))
		}
	}()

	meter, err := metrics.New(ctx, metrics.Config{Enabled: cfg.Observability.OTELEnabled}, cfg.Observability.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize meter: %w", err)
	}
	counters, err := metrics.NewAuthCounters(meter)
	if err != nil {
		return err
	}
	var httpMetrics *metrics.HTTPMetrics
	if cfg.Metrics.Enabled {
		httpMetrics = metrics.NewHTTPMetrics(cfg.Metrics.Namespace)
	}

	dbCfg := databaseConfig(cfg)
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(dbCfg.URL(), "up"); err != nil {
			return fmt.Errorf("auto-migrate failed: %w", err)
		}
		log.Info("database schema up to date")
	}

	db, err := postgres.New(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("connected to database", logger.Component("store"))

	tenantRepo := postgres.NewTenantRepository(db)
	userRepo := postgres.NewUserRepository(db)
	metricsRepo := postgres.NewMetricsRepository(db)
	eventsRepo := postgres.NewEventsRepository(db)

	auditLogger := audit.NewSlogLogger(log)
	hasher := identity.NewPasswordHasher(cfg.Security.BcryptCost)

	policy, err := authz.NewPolicy(ctx)
	if err != nil {
		return fmt.Errorf("failed to compile authorization policy: %w", err)
	}

	forecastCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer forecastCache.Close()

	generator, err := newGenerator(ctx, cfg, eventsRepo, metricsRepo, log)
	if err != nil {
		return err
	}
	forecasts := forecast.NewCachingGenerator(generator, forecastCache, cfg.Cache.TTL, log)

	secret := []byte(cfg.Session.SecretKey)
	handler := transportHTTP.NewHandler(transportHTTP.Deps{
		Registrar: tenant.NewRegistrar(tenantRepo, hasher, auditLogger),
		Issuer: session.NewIssuer(tenantRepo, userRepo, hasher, auditLogger, session.IssuerConfig{
			Secret: secret,
			TTL:    cfg.Session.TokenTTL,
		}),
		Verifier:    session.NewVerifier(secret),
		Provisioner: identity.NewProvisioner(userRepo, hasher, policy, auditLogger),
		Hospitals:   hospital.NewService(metricsRepo, eventsRepo, policy, forecasts, auditLogger),
		Forecasts:   forecasts,
		Authorizer:  policy,
		AuditLogger: auditLogger,
		Counters:    counters,
		HTTPMetrics: httpMetrics,
	})

	var limiter *transportHTTP.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		defer limiter.Stop()
	}

	server := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: transportHTTP.NewRouter(handler, transportHTTP.RouterConfig{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
			RateLimiter:    limiter,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.Component("server"), logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.Cache.Type == "redis" {
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return cache.NewMemoryCache(), nil
}

// newGenerator picks the forecast strategy once at startup.
func newGenerator(ctx context.Context, cfg *config.Config, events hospital.EventsRepository, metricsRepo hospital.MetricsRepository, log *slog.Logger) (forecast.Generator, error) {
	mock := forecast.NewMockGenerator()
	if cfg.Forecast.GeminiAPIKey == "" {
		log.Info("forecast strategy selected", logger.Component("forecast"), logger.String("strategy", "mock"))
		return mock, nil
	}

	gemini, err := forecast.NewGeminiGenerator(ctx, forecast.GeminiConfig{
		APIKey:      cfg.Forecast.GeminiAPIKey,
		Model:       cfg.Forecast.Model,
		Temperature: float32(cfg.Forecast.Temperature),
	}, events, metricsRepo)
	if err != nil {
		return nil, err
	}
	log.Info("forecast strategy selected", logger.Component("forecast"), logger.String("strategy", "gemini"))
	return forecast.NewFallbackGenerator(gemini, mock, log), nil
}
