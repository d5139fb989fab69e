package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hostpulse/hostpulse/internal/app/migrate"
	"github.com/hostpulse/hostpulse/internal/config"
	httpx "github.com/hostpulse/hostpulse/internal/http"
	"github.com/hostpulse/hostpulse/internal/logger"
	"github.com/hostpulse/hostpulse/internal/repository/postgres"
	"github.com/hostpulse/hostpulse/internal/service/telemetry"
	"github.com/hostpulse/hostpulse/internal/ws"
)

func main() {
	cfg := config.LoadTelemetryConfig()
	log := logger.New("telemetry", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	hub := ws.NewHub()

	svc := telemetry.New(repo, repo, hub, log, telemetry.Options{
		AnalyticsWindow:  cfg.AnalyticsWindow,
		ComparisonWindow: cfg.ComparisonWindow,
		TopInteractions:  cfg.TopInteractions,
		BucketSpan:       cfg.RollupBucketSpan,
		FlushEvery:       cfg.RollupFlushEvery,
	})
	rollupDone := make(chan struct{})
	go func() {
		defer close(rollupDone)
		svc.Run(ctx)
	}()

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewTelemetryRouter(log, svc, hub, limiter, pool.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("telemetry server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		// Wait for the rollup loop so its final flush lands before exit.
		<-rollupDone
		log.Info("telemetry server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
