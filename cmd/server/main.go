package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/payrecon/internal/config"
	"github.com/JonMunkholm/payrecon/internal/core"
	"github.com/JonMunkholm/payrecon/internal/core/profiles" // Register built-in profiles
	"github.com/JonMunkholm/payrecon/internal/loader"
	"github.com/JonMunkholm/payrecon/internal/logging"
	"github.com/JonMunkholm/payrecon/internal/web"
)

func main() {
	// Load .env file if it exists; the process environment wins.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	if dir := cfg.Reconcile.ProfilesDir; dir != "" {
		n, err := profiles.LoadDir(os.DirFS(dir), ".")
		if err != nil {
			slog.Error("failed to load profiles", "dir", dir, "error", err)
			os.Exit(1)
		}
		slog.Info("custom profiles loaded", "dir", dir, "count", n)
	}
	if _, ok := core.Get(cfg.Reconcile.DefaultProfile); !ok {
		slog.Error("default profile is not registered", "profile", cfg.Reconcile.DefaultProfile)
		os.Exit(1)
	}
	slog.Info("profiles registered", "count", core.ProfileCount(), "groups", len(core.Groups()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, pool, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open run history", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	service := core.NewService(
		loader.New(cfg.Upload.MaxFileSize),
		store,
		core.WithRunLimiter(core.NewRunLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)),
		core.WithTimeout(cfg.Upload.Timeout),
		core.WithScanRows(cfg.Reconcile.HeaderScanRows),
		core.WithEngine(&core.Engine{Now: time.Now, HintDistance: cfg.Reconcile.HintDistance}),
	)

	if _, err := core.StartRetentionScheduler(ctx, store, core.RetentionConfig{
		RetentionDays: cfg.History.RetentionDays,
		Schedule:      cfg.History.PurgeSchedule,
	}); err != nil {
		slog.Error("failed to start retention scheduler", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Let running reconciliations finish before the listener closes.
	if status := service.Limiter().Status(); status.Active > 0 {
		slog.Info("waiting for reconciliations to complete", "active", status.Active)
		if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
			slog.Warn("reconciliations did not complete in time", "error", err)
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// openStore connects to PostgreSQL when a database URL is configured and
// falls back to an in-memory history otherwise.
func openStore(ctx context.Context, cfg *config.Config) (core.RunStore, *pgxpool.Pool, error) {
	if !cfg.Database.Enabled() {
		slog.Info("no database configured, keeping run history in memory", "limit", cfg.History.MemoryLimit)
		return core.NewMemoryStore(cfg.History.MemoryLimit), nil, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	store := core.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool, nil
}
