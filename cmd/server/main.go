package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/formatbridge/internal/codec"
	"github.com/JonMunkholm/formatbridge/internal/config"
	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/JonMunkholm/formatbridge/internal/format"
	"github.com/JonMunkholm/formatbridge/internal/history"
	"github.com/JonMunkholm/formatbridge/internal/logging"
	"github.com/JonMunkholm/formatbridge/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"history", historyBackend(cfg),
		"max_concurrent_jobs", cfg.Convert.MaxConcurrentJobs,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"locales", strings.Join(cfg.Locale.Supported, ","),
	)

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open recent-files store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	recent := history.NewRecent(store)

	service := core.NewService(core.ServiceConfig{
		MaxInputBytes:     int(cfg.Convert.MaxInputSize),
		MaxUploadBytes:    int(cfg.Convert.MaxUploadSize),
		MaxConcurrentJobs: cfg.Convert.MaxConcurrentJobs,
		MaxWait:           cfg.Convert.MaxWaitTime,
		JobTimeout:        cfg.Convert.JobTimeout,
		Defaults: codec.Options{
			Indent:    codec.Indent(cfg.Convert.DefaultIndent),
			TableName: cfg.Convert.DefaultTableName,
		},
	}, recent)

	slog.Info("conversions registered",
		"formats", len(format.All()),
		"pairs", len(format.Pairs()),
		"tools", len(core.Tools()),
	)

	server := web.NewServer(service, cfg)

	// Cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	go history.StartPruneScheduler(jobCtx, store, history.PruneConfig{
		Retention:     cfg.History.Retention,
		CheckInterval: cfg.History.PruneInterval,
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Let running tool jobs finish (with timeout)
		if status := service.Jobs(); status.Active > 0 {
			slog.Info("waiting for tool jobs to complete", "active", status.Active)
		}
		if err := service.Shutdown(shutdownCtx); err != nil {
			slog.Warn("tool jobs did not complete in time", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		return
	}
	<-done
	slog.Info("server stopped")
}

// recentStore is what the server needs from a recent-files backend.
type recentStore interface {
	history.Store
	history.Pruner
}

// openStore picks the recent-files backend: PostgreSQL when a database URL
// is configured, a SQLite file when a path is set, memory otherwise.
func openStore(ctx context.Context, cfg *config.Config) (recentStore, func(), error) {
	switch {
	case cfg.Database.Persistent():
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.MigrateOnStart {
			if err := history.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
			slog.Info("database migrations applied")
		}
		return history.NewPostgresStore(pool, cfg.History.Capacity), pool.Close, nil

	case cfg.History.SQLitePath != "":
		s, err := history.OpenSQLite(cfg.History.SQLitePath, cfg.History.Capacity)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil

	default:
		return history.NewMemoryStore(cfg.History.Capacity), func() {}, nil
	}
}

func openPool(ctx context.Context, db config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(db.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(db.MaxConns)
	poolConfig.MinConns = int32(db.MinConns)
	poolConfig.MaxConnLifetime = db.MaxConnLifetime
	poolConfig.MaxConnIdleTime = db.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(db.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

func historyBackend(cfg *config.Config) string {
	switch {
	case cfg.Database.Persistent():
		return "postgres"
	case cfg.History.SQLitePath != "":
		return "sqlite"
	default:
		return "memory"
	}
}
