package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lestrrat-go/backoff/v2"
	_ "github.com/lib/pq"

	"github.com/gogermany/gobot/core/logger"
)

const (
	component      = "db"
	connectTimeout = 5 * time.Second
	readyInterval  = 2 * time.Second
)

// Connect opens the pool, sizes it and verifies connectivity.
func Connect(cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	took := time.Since(start)
	if err != nil {
		logger.Error(ctx, component, "db.connect_failed",
			slog.String("host", cfg.Host),
			slog.String("port", cfg.Port),
			slog.String("db", cfg.Name),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns(cfg.MaxConnections)
	}
	logger.Info(ctx, component, "db.connected",
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return db, nil
}

// WaitReady pings the server every readyInterval until it answers or ctx
// is done.
func WaitReady(ctx context.Context, cfg Config) error {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctrl := backoff.Constant(
		backoff.WithInterval(readyInterval),
		backoff.WithMaxRetries(0),
	).Start(ctx)

	attempt := 0
	for backoff.Continue(ctrl) {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		logger.Debug(ctx, component, "db.not_ready",
			slog.Int("attempt", attempt),
			slog.String("err", err.Error()),
		)
	}
	if err == nil {
		err = ctx.Err()
	}
	return fmt.Errorf("database not ready after %d attempts: %w", attempt, err)
}
