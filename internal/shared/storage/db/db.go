// Package db opens the shared Postgres pool and applies schema migrations.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/sethvargo/go-retry"
	"github.com/spf13/viper"

	"cv-builder/internal/shared/telemetry"
)

// Options tunes the connection pool and the startup connect loop.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	// ConnectAttempts bounds how many pings Connect tries before giving up.
	ConnectAttempts int
	RetryBase       time.Duration
}

var openDB = sql.Open

// DefaultServerOptions suits the API process: a modest pool and a few
// connect attempts so the API can start alongside its database.
func DefaultServerOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 2 * time.Minute,
		PingTimeout:     5 * time.Second,
		ConnectAttempts: 3,
		RetryBase:       500 * time.Millisecond,
	}
}

// DefaultMigrateOptions suits one-shot CLI runs.
func DefaultMigrateOptions() Options {
	opts := DefaultServerOptions()
	opts.MaxOpenConns, opts.MaxIdleConns = 1, 1
	opts.ConnectAttempts = 1
	return opts
}

// OptionsFromEnv applies DB_* overrides. Unparseable or non-positive values
// are ignored with a warning.
func OptionsFromEnv(defaults Options) Options {
	v := viper.New()
	v.AutomaticEnv()

	opts := defaults
	ints := map[string]*int{
		"DB_MAX_OPEN_CONNS":   &opts.MaxOpenConns,
		"DB_MAX_IDLE_CONNS":   &opts.MaxIdleConns,
		"DB_CONNECT_ATTEMPTS": &opts.ConnectAttempts,
	}
	for key, dst := range ints {
		if !v.IsSet(key) {
			continue
		}
		if n := v.GetInt(key); n > 0 {
			*dst = n
		} else {
			telemetry.Warn("db.env_invalid", map[string]any{"key": key, "value": v.GetString(key)})
		}
	}
	durations := map[string]*time.Duration{
		"DB_CONN_MAX_LIFETIME":  &opts.ConnMaxLifetime,
		"DB_CONN_MAX_IDLE_TIME": &opts.ConnMaxIdleTime,
		"DB_PING_TIMEOUT":       &opts.PingTimeout,
	}
	for key, dst := range durations {
		if !v.IsSet(key) {
			continue
		}
		if d := v.GetDuration(key); d > 0 {
			*dst = d
		} else {
			telemetry.Warn("db.env_invalid", map[string]any{"key": key, "value": v.GetString(key)})
		}
	}
	return opts
}

// Connect opens the pool for databaseURL and pings it, retrying with
// exponential backoff up to opts.ConnectAttempts times.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}
	pool, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	configurePool(pool, opts)

	attempts := opts.ConnectAttempts
	if attempts <= 0 {
		attempts = 1
	}
	base := opts.RetryBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(base))

	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := ping(ctx, pool, opts.PingTimeout); err != nil {
			telemetry.Warn("db.ping_failed", map[string]any{"attempt": attempt, "error": err.Error()})
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	stats := pool.Stats()
	telemetry.Info("db.connected", map[string]any{
		"attempts": attempt,
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
	})
	return pool, nil
}

func ping(ctx context.Context, pool *sql.DB, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return pool.PingContext(ctx)
}

func configurePool(pool *sql.DB, opts Options) {
	def := DefaultServerOptions()
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = def.MaxOpenConns
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = def.MaxIdleConns
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = def.ConnMaxLifetime
	}
	pool.SetMaxOpenConns(opts.MaxOpenConns)
	pool.SetMaxIdleConns(opts.MaxIdleConns)
	pool.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		pool.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}
