package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/operativa/gestionale/internal"
	"github.com/operativa/gestionale/pkg/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// DB is the pooled connection manager every other component receives as a
// constructed dependency. It does not retry failed statements; retrying is a
// caller concern.
type DB struct {
	pool   *sqlx.DB
	logger *slog.Logger
	env    string
}

// New opens the pool and verifies connectivity once. The server bootstrap
// wraps this in a retry loop; New itself fails fast.
func New(cfg internal.DatabaseConfig, env string) (*DB, error) {
	const driver = "pgx"

	pool, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return &DB{
		pool:   pool,
		logger: logger.LoggerWrapper(),
		env:    env,
	}, nil
}

// NewFromPool wraps an existing pool; tests use this with sqlmock.
func NewFromPool(pool *sqlx.DB, env string) *DB {
	return &DB{
		pool:   pool,
		logger: logger.LoggerWrapper(),
		env:    env,
	}
}

// Pool exposes the underlying sqlx pool for components that build their own
// statements (migrations, gorm session bootstrap).
func (d *DB) Pool() *sqlx.DB {
	return d.pool
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := d.pool.QueryContext(ctx, query, args...)
	d.observe(ctx, query, start, err)
	return rows, err
}

// QueryxContext returns sqlx rows for callers that scan into maps or
// structs dynamically (the tenant facade).
func (d *DB) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	start := time.Now()
	rows, err := d.pool.QueryxContext(ctx, query, args...)
	d.observe(ctx, query, start, err)
	return rows, err
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := d.pool.ExecContext(ctx, query, args...)
	d.observe(ctx, query, start, err)
	return res, err
}

func (d *DB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	start := time.Now()
	err := d.pool.GetContext(ctx, dest, query, args...)
	d.observe(ctx, query, start, err)
	return err
}

func (d *DB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	start := time.Now()
	err := d.pool.SelectContext(ctx, dest, query, args...)
	d.observe(ctx, query, start, err)
	return err
}

// Transaction runs fn inside BEGIN/COMMIT, rolling back on error or panic.
// The connection is released in all cases.
func (d *DB) Transaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := d.pool.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			d.logger.Error("transaction rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type HealthStatus struct {
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"latency"`
	OpenConns int           `json:"open_conns"`
	InUse     int           `json:"in_use"`
	Idle      int           `json:"idle"`
	Err       string        `json:"error,omitempty"`
}

func (d *DB) HealthCheck(ctx context.Context) HealthStatus {
	start := time.Now()
	err := d.pool.PingContext(ctx)
	stats := d.pool.Stats()

	hs := HealthStatus{
		Healthy:   err == nil,
		Latency:   time.Since(start),
		OpenConns: stats.OpenConnections,
		InUse:     stats.InUse,
		Idle:      stats.Idle,
	}
	if err != nil {
		hs.Err = err.Error()
	}
	return hs
}

func (d *DB) Close() error {
	return d.pool.Close()
}

func (d *DB) observe(ctx context.Context, query string, start time.Time, err error) {
	if d.env == "production" {
		return
	}
	elapsed := time.Since(start)
	l := logger.From(ctx)
	switch {
	case err != nil && err != sql.ErrNoRows:
		l.Error("query failed", "query", query, "duration_ms", elapsed.Milliseconds(), "error", err)
	case elapsed > slowQueryThreshold:
		l.Warn("slow query", "query", query, "duration_ms", elapsed.Milliseconds())
	}
}
