// Package postgres binds the repositories to a Postgres database through
// database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/meetgrid/backend/internal/status"
)

// Options configures the connection pool.
type Options struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	SSLMode        string
	PoolSize       int
	AcquireTimeout time.Duration
}

// DB wraps the sql pool. Every statement runs under AcquireTimeout so a
// saturated pool surfaces as Unavailable instead of blocking the worker.
type DB struct {
	pool           *sql.DB
	acquireTimeout time.Duration
}

// Open dials the database and verifies connectivity with a ping.
func Open(opts Options) (*DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		opts.Host, opts.Port, opts.User, opts.Password, opts.Database, opts.SSLMode)
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, status.Unavailable(err.Error()).Err()
	}
	if opts.PoolSize > 0 {
		pool.SetMaxOpenConns(opts.PoolSize)
		pool.SetMaxIdleConns(opts.PoolSize)
	}
	pool.SetConnMaxIdleTime(5 * time.Minute)

	timeout := opts.AcquireTimeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, status.Newf(status.CodeUnavailable, "postgres ping failed (%s:%d): %v",
			opts.Host, opts.Port, err).Err()
	}

	slog.Info("postgres connected", "host", opts.Host, "port", opts.Port, "database", opts.Database)
	return &DB{pool: pool, acquireTimeout: timeout}, nil
}

func (d *DB) Close() error {
	return d.pool.Close()
}

// lease bounds ctx by the acquire timeout.
func (d *DB) lease(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.acquireTimeout)
}

// WithTx runs fn inside a transaction, committing on nil and rolling back on
// error or panic.
func (d *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := d.pool.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = mapError(cerr)
		}
	}()
	return fn(tx)
}

const uniqueViolation = "23505"

// mapError translates driver errors into domain statuses.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return status.AlreadyExists("Duplicate entry.").Err()
	}
	if errors.Is(err, sql.ErrNoRows) {
		return status.NotFound("not found").Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Unavailable("database timeout").Err()
	}
	return status.Internal(err.Error()).Err()
}
