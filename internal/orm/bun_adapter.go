// Package orm wires bun onto the pure-Go sqlite driver and logs queries
// through zerolog.
package orm

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
)

// BunAdapter is a thin wrapper around bun.DB exposing the DB instance and
// the underlying *sql.DB for lifecycle management.
type BunAdapter struct {
	DB    *bun.DB
	SQLDB *sql.DB
}

type options struct {
	logger       *zerolog.Logger
	slow         time.Duration
	maxOpenConns int
}

// Option configures Connect.
type Option func(*options)

// WithQueryLogger logs every query at debug level, and queries slower than
// slow (when positive) or failing ones at warn level.
func WithQueryLogger(l zerolog.Logger, slow time.Duration) Option {
	return func(o *options) {
		o.logger = &l
		o.slow = slow
	}
}

// WithMaxOpenConns caps the pool size. sqlite files are usually served best
// by a single writer connection.
func WithMaxOpenConns(n int) Option {
	return func(o *options) { o.maxOpenConns = n }
}

// Connect opens a sqlite database at dsn and returns a BunAdapter.
// The caller is responsible for closing the returned adapter (adapter.Close()).
func Connect(dsn string, opts ...Option) (*BunAdapter, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	sqdb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sql: %w", err)
	}
	if o.maxOpenConns > 0 {
		sqdb.SetMaxOpenConns(o.maxOpenConns)
	}

	db := bun.NewDB(sqdb, sqlitedialect.New())
	if o.logger != nil {
		db.AddQueryHook(&QueryLogger{Logger: *o.logger, Slow: o.slow})
	}
	return &BunAdapter{DB: db, SQLDB: sqdb}, nil
}

// Close closes the underlying *sql.DB connection.
func (b *BunAdapter) Close() error {
	if b == nil || b.SQLDB == nil {
		return nil
	}
	return b.SQLDB.Close()
}

// Ping checks connectivity.
func (b *BunAdapter) Ping(ctx context.Context) error {
	if b == nil || b.SQLDB == nil {
		return fmt.Errorf("bun adapter: nil")
	}
	return b.SQLDB.PingContext(ctx)
}

// QueryLogger is a bun.QueryHook writing one zerolog event per query.
type QueryLogger struct {
	Logger zerolog.Logger
	Slow   time.Duration
}

var _ bun.QueryHook = (*QueryLogger)(nil)

func (h *QueryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	dur := time.Since(event.StartTime)

	var ev *zerolog.Event
	switch {
	case event.Err != nil && event.Err != sql.ErrNoRows:
		ev = h.Logger.Warn().Err(event.Err)
	case h.Slow > 0 && dur >= h.Slow:
		ev = h.Logger.Warn().Bool("slow", true)
	default:
		ev = h.Logger.Debug()
	}
	ev.Str("operation", event.Operation()).
		Dur("duration", dur).
		Str("query", event.Query).
		Msg("sql")
}
