package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const driverName = "pgx"

type options struct {
	connMaxIdleTime  time.Duration
	connMaxLifetime  time.Duration
	maxIdleConns     int
	maxOpenConns     int
	applicationName  string
	statementTimeout time.Duration
}

func defaultOptions() options {
	return options{
		connMaxIdleTime: 5 * time.Minute,
		connMaxLifetime: 30 * time.Minute,
		maxIdleConns:    5,
		maxOpenConns:    25,
	}
}

type Option func(*options)

func WithConnMaxIdleTime(d time.Duration) Option {
	return func(o *options) {
		o.connMaxIdleTime = d
	}
}

func WithConnMaxLifetime(d time.Duration) Option {
	return func(o *options) {
		o.connMaxLifetime = d
	}
}

func WithMaxIdleConns(n int) Option {
	return func(o *options) {
		o.maxIdleConns = n
	}
}

func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		o.maxOpenConns = n
	}
}

// WithApplicationName tags server-side sessions, visible in pg_stat_activity.
func WithApplicationName(name string) Option {
	return func(o *options) {
		o.applicationName = name
	}
}

// WithStatementTimeout makes the server cancel statements running longer than d.
func WithStatementTimeout(d time.Duration) Option {
	return func(o *options) {
		o.statementTimeout = d
	}
}

// runtimeParams returns the session parameters sent on connect.
func (o options) runtimeParams() map[string]string {
	params := make(map[string]string)

	if o.applicationName != "" {
		params["application_name"] = o.applicationName
	}

	if o.statementTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(o.statementTimeout.Milliseconds(), 10)
	}

	return params
}

// New opens a pool over the pgx stdlib driver and verifies connectivity.
func New(ctx context.Context, dsn string, opts ...Option) (*sqlx.DB, error) {
	const op = "postgres.New"

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse dsn: %w", op, err)
	}

	for k, v := range o.runtimeParams() {
		connCfg.RuntimeParams[k] = v
	}

	db := sqlx.NewDb(stdlib.OpenDB(*connCfg), driverName)

	db.SetConnMaxIdleTime(o.connMaxIdleTime)
	db.SetConnMaxLifetime(o.connMaxLifetime)
	db.SetMaxIdleConns(o.maxIdleConns)
	db.SetMaxOpenConns(o.maxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	return db, nil
}
