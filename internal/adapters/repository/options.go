package repository

import "time"

// Option applies a configuration option to the PostgresStore pool.
type Option func(*postgresOptions)

type postgresOptions struct {
	maxConns        int32
	minConns        int32
	maxConnLifetime time.Duration
	migrate         bool
}

// WithMaxConns caps the pool size.
func WithMaxConns(n int) Option {
	return func(o *postgresOptions) {
		if n > 0 {
			o.maxConns = int32(n) //nolint:gosec // bounded by config validation
		}
	}
}

// WithMinConns keeps n idle connections open.
func WithMinConns(n int) Option {
	return func(o *postgresOptions) {
		if n >= 0 {
			o.minConns = int32(n) //nolint:gosec // bounded by config validation
		}
	}
}

// WithMaxConnLifetime recycles connections older than d.
func WithMaxConnLifetime(d time.Duration) Option {
	return func(o *postgresOptions) {
		if d > 0 {
			o.maxConnLifetime = d
		}
	}
}

// WithMigrate applies the schema when the store opens.
func WithMigrate(enabled bool) Option {
	return func(o *postgresOptions) {
		o.migrate = enabled
	}
}
