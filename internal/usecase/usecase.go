// Package usecase implements the link lifecycle, redirect resolution, click
// recording and analytics on top of storage-agnostic repository interfaces.
package usecase

import (
	"io"
	"log/slog"
	"time"

	"github.com/vadimbarashkov/vortex/internal/metrics"
)

type options struct {
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option customizes a use case.
type Option func(*options)

// WithClock overrides the time source used for policy checks and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func newOptions(opts []Option) options {
	o := options{
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.metrics == nil {
		o.metrics = metrics.New()
	}

	return o
}
