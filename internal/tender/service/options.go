package service

import (
	"log/slog"

	"gare/internal/notify"
	tendermetrics "gare/internal/tender/metrics"
)

type serviceConfig struct {
	logger     *slog.Logger
	metrics    *tendermetrics.Metrics
	dispatcher notify.Dispatcher
}

// Option configures the workflow service.
type Option func(*serviceConfig)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *tendermetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

// WithDispatcher sets the notification dispatcher that receives state-change
// records. Dispatch failures are logged, never surfaced to callers.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(c *serviceConfig) { c.dispatcher = d }
}
