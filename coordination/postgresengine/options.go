package postgresengine

import (
	"github.com/pericialabs/coordination-go/coordination"
)

// Logger is the logging contract shared with the coordination core.
type Logger = coordination.Logger

// ContextualLogger is the context-aware logging contract shared with the coordination core.
type ContextualLogger = coordination.ContextualLogger

// MetricsCollector is the metrics contract shared with the coordination core.
type MetricsCollector = coordination.MetricsCollector

// TracingCollector is the tracing contract shared with the coordination core.
type TracingCollector = coordination.TracingCollector

// Option defines a functional option for configuring a TxStore.
type Option func(*TxStore) error

// WithLogger sets the logger for the TxStore.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing, transaction lifecycle (development use)
// Error level: failed statements and failed transaction begins.
func WithLogger(logger Logger) Option {
	return func(s *TxStore) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the TxStore.
// When configured it takes precedence over the plain logger, enabling
// automatic trace/span correlation for SQL and transaction logging.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(s *TxStore) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the TxStore.
// The collector will receive transaction durations and counts, labeled with
// the terminal status (committed or rolled back).
func WithMetrics(collector MetricsCollector) Option {
	return func(s *TxStore) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the TxStore.
// Every transaction handed out by Begin becomes one span, finished with the
// transaction's terminal status (committed, rolled back, or error).
func WithTracing(collector TracingCollector) Option {
	return func(s *TxStore) error {
		s.tracingCollector = collector
		return nil
	}
}
