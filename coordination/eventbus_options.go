package coordination

import (
	"errors"
	"time"
)

// ErrNegativeHandlerTimeout is returned when a negative handler timeout is configured.
var ErrNegativeHandlerTimeout = errors.New("handler timeout must not be negative")

// EventBusOption defines a functional option for configuring an EventBus.
type EventBusOption func(*EventBus) error

// WithLogger sets the logger for the EventBus.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: per-publish dispatch summaries (development use)
// Warn level: non-critical issues like ignored nil handlers
// Error level: isolated handler failures (errors, panics, timeouts).
func WithLogger(logger Logger) EventBusOption {
	return func(b *EventBus) error {
		b.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the EventBus.
// When configured it takes precedence over the plain logger for messages that
// carry a context, enabling automatic trace/span correlation.
func WithContextualLogger(logger ContextualLogger) EventBusOption {
	return func(b *EventBus) error {
		b.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the EventBus.
// The collector will receive publish and per-handler durations, published
// event counts, and handler failure counts.
func WithMetrics(collector MetricsCollector) EventBusOption {
	return func(b *EventBus) error {
		b.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the EventBus.
// The collector will receive one span per Publish call, tagged with the
// event type and the number of failed handlers.
func WithTracing(collector TracingCollector) EventBusOption {
	return func(b *EventBus) error {
		b.tracingCollector = collector
		return nil
	}
}

// WithHandlerTimeout sets an upper bound on each handler invocation.
// A handler that exceeds the timeout counts as failed and is abandoned;
// dispatch continues with the next handler. Zero disables the timeout.
func WithHandlerTimeout(timeout time.Duration) EventBusOption {
	return func(b *EventBus) error {
		if timeout < 0 {
			return ErrNegativeHandlerTimeout
		}

		b.handlerTimeout = timeout

		return nil
	}
}

// WithHandlerErrorHook sets a hook that receives every isolated handler
// failure, in addition to the logging and metrics channels. Useful for tests
// and for custom alerting.
func WithHandlerErrorHook(hook HandlerErrorHook) EventBusOption {
	return func(b *EventBus) error {
		b.errorHook = hook
		return nil
	}
}
