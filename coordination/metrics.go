package coordination

import (
	"context"
	"time"
)

// The helpers below prefer the context-aware collector methods when the
// configured collector supports them, falling back to the base interface.

func recordDurationContext(
	ctx context.Context,
	collector MetricsCollector,
	metric string,
	duration time.Duration,
	labels map[string]string,
) {

	if contextual, ok := collector.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	collector.RecordDuration(metric, duration, labels)
}

func incrementCounterContext(
	ctx context.Context,
	collector MetricsCollector,
	metric string,
	labels map[string]string,
) {

	if contextual, ok := collector.(ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}

func recordValueContext(
	ctx context.Context,
	collector MetricsCollector,
	metric string,
	value float64,
	labels map[string]string,
) {

	if contextual, ok := collector.(ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ctx, metric, value, labels)
		return
	}

	collector.RecordValue(metric, value, labels)
}
