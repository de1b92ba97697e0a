package coordination

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

const (
	logMsgHandlerFailed     = "event handler failed"
	logMsgHandlerPanicked   = "event handler panicked"
	logMsgHandlerTimedOut   = "event handler timed out, abandoning invocation"
	logMsgNilHandlerIgnored = "ignoring nil handler subscription"
	logMsgEventPublished    = "event published"
	logAttrError            = "error"
	logAttrEventID          = "event_id"
	logAttrEventType        = "event_type"
	logAttrHandlerPosition  = "handler_position"
	logAttrHandlerCount     = "handler_count"
	logAttrFailedHandlers   = "failed_handlers"
	logAttrDurationMS       = "duration_ms"
	metricPublishDuration   = "eventbus_publish_duration_seconds"
	metricEventsPublished   = "eventbus_events_published_total"
	metricHandlerDuration   = "eventbus_handler_duration_seconds"
	metricHandlerFailures   = "eventbus_handler_failures_total"
	labelEventType          = "event_type"
	labelStatus             = "status"
	labelFailureKind        = "failure_kind"
	statusSuccess           = "success"
	statusError             = "error"
	failureKindError        = "error"
	failureKindPanic        = "panic"
	failureKindTimeout      = "timeout"
	spanNamePublish         = "eventbus.publish"
	spanStatusOK            = "ok"
)

// HandlerFunc is the uniform contract for event subscribers. A handler that
// needs to suspend (I/O, downstream calls) does so through the context; a
// purely synchronous handler simply returns. A non-nil error marks the
// invocation as failed, which is isolated per handler and never escalated to
// the publisher.
type HandlerFunc func(ctx context.Context, event Event) error

// HandlerErrorHook receives every isolated handler failure during dispatch.
// position is the zero-based subscription position for the event's type.
type HandlerErrorHook func(event Event, position int, err error)

// EventBus is the in-process registry mapping event types to ordered handler
// lists. Producers of domain facts and their consumers only share the bus,
// never each other.
//
// Subscribe is expected to happen during process initialization, but the
// registry is guarded so that late subscriptions are safe against concurrent
// dispatch lookups. For a single Publish call, handlers for the event's type
// run sequentially in subscription order; no ordering is guaranteed across
// event types or across concurrent Publish calls.
type EventBus struct {
	mu               sync.RWMutex
	handlers         map[EventTypeString][]HandlerFunc
	handlerTimeout   time.Duration
	errorHook        HandlerErrorHook
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewEventBus creates a new EventBus with optional configuration.
func NewEventBus(options ...EventBusOption) (*EventBus, error) {
	bus := &EventBus{
		handlers: make(map[EventTypeString][]HandlerFunc),
	}

	for _, option := range options {
		if err := option(bus); err != nil {
			return nil, err
		}
	}

	return bus, nil
}

// Subscribe registers a handler for the given event type.
//
// It never fails: duplicate registrations are kept and all of them are
// invoked (fan-out, not dedup), and a nil handler is ignored with a warning.
// Registration order determines dispatch order for the type.
func (b *EventBus) Subscribe(eventType EventTypeString, handler HandlerFunc) {
	if handler == nil {
		b.logWarn(logMsgNilHandlerIgnored, logAttrEventType, eventType)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscriberCount returns the number of handlers registered for the event type.
func (b *EventBus) SubscriberCount(eventType EventTypeString) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.handlers[eventType])
}

// Publish dispatches the event to all handlers registered for its type, in
// subscription order, synchronously from the caller's perspective: the call
// returns only after every handler has completed or failed.
//
// Handler failures (errors, panics, timeouts) are isolated: they are logged,
// counted, and handed to the configured error hook, but they never prevent
// subsequent handlers from running and never propagate as a failure of
// Publish itself. With no handler registered for the type, Publish succeeds
// as a no-op. The only error Publish returns is for a nil event.
func (b *EventBus) Publish(ctx context.Context, event Event) error {
	if event == nil {
		return ErrNilEvent
	}

	handlers := b.snapshotHandlers(event.EventType())
	if len(handlers) == 0 {
		return nil
	}

	ctx, span := b.startSpan(ctx, spanNamePublish, map[string]string{
		labelEventType: event.EventType(),
	})

	start := time.Now()
	failed := 0

	for position, handler := range handlers {
		if invokeErr := b.invokeHandler(ctx, event, handler); invokeErr != nil {
			failed++
			b.reportHandlerFailure(ctx, event, position, invokeErr)
		}
	}

	duration := time.Since(start)
	b.recordPublishMetrics(ctx, event, duration)
	b.finishSpan(span, spanStatusOK, map[string]string{
		logAttrFailedHandlers: fmt.Sprintf("%d", failed),
	})

	b.logDebugContext(ctx, logMsgEventPublished,
		logAttrEventID, event.EventID(),
		logAttrEventType, event.EventType(),
		logAttrHandlerCount, len(handlers),
		logAttrFailedHandlers, failed,
		logAttrDurationMS, durationToMilliseconds(duration))

	return nil
}

// snapshotHandlers copies the handler list under the read lock, so dispatch
// never holds the lock while handlers run.
func (b *EventBus) snapshotHandlers(eventType EventTypeString) []HandlerFunc {
	b.mu.RLock()
	defer b.mu.RUnlock()

	registered := b.handlers[eventType]
	if len(registered) == 0 {
		return nil
	}

	snapshot := make([]HandlerFunc, len(registered))
	copy(snapshot, registered)

	return snapshot
}

// invokeHandler runs a single handler with panic recovery and the optional
// per-handler timeout. A timed-out handler is abandoned: its goroutine may
// finish later, but its result is discarded so the dispatch loop can move on
// to the next handler in order.
func (b *EventBus) invokeHandler(ctx context.Context, event Event, handler HandlerFunc) error {
	start := time.Now()
	var invokeErr error

	if b.handlerTimeout > 0 {
		invokeErr = b.invokeWithTimeout(ctx, event, handler)
	} else {
		invokeErr = callGuarded(ctx, event, handler)
	}

	b.recordHandlerMetrics(ctx, event, time.Since(start), invokeErr)

	return invokeErr
}

func (b *EventBus) invokeWithTimeout(ctx context.Context, event Event, handler HandlerFunc) error {
	handlerCtx, cancel := context.WithTimeout(ctx, b.handlerTimeout)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- callGuarded(handlerCtx, event, handler)
	}()

	select {
	case err := <-done:
		return err
	case <-handlerCtx.Done():
		// The caller's context going away is cancellation, not a slow handler.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		return ErrHandlerTimedOut
	}
}

// callGuarded converts a handler panic into an ordinary handler failure.
func callGuarded(ctx context.Context, event Event, handler HandlerFunc) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanicked, recovered)
		}
	}()

	return handler(ctx, event)
}

func (b *EventBus) reportHandlerFailure(ctx context.Context, event Event, position int, invokeErr error) {
	msg := logMsgHandlerFailed
	switch {
	case errors.Is(invokeErr, ErrHandlerPanicked):
		msg = logMsgHandlerPanicked
	case errors.Is(invokeErr, ErrHandlerTimedOut):
		msg = logMsgHandlerTimedOut
	}

	b.logErrorContext(ctx, msg,
		logAttrError, invokeErr.Error(),
		logAttrEventID, event.EventID(),
		logAttrEventType, event.EventType(),
		logAttrHandlerPosition, position)

	if b.errorHook != nil {
		b.errorHook(event, position, invokeErr)
	}
}

func (b *EventBus) recordHandlerMetrics(
	ctx context.Context,
	event Event,
	duration time.Duration,
	invokeErr error,
) {

	if b.metricsCollector == nil {
		return
	}

	status := statusSuccess
	if invokeErr != nil {
		status = statusError
	}

	labels := map[string]string{
		labelEventType: event.EventType(),
		labelStatus:    status,
	}

	recordDurationContext(ctx, b.metricsCollector, metricHandlerDuration, duration, labels)

	if invokeErr != nil {
		failureLabels := map[string]string{
			labelEventType:   event.EventType(),
			labelFailureKind: failureKind(invokeErr),
		}
		incrementCounterContext(ctx, b.metricsCollector, metricHandlerFailures, failureLabels)
	}
}

func (b *EventBus) recordPublishMetrics(ctx context.Context, event Event, duration time.Duration) {
	if b.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		labelEventType: event.EventType(),
		labelStatus:    statusSuccess,
	}

	recordDurationContext(ctx, b.metricsCollector, metricPublishDuration, duration, labels)
	incrementCounterContext(ctx, b.metricsCollector, metricEventsPublished, labels)
}

func failureKind(invokeErr error) string {
	switch {
	case errors.Is(invokeErr, ErrHandlerPanicked):
		return failureKindPanic
	case errors.Is(invokeErr, ErrHandlerTimedOut):
		return failureKindTimeout
	default:
		return failureKindError
	}
}

func (b *EventBus) startSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext) {
	if b.tracingCollector == nil {
		return ctx, nil
	}

	return b.tracingCollector.StartSpan(ctx, name, attrs)
}

func (b *EventBus) finishSpan(span SpanContext, status string, attrs map[string]string) {
	if b.tracingCollector != nil && span != nil {
		b.tracingCollector.FinishSpan(span, status, attrs)
	}
}

func (b *EventBus) logWarn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}

func (b *EventBus) logDebugContext(ctx context.Context, msg string, args ...any) {
	if b.contextualLogger != nil {
		b.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func (b *EventBus) logErrorContext(ctx context.Context, msg string, args ...any) {
	if b.contextualLogger != nil {
		b.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}
	if b.logger != nil {
		b.logger.Error(msg, args...)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
