package coordination

// UnitOfWorkOption defines a functional option for configuring a UnitOfWork scope.
type UnitOfWorkOption func(*UnitOfWork) error

// WithStore sets the transactional store backing this scope. Participant
// flushes run inside one transaction of this store, making their combined
// effects atomic. Without a store the scope uses a no-op transaction, which
// suits participants that manage their own state (in-memory sessions).
func WithStore(store TransactionalStore) UnitOfWorkOption {
	return func(u *UnitOfWork) error {
		if store == nil {
			return ErrNilStore
		}

		u.store = store

		return nil
	}
}

// WithUnitOfWorkLogger sets the logger for the scope.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: rollback notices (development use)
// Info level: commit summaries with participant and event counts (production-safe)
// Warn level: non-critical issues like store-transaction rollback failures
// Error level: commit failures that forced the scope to rolled-back.
func WithUnitOfWorkLogger(logger Logger) UnitOfWorkOption {
	return func(u *UnitOfWork) error {
		u.logger = logger
		return nil
	}
}

// WithUnitOfWorkContextualLogger sets the contextual logger for the scope.
// When configured it takes precedence over the plain logger for messages that
// carry a context, enabling automatic trace/span correlation.
func WithUnitOfWorkContextualLogger(logger ContextualLogger) UnitOfWorkOption {
	return func(u *UnitOfWork) error {
		u.contextualLogger = logger
		return nil
	}
}

// WithUnitOfWorkMetrics sets the metrics collector for the scope.
// The collector will receive commit durations and commit/rollback counts as
// well as the number of events flushed to the bus per successful commit.
func WithUnitOfWorkMetrics(collector MetricsCollector) UnitOfWorkOption {
	return func(u *UnitOfWork) error {
		u.metricsCollector = collector
		return nil
	}
}

// WithUnitOfWorkTracing sets the tracing collector for the scope.
// The collector will receive one span per Commit call, tagged with the
// participant count and the number of events flushed or the failure cause.
func WithUnitOfWorkTracing(collector TracingCollector) UnitOfWorkOption {
	return func(u *UnitOfWork) error {
		u.tracingCollector = collector
		return nil
	}
}
