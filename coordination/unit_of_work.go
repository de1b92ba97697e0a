package coordination

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	logMsgScopeCommitted    = "unit of work committed"
	logMsgScopeRolledBack   = "unit of work rolled back"
	logMsgTxRollbackFailed  = "failed to roll back store transaction"
	logAttrParticipantCount = "participant_count"
	logAttrEventsFlushed    = "events_flushed"
	metricCommitDuration    = "uow_commit_duration_seconds"
	metricCommitsTotal      = "uow_commits_total"
	metricRollbacksTotal    = "uow_rollbacks_total"
	metricEventsFlushed     = "uow_events_flushed_total"
	spanNameCommit          = "uow.commit"
	spanStatusError         = "error"
)

// State represents the lifecycle state of a Unit-of-Work scope.
type State int

const (
	// StateOpen accepts repository operations and event queuing.
	StateOpen State = iota

	// StateCommitted is terminal: mutations persisted, queued events dispatched.
	StateCommitted

	// StateRolledBack is terminal: mutations and queued events discarded.
	StateRolledBack
)

// String returns the state name for logging and error messages.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// UnitOfWork coordinates one or more repository sessions under a single
// atomic transaction and correlates event emission with a successful commit.
//
// A scope is created per use-case invocation with Begin, transitions from
// open to exactly one terminal state (committed or rolled back), and is
// discarded afterwards - it is never reused. Events queued with Raise reach
// the Event Bus if and only if Commit succeeds, strictly after persistence.
//
// A scope's internal state is private to one logical transaction: it must not
// be shared between concurrent callers. Many scopes may run concurrently in
// one process, each on its own goroutine; the bus they share is safe for that.
type UnitOfWork struct {
	bus              *EventBus
	store            TransactionalStore
	state            State
	pendingEvents    Events
	participants     []Participant
	enlisted         map[Participant]struct{}
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// Begin opens a new Unit-of-Work scope publishing to the given bus,
// with optional configuration.
func Begin(bus *EventBus, options ...UnitOfWorkOption) (*UnitOfWork, error) {
	if bus == nil {
		return nil, ErrNilEventBus
	}

	uow := &UnitOfWork{
		bus:      bus,
		state:    StateOpen,
		enlisted: make(map[Participant]struct{}),
	}

	for _, option := range options {
		if err := option(uow); err != nil {
			return nil, err
		}
	}

	return uow, nil
}

// State returns the current lifecycle state of the scope.
func (u *UnitOfWork) State() State {
	return u.state
}

// PendingEvents returns a copy of the events queued so far.
func (u *UnitOfWork) PendingEvents() Events {
	pending := make(Events, len(u.pendingEvents))
	copy(pending, u.pendingEvents)

	return pending
}

// Enlist adds a repository session as a participant of this scope.
// Enlisting the same participant twice is a no-op (idempotent per scope).
// Returns ErrScopeNotOpen when the scope already reached a terminal state.
func (u *UnitOfWork) Enlist(participant Participant) error {
	if u.state != StateOpen {
		return ErrScopeNotOpen
	}

	if participant == nil {
		return ErrNilParticipant
	}

	if _, alreadyEnlisted := u.enlisted[participant]; alreadyEnlisted {
		return nil
	}

	u.enlisted[participant] = struct{}{}
	u.participants = append(u.participants, participant)

	return nil
}

// Raise queues an event for conditional dispatch after a successful commit.
// It never dispatches by itself. Returns ErrScopeNotOpen when the scope
// already reached a terminal state.
func (u *UnitOfWork) Raise(event Event) error {
	if u.state != StateOpen {
		return ErrScopeNotOpen
	}

	if event == nil {
		return ErrNilEvent
	}

	u.pendingEvents = append(u.pendingEvents, event)

	return nil
}

// Commit attempts atomic persistence of all participant mutations.
//
// It first flushes every participant, in enlistment order, into one store
// transaction and commits it. Only when persistence has fully succeeded are
// the queued events handed to the Event Bus, one Publish per event in queue
// order, and the scope marked committed. Any persistence failure forces the
// scope to rolled-back, discards the queue, and returns ErrCommitFailed
// joined with the cause - no event reaches any subscriber.
//
// A context canceled before Commit behaves like Rollback: the scope is rolled
// back and the commit reported as failed.
//
// Calling Commit on a terminal scope returns ErrScopeNotOpen without side effects.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.state != StateOpen {
		return ErrScopeNotOpen
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		u.Rollback(ctx)
		return errors.Join(ErrCommitFailed, ctxErr)
	}

	ctx, span := u.startSpan(ctx, spanNameCommit, map[string]string{
		logAttrParticipantCount: fmt.Sprintf("%d", len(u.participants)),
	})

	start := time.Now()

	tx, beginErr := u.beginTx(ctx)
	if beginErr != nil {
		return u.failCommit(ctx, span, start, errors.Join(ErrBeginningTxFailed, beginErr))
	}

	for _, participant := range u.participants {
		if flushErr := participant.Flush(ctx, tx); flushErr != nil {
			u.rollbackTx(ctx, tx)
			return u.failCommit(ctx, span, start, errors.Join(ErrFlushingParticipantFailed, flushErr))
		}
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		u.rollbackTx(ctx, tx)
		return u.failCommit(ctx, span, start, errors.Join(ErrCommittingTxFailed, commitErr))
	}

	// Persistence is durable from here on: flush the queue, then seal the scope.
	flushed := u.flushPendingEvents(ctx)
	u.state = StateCommitted

	duration := time.Since(start)
	u.recordCommitMetrics(ctx, duration, statusSuccess)
	u.finishSpan(span, spanStatusOK, map[string]string{logAttrEventsFlushed: fmt.Sprintf("%d", flushed)})

	u.logInfoContext(ctx, logMsgScopeCommitted,
		logAttrParticipantCount, len(u.participants),
		logAttrEventsFlushed, flushed,
		logAttrDurationMS, durationToMilliseconds(duration))

	return nil
}

// Rollback discards all staged participant mutations and the queued events.
// It always succeeds and is idempotent: on a scope that is already terminal
// it is a no-op.
func (u *UnitOfWork) Rollback(ctx context.Context) {
	if u.state != StateOpen {
		return
	}

	u.discardParticipants()
	u.pendingEvents = nil
	u.state = StateRolledBack

	if u.metricsCollector != nil {
		incrementCounterContext(ctx, u.metricsCollector, metricRollbacksTotal, map[string]string{
			labelStatus: statusSuccess,
		})
	}

	u.logDebugContext(ctx, logMsgScopeRolledBack,
		logAttrParticipantCount, len(u.participants))
}

// Execute runs fn inside this scope with guaranteed termination: on success
// the scope is committed, and on error, panic, or any other early exit the
// rollback default applies. The scope is terminal on every return path.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(uow *UnitOfWork) error) error {
	defer func() {
		if u.state == StateOpen {
			u.Rollback(ctx)
		}
	}()

	if err := fn(u); err != nil {
		u.Rollback(ctx)
		return err
	}

	return u.Commit(ctx)
}

func (u *UnitOfWork) beginTx(ctx context.Context) (Transaction, error) {
	if u.store == nil {
		return nopTransaction{}, nil
	}

	return u.store.Begin(ctx)
}

// rollbackTx rolls the store transaction back; the scope is on its failure
// path already, so a rollback error is only worth a warning.
func (u *UnitOfWork) rollbackTx(ctx context.Context, tx Transaction) {
	if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
		u.logWarnContext(ctx, logMsgTxRollbackFailed, logAttrError, rollbackErr.Error())
	}
}

// failCommit forces the scope to rolled-back and wraps the cause into
// ErrCommitFailed. No event reaches the bus on this path.
func (u *UnitOfWork) failCommit(ctx context.Context, span SpanContext, start time.Time, cause error) error {
	u.discardParticipants()
	u.pendingEvents = nil
	u.state = StateRolledBack

	duration := time.Since(start)
	u.recordCommitMetrics(ctx, duration, statusError)
	u.finishSpan(span, spanStatusError, map[string]string{logAttrError: cause.Error()})

	commitErr := errors.Join(ErrCommitFailed, cause)

	u.logErrorContext(ctx, logMsgScopeRolledBack,
		logAttrError, commitErr.Error(),
		logAttrParticipantCount, len(u.participants))

	return commitErr
}

func (u *UnitOfWork) flushPendingEvents(ctx context.Context) int {
	flushed := 0

	for _, event := range u.pendingEvents {
		// Publish only fails for nil events, which Raise rejects up front.
		_ = u.bus.Publish(ctx, event)
		flushed++
	}

	u.pendingEvents = nil

	if u.metricsCollector != nil && flushed > 0 {
		recordValueContext(ctx, u.metricsCollector, metricEventsFlushed, float64(flushed), map[string]string{
			labelStatus: statusSuccess,
		})
	}

	return flushed
}

func (u *UnitOfWork) discardParticipants() {
	for _, participant := range u.participants {
		participant.Discard()
	}
}

func (u *UnitOfWork) recordCommitMetrics(ctx context.Context, duration time.Duration, status string) {
	if u.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelStatus: status}

	recordDurationContext(ctx, u.metricsCollector, metricCommitDuration, duration, labels)
	incrementCounterContext(ctx, u.metricsCollector, metricCommitsTotal, labels)
}

func (u *UnitOfWork) startSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext) {
	if u.tracingCollector == nil {
		return ctx, nil
	}

	return u.tracingCollector.StartSpan(ctx, name, attrs)
}

func (u *UnitOfWork) finishSpan(span SpanContext, status string, attrs map[string]string) {
	if u.tracingCollector != nil && span != nil {
		u.tracingCollector.FinishSpan(span, status, attrs)
	}
}

func (u *UnitOfWork) logDebugContext(ctx context.Context, msg string, args ...any) {
	if u.contextualLogger != nil {
		u.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}
	if u.logger != nil {
		u.logger.Debug(msg, args...)
	}
}

func (u *UnitOfWork) logInfoContext(ctx context.Context, msg string, args ...any) {
	if u.contextualLogger != nil {
		u.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}
	if u.logger != nil {
		u.logger.Info(msg, args...)
	}
}

func (u *UnitOfWork) logWarnContext(ctx context.Context, msg string, args ...any) {
	if u.contextualLogger != nil {
		u.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}
	if u.logger != nil {
		u.logger.Warn(msg, args...)
	}
}

func (u *UnitOfWork) logErrorContext(ctx context.Context, msg string, args ...any) {
	if u.contextualLogger != nil {
		u.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}
	if u.logger != nil {
		u.logger.Error(msg, args...)
	}
}
