package coordination

import (
	"errors"
)

// ErrNilEvent is returned when a nil event is published or raised.
var ErrNilEvent = errors.New("event must not be nil")

// ErrNilParticipant is returned when a nil participant is enlisted.
var ErrNilParticipant = errors.New("participant must not be nil")

// ErrNilEventBus is returned when a scope is begun without an event bus.
var ErrNilEventBus = errors.New("event bus must not be nil")

// ErrNilStore is returned when a nil transactional store is configured.
var ErrNilStore = errors.New("transactional store must not be nil")

// ErrScopeNotOpen is the illegal-state error: an operation was attempted
// against a scope that already reached a terminal state.
var ErrScopeNotOpen = errors.New("unit of work scope is not open")

// ErrCommitFailed is returned when persisting the participant mutations
// failed; the scope was forced to rolled-back and no events were dispatched.
// It is always joined with the underlying cause.
var ErrCommitFailed = errors.New("commit failed, scope rolled back")

// ErrBeginningTxFailed is joined into ErrCommitFailed when the store could
// not begin a transaction.
var ErrBeginningTxFailed = errors.New("beginning store transaction failed")

// ErrFlushingParticipantFailed is joined into ErrCommitFailed when an
// enlisted participant could not persist its staged mutations.
var ErrFlushingParticipantFailed = errors.New("flushing participant failed")

// ErrCommittingTxFailed is joined into ErrCommitFailed when the store
// transaction could not commit.
var ErrCommittingTxFailed = errors.New("committing store transaction failed")

// ErrHandlerPanicked wraps a recovered panic from an event handler so it can
// be reported through the same channel as ordinary handler failures.
var ErrHandlerPanicked = errors.New("event handler panicked")

// ErrHandlerTimedOut marks a handler invocation that exceeded the configured
// handler timeout; the handler is abandoned and dispatch continues.
var ErrHandlerTimedOut = errors.New("event handler timed out")
