package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/pericialabs/coordination-go/coordination"
	"github.com/pericialabs/coordination-go/coordination/postgresengine/internal/adapters"
)

const (
	logMsgTxBegun            = "store transaction begun"
	logMsgTxCommitted        = "store transaction committed"
	logMsgTxRolledBack       = "store transaction rolled back"
	logMsgBeginTxFailed      = "failed to begin store transaction"
	logMsgDBExecFailed       = "statement execution failed inside store transaction"
	logMsgDBQueryFailed      = "query execution failed inside store transaction"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgSQLExecuted        = "executed sql for: "
	logAttrError             = "error"
	logAttrQuery             = "query"
	logAttrDurationMS        = "duration_ms"
	logActionExec            = "exec"
	logActionQuery           = "query"
	metricTxDuration         = "postgres_tx_duration_seconds"
	metricTxTotal            = "postgres_tx_total"
	labelStatus              = "status"
	statusCommitted          = "committed"
	statusRolledBack         = "rolled_back"
	spanNameTx               = "postgres.tx"
	spanStatusError          = "error"
)

// ErrNilDatabaseConnection is returned when a factory receives a nil connection.
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")

// TxStore implements coordination.TransactionalStore on top of Postgres.
// It leverages a database adapter and supports customizable logging, metrics
// and tracing for the transactions it hands out.
type TxStore struct {
	db               adapters.DBAdapter
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewTxStoreFromPGXPool creates a new TxStore using a pgx Pool with optional configuration.
func NewTxStoreFromPGXPool(pool *pgxpool.Pool, options ...Option) (*TxStore, error) {
	if pool == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newTxStore(adapters.NewPGXAdapter(pool), options...)
}

// NewTxStoreFromSQLDB creates a new TxStore using a sql.DB with optional configuration.
func NewTxStoreFromSQLDB(db *sql.DB, options ...Option) (*TxStore, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newTxStore(adapters.NewSQLAdapter(db), options...)
}

// NewTxStoreFromSQLX creates a new TxStore using a sqlx.DB with optional configuration.
func NewTxStoreFromSQLX(db *sqlx.DB, options ...Option) (*TxStore, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newTxStore(adapters.NewSQLXAdapter(db), options...)
}

func newTxStore(db adapters.DBAdapter, options ...Option) (*TxStore, error) {
	store := &TxStore{db: db}

	for _, option := range options {
		if err := option(store); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// Begin starts a database transaction for one Unit-of-Work scope.
// With a tracing collector configured, the transaction becomes one span,
// finished with its terminal status by Commit or Rollback.
func (s *TxStore) Begin(ctx context.Context) (coordination.Transaction, error) {
	ctx, span := s.startSpan(ctx, spanNameTx)

	dbTx, beginErr := s.db.BeginTx(ctx)
	if beginErr != nil {
		s.finishSpan(span, spanStatusError, map[string]string{logAttrError: beginErr.Error()})
		s.logError(ctx, logMsgBeginTxFailed, logAttrError, beginErr.Error())
		return nil, beginErr
	}

	s.logDebug(ctx, logMsgTxBegun)

	return &storeTx{store: s, tx: dbTx, span: span, startedAt: time.Now()}, nil
}

// storeTx wraps an adapter transaction with logging, metrics and tracing.
type storeTx struct {
	store     *TxStore
	tx        adapters.DBTx
	span      coordination.SpanContext
	startedAt time.Time
}

// Exec runs a statement inside the transaction and returns the affected row count.
func (t *storeTx) Exec(ctx context.Context, query string) (int64, error) {
	start := time.Now()
	result, execErr := t.tx.Exec(ctx, query)
	t.store.logQueryWithDuration(ctx, query, logActionExec, time.Since(start))

	if execErr != nil {
		t.store.logError(ctx, logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, query)
		return 0, execErr
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		t.store.logError(ctx, logMsgRowsAffectedFailed, logAttrError, rowsAffectedErr.Error())
		return 0, rowsAffectedErr
	}

	return rowsAffected, nil
}

// Query runs a query inside the transaction and returns its rows.
func (t *storeTx) Query(ctx context.Context, query string) (coordination.Rows, error) {
	start := time.Now()
	rows, queryErr := t.tx.Query(ctx, query)
	t.store.logQueryWithDuration(ctx, query, logActionQuery, time.Since(start))

	if queryErr != nil {
		t.store.logError(ctx, logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, query)
		return nil, queryErr
	}

	return rows, nil
}

// Commit commits the transaction.
func (t *storeTx) Commit(ctx context.Context) error {
	if commitErr := t.tx.Commit(ctx); commitErr != nil {
		t.finishSpan(spanStatusError, map[string]string{logAttrError: commitErr.Error()})
		return commitErr
	}

	t.finishSpan(statusCommitted, nil)
	t.store.recordTxMetrics(ctx, time.Since(t.startedAt), statusCommitted)
	t.store.logDebug(ctx, logMsgTxCommitted, logAttrDurationMS, durationToMilliseconds(time.Since(t.startedAt)))

	return nil
}

// Rollback rolls the transaction back.
func (t *storeTx) Rollback(ctx context.Context) error {
	if rollbackErr := t.tx.Rollback(ctx); rollbackErr != nil {
		t.finishSpan(spanStatusError, map[string]string{logAttrError: rollbackErr.Error()})
		return rollbackErr
	}

	t.finishSpan(statusRolledBack, nil)
	t.store.recordTxMetrics(ctx, time.Since(t.startedAt), statusRolledBack)
	t.store.logDebug(ctx, logMsgTxRolledBack, logAttrDurationMS, durationToMilliseconds(time.Since(t.startedAt)))

	return nil
}

// finishSpan ends the transaction span exactly once; a commit failure that is
// followed by a rollback must not end it twice.
func (t *storeTx) finishSpan(status string, attrs map[string]string) {
	if t.span == nil {
		return
	}

	t.store.finishSpan(t.span, status, attrs)
	t.span = nil
}

func (s *TxStore) startSpan(ctx context.Context, name string) (context.Context, coordination.SpanContext) {
	if s.tracingCollector == nil {
		return ctx, nil
	}

	return s.tracingCollector.StartSpan(ctx, name, nil)
}

func (s *TxStore) finishSpan(span coordination.SpanContext, status string, attrs map[string]string) {
	if s.tracingCollector != nil && span != nil {
		s.tracingCollector.FinishSpan(span, status, attrs)
	}
}

func (s *TxStore) recordTxMetrics(ctx context.Context, duration time.Duration, status string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelStatus: status}

	if contextual, ok := s.metricsCollector.(coordination.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metricTxDuration, duration, labels)
		contextual.IncrementCounterContext(ctx, metricTxTotal, labels)
		return
	}

	s.metricsCollector.RecordDuration(metricTxDuration, duration, labels)
	s.metricsCollector.IncrementCounter(metricTxTotal, labels)
}

// logQueryWithDuration logs SQL statements with execution time at debug level if a logger is configured.
func (s *TxStore) logQueryWithDuration(ctx context.Context, query string, action string, duration time.Duration) {
	s.logDebug(ctx, logMsgSQLExecuted+action, logAttrDurationMS, durationToMilliseconds(duration), logAttrQuery, query)
}

func (s *TxStore) logDebug(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *TxStore) logError(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
