package coordination

import (
	"context"
)

// Repository is the generic per-aggregate CRUD contract the coordination core
// depends on abstractly. It does not prescribe the storage technology behind
// an implementation; the Unit of Work only cares that the combined effects of
// all enlisted repositories commit or roll back together.
//
// GetByID reports absence through the boolean instead of an error, so that
// "not found" stays a regular outcome rather than a failure.
type Repository[ID comparable, E any] interface {
	GetByID(ctx context.Context, id ID) (E, bool, error)
	List(ctx context.Context, offset int, limit int) ([]E, error)
	Add(ctx context.Context, entity E) (E, error)
	Update(ctx context.Context, entity E) (E, error)
	Delete(ctx context.Context, id ID) (bool, error)
}

// Participant is what the Unit of Work needs from an enlisted repository
// session: the ability to persist its staged mutations into the scope's
// transaction, and the ability to discard them on rollback.
//
// A participant belongs to exactly one scope. Implementations stage mutations
// locally between Flush calls and must not touch shared state before Flush.
type Participant interface {
	// Flush persists all staged mutations. The given transaction is the
	// scope's storage transaction; participants that do not use the shared
	// store may ignore it.
	Flush(ctx context.Context, tx Transaction) error

	// Discard drops all staged mutations without persisting them.
	Discard()
}

// TransactionalStore begins storage transactions that make the flushes of all
// participants in a scope atomic. postgresengine provides a Postgres-backed
// implementation; a scope without a configured store uses a no-op transaction.
type TransactionalStore interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Transaction is a single storage transaction owned by one Unit-of-Work scope.
type Transaction interface {
	Exec(ctx context.Context, query string) (int64, error)
	Query(ctx context.Context, query string) (Rows, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Rows is the minimal result-set contract returned by Transaction.Query.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// nopTransaction backs scopes without a configured store: participants that
// keep their own state (in-memory sessions) still get the full commit and
// rollback protocol.
type nopTransaction struct{}

func (nopTransaction) Exec(_ context.Context, _ string) (int64, error) { return 0, nil }
func (nopTransaction) Query(_ context.Context, _ string) (Rows, error) { return nopRows{}, nil }
func (nopTransaction) Commit(_ context.Context) error                  { return nil }
func (nopTransaction) Rollback(_ context.Context) error                { return nil }

type nopRows struct{}

func (nopRows) Next() bool          { return false }
func (nopRows) Scan(_ ...any) error { return nil }
func (nopRows) Close() error        { return nil }
