// Package postgresengine provides the Postgres implementation of
// coordination.TransactionalStore.
//
// A TxStore hands one storage transaction to each Unit-of-Work scope, so the
// flushes of all enlisted repository sessions commit or roll back together.
// It supports three database access layers through adapters:
//   - pgx.Pool (recommended): NewTxStoreFromPGXPool
//   - database/sql: NewTxStoreFromSQLDB
//   - sqlx: NewTxStoreFromSQLX
//
// Common usage pattern:
//
//	store, err := postgresengine.NewTxStoreFromPGXPool(pool, postgresengine.WithLogger(logger))
//	if err != nil {
//		// handle error
//	}
//
//	uow, err := coordination.Begin(bus, coordination.WithStore(store))
package postgresengine
