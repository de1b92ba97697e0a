// Package adapters provides database adapter implementations that allow the
// transactional store to work with different Postgres access layers (pgx.Pool,
// database/sql, sqlx) through common transaction interfaces.
package adapters
