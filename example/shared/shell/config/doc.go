// Package config provides database connection configuration for the example
// application, with one factory per supported connection type
// (pgxpool, database/sql, sqlx).
package config
