package shell_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pericialabs/coordination-go/coordination"
	"github.com/pericialabs/coordination-go/coordination/postgresengine"
	"github.com/pericialabs/coordination-go/example/shared/shell"
	"github.com/pericialabs/coordination-go/example/shared/shell/config"
)

// These tests run against the test database from config.PostgresTestDSN and
// are skipped unless the environment opts in.
const postgresIntegrationEnvVar = "POSTGRES_INTEGRATION_TESTS"

func requirePostgres(t *testing.T) {
	t.Helper()

	if os.Getenv(postgresIntegrationEnvVar) == "" {
		t.Skipf("set %s to run against the test database", postgresIntegrationEnvVar)
	}
}

func setupUsersTable(t *testing.T, store *postgresengine.TxStore) {
	t.Helper()
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	_, err = tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS users (id text PRIMARY KEY, name text, email text, tax_id text, role text)`)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, `DELETE FROM users`)
	require.NoError(t, err)

	require.NoError(t, tx.Commit(ctx))
}

func dropBuffetsTable(t *testing.T, store *postgresengine.TxStore) {
	t.Helper()
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	_, err = tx.Exec(ctx, `DROP TABLE IF EXISTS buffets`)
	require.NoError(t, err)

	require.NoError(t, tx.Commit(ctx))
}

func readUserName(t *testing.T, store *postgresengine.TxStore, id string) (string, bool) {
	t.Helper()
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `SELECT name FROM users WHERE id = '`+id+`'`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return "", false
	}

	var name string
	require.NoError(t, rows.Scan(&name))

	return name, true
}

func Test_Integration_ScopeFlushesStagedSQLThroughPGXPool(t *testing.T) {
	requirePostgres(t)
	ctx := context.Background()

	pool, err := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolTestConfig())
	require.NoError(t, err)
	defer pool.Close()

	store, err := postgresengine.NewTxStoreFromPGXPool(pool)
	require.NoError(t, err)
	setupUsersTable(t, store)

	bus, err := coordination.NewEventBus()
	require.NoError(t, err)

	uow, err := coordination.Begin(bus, coordination.WithStore(store))
	require.NoError(t, err)

	session := shell.NewUserPostgresSession()
	require.NoError(t, uow.Enlist(session))
	require.NoError(t, session.Add(shell.User{ID: "u-it-1", Name: "Ana", Email: "ana@example.com", TaxID: "123", Role: "expert"}))

	require.NoError(t, uow.Commit(ctx))

	name, exists := readUserName(t, store, "u-it-1")
	require.True(t, exists)
	assert.Equal(t, "Ana", name)
}

func Test_Integration_FailedFlushRollsBackTheWholeTransaction(t *testing.T) {
	requirePostgres(t)
	ctx := context.Background()

	db := config.PostgresSQLDBTestConfig()
	defer func() { _ = db.Close() }()

	store, err := postgresengine.NewTxStoreFromSQLDB(db)
	require.NoError(t, err)
	setupUsersTable(t, store)
	dropBuffetsTable(t, store)

	bus, err := coordination.NewEventBus()
	require.NoError(t, err)

	uow, err := coordination.Begin(bus, coordination.WithStore(store))
	require.NoError(t, err)

	users := shell.NewUserPostgresSession()
	buffets := shell.NewBuffetPostgresSession()
	require.NoError(t, uow.Enlist(users))
	require.NoError(t, uow.Enlist(buffets))

	require.NoError(t, users.Add(shell.User{ID: "u-it-2", Name: "Bob"}))
	// the buffets table does not exist, so flushing this insert must fail
	require.NoError(t, buffets.Add(shell.Buffet{ID: "b-it-1", Name: "Silva & Filhos"}))

	err = uow.Commit(ctx)
	assert.ErrorIs(t, err, coordination.ErrCommitFailed)

	_, exists := readUserName(t, store, "u-it-2")
	assert.False(t, exists, "the user insert must roll back with the failed scope")
}

func Test_Integration_SQLXConnectionServesTheSameStore(t *testing.T) {
	requirePostgres(t)
	ctx := context.Background()

	db := config.PostgresSQLXTestConfig()
	defer func() { _ = db.Close() }()

	store, err := postgresengine.NewTxStoreFromSQLX(db)
	require.NoError(t, err)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))
}
