// Package testutil starts throwaway Postgres and RabbitMQ containers for the
// integration tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/Lolobw32/ecom-oslan/internal/db"
)

const (
	dbUser     = "oslan"
	dbPassword = "oslan"
	dbName     = "storefront"
)

type Postgres struct {
	DSN  string
	SQL  *sql.DB
	Pool *pgxpool.Pool
}

// StartPostgres launches Postgres, applies the migrations and opens both the
// database/sql handle and the pgx pool. Everything is torn down with t.Cleanup.
func StartPostgres(t *testing.T) *Postgres {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_USER":     dbUser,
				"POSTGRES_PASSWORD": dbPassword,
				"POSTGRES_DB":       dbName,
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		terminateCtx, terminateCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer terminateCancel()
		_ = container.Terminate(terminateCtx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPassword, host, port.Port(), dbName)
	require.NoError(t, db.RunMigrations(dsn, zap.NewNop()))

	sqlDB, err := db.OpenSQL(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return &Postgres{DSN: dsn, SQL: sqlDB, Pool: pool}
}

// Truncate empties every application table between tests.
func (p *Postgres) Truncate(t *testing.T) {
	t.Helper()
	_, err := p.SQL.Exec(`TRUNCATE order_items, orders, analytics, session_kv, event_sequence, products, profiles, users CASCADE`)
	require.NoError(t, err)
}
