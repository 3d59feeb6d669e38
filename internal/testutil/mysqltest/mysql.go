//go:build integration

// Package mysqltest starts a throwaway MySQL server for integration tests.
package mysqltest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
)

const (
	dbName = "worry_solver_test"
	user   = "testuser"
	pass   = "testpass"
)

// Open starts a container and returns a connection to an empty database.
// Container and connection are released through t.Cleanup; schema is left to
// the caller.
func Open(t *testing.T, ctx context.Context) *sql.DB {
	t.Helper()

	container, err := mysql.RunContainer(ctx,
		mysql.WithDatabase(dbName),
		mysql.WithUsername(user),
		mysql.WithPassword(pass),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, nat.Port("3306/tcp"))
	require.NoError(t, err)

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC", user, pass, host, port.Port(), dbName)
	sqlDB, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, sqlDB.PingContext(ctx))
	return sqlDB
}
