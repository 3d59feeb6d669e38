//go:build integration

package mysql

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"worry_solver/internal/testutil/mysqltest"
)

func TestMySQLStoreIntegration(t *testing.T) {
	ctx := context.Background()
	dbConn := mysqltest.Open(t, ctx)
	require.NoError(t, Migrate(ctx, dbConn))
	// A second run finds the version table and applies nothing.
	require.NoError(t, Migrate(ctx, dbConn))

	store := New(dbConn, zap.NewNop())

	_, ok, err := store.GetSlot(ctx, "worrySubmissions")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.SetSlot(ctx, "worrySubmissions", []byte(`{}`)))
	value, ok, err := store.GetSlot(ctx, "worrySubmissions")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{}`, string(value))

	require.NoError(t, store.SetSlot(ctx, "counter", []byte("0")))
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.UpdateSlot(ctx, "counter", func(current []byte, ok bool) ([]byte, error) {
				n, err := strconv.Atoi(string(current))
				if err != nil {
					return nil, err
				}
				return []byte(strconv.Itoa(n + 1)), nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	value, _, err = store.GetSlot(ctx, "counter")
	require.NoError(t, err)
	require.Equal(t, "10", string(value))

	require.NoError(t, store.RemoveSlot(ctx, "worrySubmissions"))
	_, ok, err = store.GetSlot(ctx, "worrySubmissions")
	require.NoError(t, err)
	require.False(t, ok)
}
