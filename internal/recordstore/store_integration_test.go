//go:build integration

package recordstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"worry_solver/internal/model"
	"worry_solver/internal/store/mysql"
	"worry_solver/internal/testutil/mysqltest"
)

func TestStoreOverMySQL(t *testing.T) {
	ctx := context.Background()
	sqlDB := mysqltest.Open(t, ctx)
	require.NoError(t, mysql.Migrate(ctx, sqlDB))

	store := New(mysql.New(sqlDB, zap.NewNop()), zap.NewNop())
	require.NoError(t, store.Init(ctx))

	record := model.Record{ConfessionText: "test", SelectedTags: []string{"a"}}
	require.True(t, store.Store(ctx, "TSZT-VVSM-8F8Y", record))
	require.True(t, store.Exists(ctx, "TSZT-VVSM-8F8Y"))

	got, ok := store.Retrieve(ctx, "TSZT-VVSM-8F8Y")
	require.True(t, ok)
	require.Equal(t, "test", got.ConfessionText)
	require.Equal(t, "TSZT-VVSM-8F8Y", got.AccessCode)

	// Row locking keeps concurrent appends from losing each other.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok := store.Update(ctx, "TSZT-VVSM-8F8Y", func(r *model.Record) bool {
				r.Replies = append(r.Replies, model.Reply{ReplyText: fmt.Sprintf("reply %d", i)})
				return true
			})
			require.True(t, ok)
		}(i)
	}
	wg.Wait()

	got, ok = store.Retrieve(ctx, "TSZT-VVSM-8F8Y")
	require.True(t, ok)
	require.Len(t, got.Replies, 8)

	require.True(t, store.ClearAll(ctx))
	require.False(t, store.Exists(ctx, "TSZT-VVSM-8F8Y"))
	require.Equal(t, 0, store.Len(ctx))
}
