package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"imet-backend/internal/repository"
	"imet-backend/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "imet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.ConnectionRepository {
		return newTestStore(t)
	})
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "imet.db")

	store, err := Open(path)
	require.NoError(t, err)
	created := time.Date(2024, 1, 2, 3, 4, 5, 6789, time.UTC)
	require.NoError(t, store.Insert(ctx, repotest.Sample("c1", "Jane", created)))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, created.Equal(got.CreatedAt))
	require.NotNil(t, got.Email)
	assert.Equal(t, "Jane@example.com", *got.Email)
	assert.NoError(t, reopened.Ping(ctx))
}
