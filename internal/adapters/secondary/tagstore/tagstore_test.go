package tagstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/lorrc/helpdesk-bridge/internal/config"
	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
	"github.com/lorrc/helpdesk-bridge/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, store ports.NotifiedTagStore) {
	t.Helper()
	ctx := context.Background()

	noOwner := domain.TagFor("100", domain.AlertNoOwner)
	assigned := domain.TagFor("100", domain.AlertFullyAssigned)

	found, err := store.Contains(ctx, noOwner)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Add(ctx, noOwner))
	require.NoError(t, store.Add(ctx, noOwner))

	found, err = store.Contains(ctx, noOwner)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = store.Contains(ctx, assigned)
	require.NoError(t, err)
	assert.False(t, found, "tags of different kinds are independent")

	assert.NoError(t, store.Ping(ctx))
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "chamados_notificados.json"))
	require.NoError(t, err)
	exerciseStore(t, store)
	require.NoError(t, store.Close())
}

func TestFileStore_PersistsAsJSONArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, "200_fully-assigned"))
	require.NoError(t, store.Add(ctx, "100_no-owner"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `["100_no-owner","200_fully-assigned"]`, string(data))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	found, err := reopened.Contains(ctx, "200_fully-assigned")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestFileStore_ReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.json")
	require.NoError(t, os.WriteFile(path, []byte(`["7_no-owner"]`), 0o644))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	found, err := store.Contains(context.Background(), "7_no-owner")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := NewFileStore(path)
	assert.ErrorContains(t, err, "parse")
}

func TestFileStore_ConcurrentAdds(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "tags.json"))
	require.NoError(t, err)

	ctx := context.Background()
	var wg sync.WaitGroup
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, store.Add(ctx, domain.TagFor(id, domain.AlertNoOwner)))
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
		found, err := store.Contains(ctx, domain.TagFor(id, domain.AlertNoOwner))
		require.NoError(t, err)
		assert.True(t, found, id)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.db")
	store, err := NewSQLiteStore(path, 0)
	require.NoError(t, err)
	exerciseStore(t, store)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path, 0)
	require.NoError(t, err)
	defer reopened.Close()

	found, err := reopened.Contains(context.Background(), domain.TagFor("100", domain.AlertNoOwner))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	logger := logging.Discard()

	store, err := Open(context.Background(), config.TagStoreConfig{
		Driver: config.TagStoreFile,
		Path:   filepath.Join(dir, "tags.json"),
	}, 0, logger)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	store, err = Open(context.Background(), config.TagStoreConfig{
		Driver: config.TagStoreSQLite,
		Path:   filepath.Join(dir, "tags.db"),
	}, 0, logger)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, store.Close())

	_, err = Open(context.Background(), config.TagStoreConfig{Driver: "mongo"}, 0, logger)
	assert.ErrorContains(t, err, "unknown driver")
}
