package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTag(kind domain.AlertKind) domain.NotifiedTag {
	return domain.TagFor(uuid.NewString(), kind)
}

func TestTagStore_AddContains(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	store := NewTagStoreFromPool(testPool, 5*time.Second)

	tag := newTestTag(domain.AlertNoOwner)

	found, err := store.Contains(ctx, tag)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Add(ctx, tag))

	found, err = store.Contains(ctx, tag)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestTagStore_AddIsIdempotent(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	store := NewTagStoreFromPool(testPool, 5*time.Second)

	tag := newTestTag(domain.AlertFullyAssigned)
	require.NoError(t, store.Add(ctx, tag))
	require.NoError(t, store.Add(ctx, tag))

	var n int
	require.NoError(t, testPool.QueryRow(ctx,
		`SELECT count(*) FROM notified_tags WHERE tag = $1`, string(tag)).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestTagStore_KindsAreIndependent(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	store := NewTagStoreFromPool(testPool, 5*time.Second)

	id := uuid.NewString()
	require.NoError(t, store.Add(ctx, domain.TagFor(id, domain.AlertNoOwner)))

	found, err := store.Contains(ctx, domain.TagFor(id, domain.AlertFullyAssigned))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewTagStore_MigratesAndPings(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	// Migrations already ran in TestMain; a second run must be a no-op.
	store, err := NewTagStore(ctx, testDSN, 5*time.Second)
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Ping(ctx))
}

func TestTagStore_CancelledContext(t *testing.T) {
	requireDB(t)
	store := NewTagStoreFromPool(testPool, 5*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Contains(ctx, newTestTag(domain.AlertNoOwner))
	assert.Error(t, err)
}
