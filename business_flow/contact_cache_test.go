package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/occsec/secure-dialer/models"
)

func TestContactCacheStoresCopies(t *testing.T) {
	// Test that the cache is insulated from later mutation of the stored value
	cache := NewContactCache(nil)
	contact := &models.Contact{ID: 1, FirstName: "Jordan"}
	cache.Put(contact)

	contact.FirstName = "Morgan"
	cached, ok := cache.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Jordan", cached.FirstName)

	cached.FirstName = "Casey"
	again, ok := cache.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Jordan", again.FirstName)
}

func TestContactCacheSnapshotRestore(t *testing.T) {
	// Test the snapshot and restore cycle used by optimistic updates
	cache := NewContactCache(nil)
	cache.Put(&models.Contact{ID: 1, FirstName: "Jordan"})

	snapshot := cache.Snapshot(1)
	require.NotNil(t, snapshot)

	cache.Put(&models.Contact{ID: 1, FirstName: "Morgan"})
	cache.Restore(1, snapshot)

	cached, ok := cache.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Jordan", cached.FirstName)
}

func TestContactCacheRestoreNilEvicts(t *testing.T) {
	// Test that restoring a nil snapshot removes the optimistic entry
	cache := NewContactCache(nil)

	snapshot := cache.Snapshot(1)
	assert.Nil(t, snapshot)

	cache.Put(&models.Contact{ID: 1, FirstName: "Morgan"})
	cache.Restore(1, snapshot)

	_, ok := cache.Get(1)
	assert.False(t, ok)
}

func TestContactCacheWithoutRedis(t *testing.T) {
	// Test that invalidation is a no-op without redis
	cache := NewContactCache(nil)
	cache.Invalidate(context.Background(), "user-1")
	assert.Equal(t, int64(0), cache.Version(context.Background(), "user-1"))
}
