package businessflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/occsec/secure-dialer/models"
)

// ContactCache holds the in-process view of contacts that the gateway
// mutates optimistically. Mutations are applied here first, then persisted;
// a failed persist restores the snapshot taken before the mutation.
//
// A per-user version key in redis lets other instances notice list changes
// without sharing the in-process state.
type ContactCache struct {
	mu       sync.RWMutex
	contacts map[uint]models.Contact
	redis    *redis.Client
}

// NewContactCache creates a contact cache. redisClient may be nil; version
// invalidation is then skipped.
func NewContactCache(redisClient *redis.Client) *ContactCache {
	return &ContactCache{
		contacts: make(map[uint]models.Contact),
		redis:    redisClient,
	}
}

// Get returns a copy of the cached contact, if present.
func (c *ContactCache) Get(contactID uint) (*models.Contact, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	contact, ok := c.contacts[contactID]
	if !ok {
		return nil, false
	}
	return &contact, true
}

// Put stores a copy of the contact.
func (c *ContactCache) Put(contact *models.Contact) {
	if contact == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contacts[contact.ID] = *contact
}

// Snapshot returns the cached state of a contact before a mutation.
// A nil snapshot means the contact was not cached.
func (c *ContactCache) Snapshot(contactID uint) *models.Contact {
	c.mu.RLock()
	defer c.mu.RUnlock()
	contact, ok := c.contacts[contactID]
	if !ok {
		return nil
	}
	return &contact
}

// Restore rolls a contact back to a snapshot taken with Snapshot. When the
// snapshot is nil the entry is evicted, because the contact was not cached
// before the mutation.
func (c *ContactCache) Restore(contactID uint, snapshot *models.Contact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snapshot == nil {
		delete(c.contacts, contactID)
		return
	}
	c.contacts[snapshot.ID] = *snapshot
}

// Evict removes a contact from the cache.
func (c *ContactCache) Evict(contactID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.contacts, contactID)
}

func contactVersionKey(userID string) string {
	return fmt.Sprintf("contacts:version:%s", userID)
}

// Invalidate bumps the user's contact list version so other instances
// refetch. Best effort; a redis failure never fails the mutation.
func (c *ContactCache) Invalidate(ctx context.Context, userID string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Incr(ctx, contactVersionKey(userID)).Err()
}

// Version returns the user's current contact list version. Returns 0 when
// the key does not exist or redis is not configured.
func (c *ContactCache) Version(ctx context.Context, userID string) int64 {
	if c.redis == nil {
		return 0
	}
	version, err := c.redis.Get(ctx, contactVersionKey(userID)).Int64()
	if err != nil {
		return 0
	}
	return version
}
