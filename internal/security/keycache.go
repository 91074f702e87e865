// File: internal/security/keycache.go
package security

import (
	"sync"
	"time"
)

// FallbackCacheTTL caps the cache lifetime when memory locking is
// unavailable and cached pages could be swapped out.
const FallbackCacheTTL = 5 * time.Minute

type cacheEntry struct {
	buf        *SecureBuffer
	cachedAt   time.Time
	lastAccess time.Time
}

// KeyCache holds decrypted keys for a bounded time, keyed by address.
// Every removal path wipes the entry's memory; Get hands out copies
// only, so a caller can never outlive the cache's zeroization.
type KeyCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration
}

// NewKeyCache creates a cache with the given TTL. When mlock is not
// available the TTL is capped at FallbackCacheTTL.
func NewKeyCache(ttl time.Duration) *KeyCache {
	if !MemoryLockAvailable() && ttl > FallbackCacheTTL {
		ttl = FallbackCacheTTL
	}
	return &KeyCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
	}
}

// TTL returns the effective cache lifetime.
func (c *KeyCache) TTL() time.Duration {
	return c.ttl
}

// Put caches a copy of key for the address, wiping any previous entry.
func (c *KeyCache) Put(address string, key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.entries[address]; ok {
		prev.buf.Destroy()
	}

	now := time.Now()
	c.entries[address] = &cacheEntry{
		buf:        NewSecureBufferFrom(key),
		cachedAt:   now,
		lastAccess: now,
	}
}

// Get returns a copy of the cached key, or nil when absent or expired.
// Expired entries are wiped and evicted on the spot.
func (c *KeyCache) Get(address string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[address]
	if !ok {
		return nil
	}

	if time.Since(entry.cachedAt) >= c.ttl {
		entry.buf.Destroy()
		delete(c.entries, address)
		return nil
	}

	entry.lastAccess = time.Now()
	return entry.buf.Bytes()
}

// Remove wipes and drops the entry for the address.
func (c *KeyCache) Remove(address string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[address]
	if !ok {
		return false
	}
	entry.buf.Destroy()
	delete(c.entries, address)
	return true
}

// RemoveExpired sweeps all expired entries and returns how many went.
func (c *KeyCache) RemoveExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for address, entry := range c.entries {
		if time.Since(entry.cachedAt) >= c.ttl {
			entry.buf.Destroy()
			delete(c.entries, address)
			removed++
		}
	}
	return removed
}

// Clear wipes every entry.
func (c *KeyCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for address, entry := range c.entries {
		entry.buf.Destroy()
		delete(c.entries, address)
	}
}

// Len returns the number of live entries, expired or not.
func (c *KeyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
