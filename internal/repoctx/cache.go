package repoctx

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Cache stores previously extracted context blobs keyed by repository
// path. Entries are write-once for the process lifetime: there is no
// TTL and no invalidation, so a long-running process serves the context
// extracted at first use. Same-key races converge because the extractor
// is idempotent; last write wins.
type Cache struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// cacheKey is a stable hash of the repository path.
func cacheKey(repoPath string) string {
	sum := sha256.Sum256([]byte(repoPath))
	return hex.EncodeToString(sum[:])
}

// GetOrExtract returns the cached context for repoPath, computing and
// storing it via extract on a miss. The lock is not held across the
// extraction; concurrent misses on the same key each extract and the
// last one stored wins.
func (c *Cache) GetOrExtract(repoPath string, extract func(string) (string, error)) (string, error) {
	key := cacheKey(repoPath)

	c.mu.Lock()
	if cached, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	text, err := extract(repoPath)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[key] = text
	c.mu.Unlock()

	return text, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
