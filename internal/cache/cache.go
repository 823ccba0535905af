package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores serialized force responses with a TTL.
type Cache interface {
	// Get returns the value and true if found and not expired.
	Get(key string) ([]byte, bool)

	// Set stores a value. A TTL of 0 means the cache default.
	Set(key string, value []byte, ttl time.Duration)

	// Clear removes all values from the cache.
	Clear()

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats represents cache statistics.
type Stats struct {
	Hits      uint64
	Misses    uint64
	KeysAdded uint64
	Evictions uint64
	Size      int64 // approximate size in bytes
	Items     int64
}

// Key derives a cache key from a route name and a request body. Identical
// position snapshots sent to the same route share a key.
func Key(route string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(route))
	h.Write([]byte{0})
	h.Write(body)
	return route + ":" + hex.EncodeToString(h.Sum(nil))
}
