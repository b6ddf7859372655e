package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for the scraped-article cache. Values are
// JSON-encoded scrape results keyed by article URL.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a cache key from an article URL
func CacheKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "clearvote:v2:" + hex.EncodeToString(hash[:])
}
