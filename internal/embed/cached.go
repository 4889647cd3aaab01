package embed

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default number of vectors to cache.
// At 768 dimensions * 4 bytes * 1000 entries, roughly 3MB of memory.
const DefaultCacheSize = 1000

// CachedVectorizer wraps a Vectorizer with LRU caching so repeated texts
// (re-ingested contexts, repeated queries) skip recomputation. Cached
// vectors are returned as copies to keep callers from mutating cache state.
type CachedVectorizer struct {
	inner Vectorizer
	cache *lru.Cache[string, []float32]
}

// NewCachedVectorizer creates a cached vectorizer wrapping the given one.
// Cache size determines the number of unique texts kept in memory.
func NewCachedVectorizer(inner Vectorizer, cacheSize int) *CachedVectorizer {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](cacheSize)
	return &CachedVectorizer{
		inner: inner,
		cache: cache,
	}
}

// cacheKey hashes the text so arbitrary content maps to a fixed-length key.
func (c *CachedVectorizer) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// Vectorize returns the cached vector if available, otherwise computes and
// caches it.
func (c *CachedVectorizer) Vectorize(text string) []float32 {
	key := c.cacheKey(text)

	if vec, ok := c.cache.Get(key); ok {
		out := make([]float32, len(vec))
		copy(out, vec)
		return out
	}

	vec := c.inner.Vectorize(text)
	c.cache.Add(key, vec)

	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}

// Dimensions returns the wrapped vectorizer's dimension.
func (c *CachedVectorizer) Dimensions() int { return c.inner.Dimensions() }
