package specsum

import (
	"hash/fnv"

	lru "github.com/hashicorp/golang-lru/v2"

	"pcadvisor/internal/model"
)

type cacheKey struct {
	partID   int64
	category model.Category
	blobHash uint64
}

// Cache memoizes digests per part and blob content. A changed blob yields a
// new key, so stale digests are never served.
type Cache struct {
	digests *lru.Cache[cacheKey, string]
}

// NewCache returns a digest cache holding at most size entries.
func NewCache(size int) (*Cache, error) {
	c, err := lru.New[cacheKey, string](size)
	if err != nil {
		return nil, err
	}
	return &Cache{digests: c}, nil
}

// Digest returns Summarize(p.Category, p.Specs), computing it at most once
// per cached key.
func (c *Cache) Digest(p model.Part) string {
	h := fnv.New64a()
	h.Write([]byte(p.Specs))
	key := cacheKey{partID: p.ID, category: p.Category, blobHash: h.Sum64()}

	if d, ok := c.digests.Get(key); ok {
		return d
	}
	d := Summarize(p.Category, p.Specs)
	c.digests.Add(key, d)
	return d
}

// Len reports the number of cached digests.
func (c *Cache) Len() int { return c.digests.Len() }
