package embedding

import (
	"container/list"
	"context"
	"hash/fnv"
	"sync"

	"orgpilot/internal/domain"
)

// cacheEntry pairs a text hash with its vector in the LRU list.
type cacheEntry struct {
	key uint64
	vec []float32
}

// QueryCache wraps an EmbeddingProvider with an LRU cache for single-text
// calls. Search queries repeat often while indexing batches do not, so
// batch calls pass through uncached.
type QueryCache struct {
	inner domain.EmbeddingProvider
	cap   int

	mu      sync.Mutex
	entries map[uint64]*list.Element
	order   *list.List // most-recently-used at the front
}

// NewQueryCache wraps inner with an LRU cache of capacity entries.
// A capacity <= 0 disables caching and returns inner unchanged.
func NewQueryCache(inner domain.EmbeddingProvider, capacity int) domain.EmbeddingProvider {
	if capacity <= 0 {
		return inner
	}
	return &QueryCache{
		inner:   inner,
		cap:     capacity,
		entries: make(map[uint64]*list.Element, capacity),
		order:   list.New(),
	}
}

// Embed implements domain.EmbeddingProvider.
func (c *QueryCache) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) != 1 {
		return c.inner.Embed(ctx, texts)
	}

	key := hashText(texts[0])

	c.mu.Lock()
	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		vec := elem.Value.(*cacheEntry).vec
		c.mu.Unlock()
		return [][]float32{vec}, nil
	}
	c.mu.Unlock()

	vecs, err := c.inner.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return vecs, nil
	}

	c.mu.Lock()
	c.store(key, vecs[0])
	c.mu.Unlock()
	return vecs, nil
}

// Dimensions implements domain.EmbeddingProvider.
func (c *QueryCache) Dimensions() int { return c.inner.Dimensions() }

// Name implements domain.EmbeddingProvider.
func (c *QueryCache) Name() string { return c.inner.Name() }

// store inserts a vector, evicting the least-recently-used entry at capacity.
// Caller holds c.mu.
func (c *QueryCache) store(key uint64, vec []float32) {
	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheEntry).vec = vec
		c.order.MoveToFront(elem)
		return
	}
	if c.order.Len() >= c.cap {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, vec: vec})
}

func hashText(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

var _ domain.EmbeddingProvider = (*QueryCache)(nil)
