// Package readcache is the read-through cache behind every data read. Reads
// register under key parts and tags; mutations invalidate tags.
//
// Each tag carries a generation that is folded into the cache key.
// Invalidating a tag gives it a newer generation, so a load that started
// before the invalidation stores its result under a key no later read will
// ask for. Entries under the old key are also deleted to release memory.
//
// Generations are drawn from one counter that only grows, which lets the
// bookkeeping for a tag be dropped once no key refers to it: the tag picks
// up the current counter value on its next read, and that value is newer
// than any generation it was invalidated at.
package readcache

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/viccon/sturdyc"
	"go.uber.org/zap"
)

const (
	numShards          = 10
	evictionPercentage = 10
)

// Cache is safe for concurrent use. A nil *Cache disables caching: every
// read calls its loader.
type Cache struct {
	capacity   int
	defaultTTL time.Duration
	log        *zap.Logger

	mu      sync.Mutex
	clients map[time.Duration]*sturdyc.Client[any]
	epoch   uint64
	gens    map[string]uint64              // tag -> generation, only while it has keys
	keys    map[string]map[string]struct{} // tag -> cache keys registered under it
	keyTags map[string][]string            // cache key -> its tags
}

// New creates a Cache holding up to capacity entries per TTL class.
func New(capacity int, defaultTTL time.Duration, logger *zap.Logger) *Cache {
	if capacity <= 0 {
		capacity = 10_000
	}
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	return &Cache{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		log:        logger,
		clients:    make(map[time.Duration]*sturdyc.Client[any]),
		gens:       make(map[string]uint64),
		keys:       make(map[string]map[string]struct{}),
		keyTags:    make(map[string][]string),
	}
}

// DefaultTTL is the TTL reads use when they pass zero.
func (c *Cache) DefaultTTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.defaultTTL
}

func (c *Cache) client(ttl time.Duration) *sturdyc.Client[any] {
	if cl, ok := c.clients[ttl]; ok {
		return cl
	}
	cl := sturdyc.New[any](c.capacity, numShards, ttl, evictionPercentage)
	c.clients[ttl] = cl
	return cl
}

// register computes the generation-qualified key for (keyParts, tags) and
// records it under each tag. It returns the client for ttl.
func (c *Cache) register(keyParts []string, ttl time.Duration, tags []string) (string, *sturdyc.Client[any]) {
	sorted := append([]string(nil), tags...)
	sort.Strings(sorted)

	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	b.WriteString(strings.Join(keyParts, "|"))
	for _, t := range sorted {
		g, ok := c.gens[t]
		if !ok {
			g = c.epoch
			c.gens[t] = g
		}
		b.WriteString("#")
		b.WriteString(t)
		b.WriteString("@")
		b.WriteString(strconv.FormatUint(g, 10))
	}
	key := b.String()

	if _, ok := c.keyTags[key]; !ok {
		c.keyTags[key] = sorted
	}
	for _, t := range sorted {
		set, ok := c.keys[t]
		if !ok {
			set = make(map[string]struct{})
			c.keys[t] = set
		}
		set[key] = struct{}{}
	}
	return key, c.client(ttl)
}

// ReadThrough returns the cached value for keyParts if one is live and none
// of its tags has been invalidated since it was stored. Otherwise it runs
// loader, caches the result for ttl (zero means the default TTL) and
// returns it. Loader errors are returned and never cached. Concurrent
// misses on the same key share a single loader call.
func ReadThrough[T any](ctx context.Context, c *Cache, keyParts []string, ttl time.Duration, tags []string, loader func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return loader(ctx)
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	key, cl := c.register(keyParts, ttl, tags)
	v, err := cl.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("readcache: key %q holds %T", key, v)
	}
	return out, nil
}

// forget drops key from the key set of every tag it was registered under,
// and drops a tag's bookkeeping once its set is empty. c.mu must be held.
func (c *Cache) forget(key string) {
	for _, t := range c.keyTags[key] {
		set := c.keys[t]
		delete(set, key)
		if len(set) == 0 {
			delete(c.keys, t)
			delete(c.gens, t)
		}
	}
	delete(c.keyTags, key)
}

// InvalidateTags expires every entry registered under any of tags.
func (c *Cache) InvalidateTags(tags ...string) {
	if c == nil || len(tags) == 0 {
		return
	}

	c.mu.Lock()
	c.epoch++
	var stale []string
	for _, t := range tags {
		for k := range c.keys[t] {
			stale = append(stale, k)
			c.forget(k)
		}
		delete(c.keys, t)
		delete(c.gens, t)
	}
	clients := make([]*sturdyc.Client[any], 0, len(c.clients))
	for _, cl := range c.clients {
		clients = append(clients, cl)
	}
	c.mu.Unlock()

	for _, cl := range clients {
		for _, k := range stale {
			cl.Delete(k)
		}
	}
	c.log.Debug("cache tags invalidated", zap.Strings("tags", tags), zap.Int("entries", len(stale)))
}
