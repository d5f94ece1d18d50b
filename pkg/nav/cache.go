package nav

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/menu"
	"github.com/Ardanrestun/FESIMPEGAWAI/pkg/observability"
)

// DefaultFetchTimeout bounds a shared fetch once it no longer follows the
// request that started it
const DefaultFetchTimeout = 10 * time.Second

// CachedSource keeps recently fetched menu trees per token for a short TTL
// and collapses concurrent fetches for the same token into one call. The
// shared fetch is detached from the cancellation of whichever request
// started it; each caller still stops waiting when its own context ends.
type CachedSource struct {
	source       MenuSource
	cache        *expirable.LRU[string, menu.Tree]
	group        singleflight.Group
	fetchTimeout time.Duration
	metrics      *observability.Metrics
}

// NewCachedSource wraps source. metrics may be nil.
func NewCachedSource(source MenuSource, size int, ttl time.Duration, metrics *observability.Metrics) *CachedSource {
	if size <= 0 {
		size = 1024
	}
	return &CachedSource{
		source:       source,
		cache:        expirable.NewLRU[string, menu.Tree](size, nil, ttl),
		fetchTimeout: DefaultFetchTimeout,
		metrics:      metrics,
	}
}

// cacheKey hashes the token so raw credentials are not kept as map keys
func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MenuRole implements MenuSource
func (c *CachedSource) MenuRole(ctx context.Context, token string) (menu.Tree, error) {
	key := cacheKey(token)
	if tree, ok := c.cache.Get(key); ok {
		if c.metrics != nil {
			c.metrics.MenuCacheHitsTotal.Inc()
		}
		return tree, nil
	}
	if c.metrics != nil {
		c.metrics.MenuCacheMissesTotal.Inc()
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		tree, err := c.source.MenuRole(fetchCtx, token)
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, tree)
		return tree, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(menu.Tree), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the cached tree for token
func (c *CachedSource) Invalidate(token string) {
	c.cache.Remove(cacheKey(token))
}

// Len returns the number of cached trees
func (c *CachedSource) Len() int {
	return c.cache.Len()
}
