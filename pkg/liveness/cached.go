package liveness

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/metacheck/pkg/cache"
	"github.com/matzehuels/metacheck/pkg/observability"
)

const cacheKeyType = "liveness"

// CachedChecker remembers probe results. Concurrent checks of the same URL
// under the same policy share one probe.
//
// Only probes that received an HTTP answer are stored. Transport failures
// are often transient and are probed again next time.
type CachedChecker struct {
	inner Checker
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedChecker wraps inner. A nil cache disables storage, a nil keyer
// means cache.NewDefaultKeyer, and a zero ttl stores results without expiry.
func NewCachedChecker(inner Checker, c cache.Cache, keyer cache.Keyer, ttl time.Duration) *CachedChecker {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &CachedChecker{inner: inner, cache: c, keyer: keyer, ttl: ttl}
}

// Check implements Checker.
func (c *CachedChecker) Check(ctx context.Context, url string, policy Policy) Status {
	key := c.keyer.LivenessKey(string(policy), url)
	hooks := observability.Cache()

	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var st Status
		if json.Unmarshal(data, &st) == nil {
			hooks.OnCacheHit(ctx, cacheKeyType)
			return st
		}
	}
	hooks.OnCacheMiss(ctx, cacheKeyType)

	v, _, _ := c.group.Do(key, func() (any, error) {
		st := c.inner.Check(ctx, url, policy)
		if st.StatusCode != 0 {
			if data, err := json.Marshal(st); err == nil {
				if c.cache.Set(ctx, key, data, c.ttl) == nil {
					hooks.OnCacheSet(ctx, cacheKeyType, len(data))
				}
			}
		}
		return st, nil
	})
	return v.(Status)
}

var _ Checker = (*CachedChecker)(nil)
