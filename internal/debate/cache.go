package debate

import (
	"fmt"
	"time"

	"github.com/karlseguin/ccache/v3"
)

const (
	defaultCacheSize = 1_000
	defaultCacheTTL  = 10 * time.Minute
)

// resultCache memoizes judge and hint responses. Keys come from Fingerprint,
// so any change to the exchange or the draft misses.
type resultCache struct {
	c   *ccache.Cache[any]
	ttl time.Duration
}

func newResultCache(size int64, ttl time.Duration) *resultCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &resultCache{
		c:   ccache.New(ccache.Configure[any]().MaxSize(size).ItemsToPrune(uint32(max(size/10, 1)))),
		ttl: ttl,
	}
}

func (r *resultCache) get(key string) (any, bool) {
	item := r.c.Get(key)
	if item == nil || item.Expired() {
		return nil, false
	}
	return item.Value(), true
}

func (r *resultCache) set(key string, v any) {
	r.c.Set(key, v, r.ttl)
}

func (r *resultCache) stop() {
	r.c.Stop()
}

// Fingerprint identifies an operation over a session's state. Two calls with
// the same fingerprint would send the same prompt.
func Fingerprint(op string, s *Session, draft string) string {
	return fmt.Sprintf("%s|%s|%d|%s", op, s.ID, len(s.Turns), draft)
}
