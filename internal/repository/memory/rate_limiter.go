package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per user. Idle buckets expire.
type RateLimiter struct {
	cache *cache.Cache
	limit rate.Limit
	burst int
	mu    sync.Mutex
}

// NewRateLimiter allows perMinute requests per user with a matching burst.
// A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	r := &RateLimiter{
		cache: cache.New(10*time.Minute, 5*time.Minute),
		limit: rate.Inf,
		burst: 1,
	}
	if perMinute > 0 {
		r.limit = rate.Every(time.Minute / time.Duration(perMinute))
		r.burst = perMinute
	}
	return r
}

func (r *RateLimiter) Allow(userId uuid.UUID) bool {
	if r.limit == rate.Inf {
		return true
	}

	key := userId.String()
	r.mu.Lock()
	var limiter *rate.Limiter
	if x, found := r.cache.Get(key); found {
		limiter = x.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(r.limit, r.burst)
	}
	r.cache.Set(key, limiter, cache.DefaultExpiration)
	r.mu.Unlock()

	return limiter.Allow()
}
