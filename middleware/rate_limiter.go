package middleware

import (
	"net/http"
	"sync"

	"bookline/config"
	"bookline/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// LimiterStore hands out one token bucket per key. The webhook flow keys
// it by customer phone number; the HTTP middleware keys it by client IP.
type LimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewLimiterStore builds a store allowing perMinute events per key.
func NewLimiterStore(perMinute int) *LimiterStore {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &LimiterStore{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
	}
}

// Allow reports whether a request under the key fits the budget.
func (s *LimiterStore) Allow(key string) bool {
	s.mu.Lock()
	limiter, exists := s.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(s.rps, s.burst)
		s.limiters[key] = limiter
	}
	s.mu.Unlock()
	return limiter.Allow()
}

// RateLimit is the gin middleware variant, keyed by client IP.
func RateLimit() gin.HandlerFunc {
	store := NewLimiterStore(config.AppConfig.MaxRequestsPerMin)
	return func(c *gin.Context) {
		if !store.Allow(c.ClientIP()) {
			utils.JSONError(c, http.StatusTooManyRequests, "too many requests", "")
			c.Abort()
			return
		}
		c.Next()
	}
}
