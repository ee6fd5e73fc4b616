package httpserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// perCaller keeps one token bucket per user (or client IP for anonymous
// calls). Buckets idle for ten minutes are dropped on the next sweep.
type perCaller struct {
	mu       sync.Mutex
	limiters map[string]*callerLimiter
	limit    rate.Limit
	burst    int
	swept    time.Time
}

type callerLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

func newPerCaller(perMinute int) *perCaller {
	return &perCaller{
		limiters: map[string]*callerLimiter{},
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		swept:    time.Now(),
	}
}

func (p *perCaller) allow(key string) bool {
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	if now.Sub(p.swept) > time.Minute {
		for k, l := range p.limiters {
			if now.Sub(l.seen) > 10*time.Minute {
				delete(p.limiters, k)
			}
		}
		p.swept = now
	}
	l, ok := p.limiters[key]
	if !ok {
		l = &callerLimiter{lim: rate.NewLimiter(p.limit, p.burst)}
		p.limiters[key] = l
	}
	l.seen = now
	return l.lim.Allow()
}

// rateLimit caps requests per caller per minute. perMinute <= 0 disables it.
func rateLimit(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	buckets := newPerCaller(perMinute)
	return func(c *gin.Context) {
		key := c.ClientIP()
		if id := actor(c); id.Authenticated() {
			key = "user:" + id.UserID
		}
		if !buckets.allow(key) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "too many requests, try again later",
			})
			return
		}
		c.Next()
	}
}
