package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hospitalhub/profile-intake/internal/utils"
	"github.com/hospitalhub/profile-intake/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an idle client keeps its bucket
const limiterIdleTTL = 10 * time.Minute

// RateLimiter hands out one token bucket per route and client IP
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	clients *gocache.Cache
	metrics *metrics.Metrics
}

// NewRateLimiter allows perMinute requests per route and client IP with the given burst
func NewRateLimiter(perMinute, burst int, m *metrics.Metrics) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		clients: gocache.New(limiterIdleTTL, limiterIdleTTL),
		metrics: m,
	}
}

func (l *RateLimiter) limiterFor(key string) *rate.Limiter {
	if v, ok := l.clients.Get(key); ok {
		limiter := v.(*rate.Limiter)
		// touch so active clients are not evicted
		l.clients.SetDefault(key, limiter)
		return limiter
	}

	limiter := rate.NewLimiter(l.limit, l.burst)
	if err := l.clients.Add(key, limiter, gocache.DefaultExpiration); err != nil {
		// another request created it first
		if v, ok := l.clients.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// Allow reports whether the client may make a request to route now
func (l *RateLimiter) Allow(route, clientIP string) bool {
	return l.limiterFor(bucketKey(route, clientIP)).Allow()
}

func bucketKey(route, clientIP string) string {
	return route + "|" + clientIP
}

// Middleware rejects requests over the limit with 429
func (l *RateLimiter) Middleware(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := l.limiterFor(bucketKey(route, utils.GetRealIP(c)))
		if limiter.Allow() {
			c.Next()
			return
		}

		l.metrics.RecordRateLimited(route)
		retryAfter := time.Duration(float64(time.Second) / float64(l.limit))
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"error":   "Too many requests. Please try again shortly.",
		})
	}
}
