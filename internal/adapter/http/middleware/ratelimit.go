package middleware

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"wallet-registry/internal/core/ports"
	"wallet-registry/pkg/apperror"
	"wallet-registry/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRateLimitRules returns the per-group limits used by the router.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		"auth_login":  {Limit: 10, Window: time.Minute},
		"reads":       {Limit: 300, Window: time.Minute},
		"writes":      {Limit: 60, Window: time.Minute},
		"cache_reset": {Limit: 5, Window: time.Minute},
	}
}

// RateLimiter creates a rate-limiting middleware for a given endpoint group.
// Limiter failures let the request through.
func RateLimiter(limiter ports.RateLimiter, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", extractIdentifier(c), group)

		result, err := limiter.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractIdentifier keys authenticated callers by admin, everyone else by IP.
func extractIdentifier(c *gin.Context) string {
	if id, exists := c.Get(CtxAdminID); exists {
		return fmt.Sprintf("admin:%v", id)
	}
	return c.ClientIP()
}

const (
	localIdleTTL    = 10 * time.Minute
	localSweepAbove = 10000
)

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalRateLimiter is an in-process token bucket per key. It ignores the
// group rule and applies one rps/burst to every key.
type LocalRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	rps     rate.Limit
	burst   int
	now     func() time.Time
}

var _ ports.RateLimiter = (*LocalRateLimiter)(nil)

// NewLocalRateLimiter creates a limiter refilling rps tokens per second up to burst.
func NewLocalRateLimiter(rps, burst int) *LocalRateLimiter {
	if rps < 1 {
		rps = 1
	}
	if burst < 1 {
		burst = rps
	}
	return &LocalRateLimiter{
		entries: make(map[string]*localEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

func (l *LocalRateLimiter) Allow(_ context.Context, key string, _ int64, _ time.Duration) (*ports.RateLimitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= localSweepAbove {
			l.sweep(now)
		}
		entry = &localEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now

	allowed := entry.limiter.AllowN(now, 1)
	tokens := entry.limiter.TokensAt(now)
	remaining := int64(math.Floor(tokens))
	if remaining < 0 {
		remaining = 0
	}

	// Time until one full token is available again.
	wait := time.Duration(0)
	if tokens < 1 {
		wait = time.Duration((1 - tokens) / float64(l.rps) * float64(time.Second))
	}

	return &ports.RateLimitResult{
		Allowed:   allowed,
		Limit:     int64(l.burst),
		Remaining: remaining,
		ResetAt:   now.Add(wait).Unix() + 1,
	}, nil
}

func (l *LocalRateLimiter) sweep(now time.Time) {
	for k, e := range l.entries {
		if now.Sub(e.lastSeen) > localIdleTTL {
			delete(l.entries, k)
		}
	}
}
