package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cv-builder/internal/shared/metrics"
	"cv-builder/internal/shared/server/respond"
)

const defaultRateLimitGroup = "DEFAULT"

// RateLimitRule is a token bucket refilled at Rate tokens per second.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

func (r RateLimitRule) unlimited() bool {
	return r.Rate <= 0 || r.Burst <= 0
}

// PerMinute allows n requests per minute with a burst of n.
func PerMinute(n int) RateLimitRule {
	if n <= 0 {
		return RateLimitRule{}
	}
	return RateLimitRule{Rate: float64(n) / 60.0, Burst: n}
}

// Limiter decides whether the caller identified by key may proceed, and if
// not, how long it should wait.
type Limiter interface {
	Allow(ctx context.Context, key string, rule RateLimitRule) (bool, time.Duration)
}

// RateLimitConfig maps request groups to rules. Requests whose group has no
// rule pass through untouched.
type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      Limiter
}

func (cfg RateLimitConfig) groupOf(c *gin.Context) string {
	if cfg.GroupFor != nil {
		if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
			return g
		}
	}
	return cfg.DefaultGroup
}

// RateLimit throttles each caller per group. Signed-in callers are keyed by
// user id. Guests choose their own X-Guest-Id, so they are keyed by client IP.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	return func(c *gin.Context) {
		group := cfg.groupOf(c)
		rule, ok := cfg.Rules[group]
		if !ok || rule.unlimited() {
			c.Next()
			return
		}
		allowed, wait := cfg.Limiter.Allow(c.Request.Context(), callerKey(c)+"|"+group, rule)
		if allowed {
			c.Next()
			return
		}
		rejectRateLimited(c, group, wait)
	}
}

func callerKey(c *gin.Context) string {
	if id := strings.TrimSpace(UserIDFromContext(c)); id != "" && !IsGuest(c) {
		return id
	}
	return "ip:" + c.ClientIP()
}

func rejectRateLimited(c *gin.Context, group string, wait time.Duration) {
	if wait <= 0 {
		wait = time.Second
	}
	seconds := int(math.Ceil(wait.Seconds()))
	c.Header("Retry-After", strconv.Itoa(seconds))
	metrics.IncRateLimited(group)
	respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Too many requests, try again later", gin.H{
		"group":        group,
		"retryAfterMs": wait.Milliseconds(),
	})
}
