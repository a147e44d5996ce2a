package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zenGate-Global/wedding-admin/platform/go/httpapi"
	platformlogging "github.com/zenGate-Global/wedding-admin/platform/go/logging"
	"github.com/zenGate-Global/wedding-admin/platform/go/requesttrace"
)

// RateLimitConfig describes a fixed-window limit keyed by caller.
type RateLimitConfig struct {
	// Name namespaces the counter, e.g. "rsvp-export".
	Name   string
	Limit  int
	Window time.Duration
}

// RateLimit counts requests per caller in Redis with INCR and EXPIRE.
// Authenticated callers are keyed by user id and anonymous ones by remote address.
// Redis failures let the request through.
func RateLimit(rdb redis.Cmdable, cfg RateLimitConfig, base *zap.Logger) func(http.Handler) http.Handler {
	if rdb == nil || cfg.Limit <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if base == nil {
		base = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := platformlogging.FromContextOr(ctx, base)
			key := rateLimitKey(cfg.Name, r)

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				logger.Warn("rate limit counter unavailable", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				if err := rdb.Expire(ctx, key, cfg.Window).Err(); err != nil {
					logger.Warn("rate limit expiry failed", zap.String("key", key), zap.Error(err))
				}
			}

			remaining := int64(cfg.Limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(cfg.Limit) {
				ttl, err := rdb.TTL(ctx, key).Result()
				if err != nil || ttl <= 0 {
					ttl = cfg.Window
				}
				retryAfter := int(math.Ceil(ttl.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				logger.Info("rate limit exceeded", zap.String("key", key), zap.Int64("count", count))
				httpapi.WriteProblem(w, httpapi.NewProblem(http.StatusTooManyRequests, "Too many requests",
					"rate limit exceeded, retry after "+strconv.Itoa(retryAfter)+" seconds"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(name string, r *http.Request) string {
	caller := "anon:" + remoteHost(r.RemoteAddr)
	if audit, ok := requesttrace.FromContext(r.Context()); ok && audit.UserID != nil {
		caller = "user:" + *audit.UserID
	}
	return strings.Join([]string{"ratelimit", name, caller}, ":")
}

func remoteHost(addr string) string {
	if i := strings.LastIndex(addr, ":"); i > 0 {
		return addr[:i]
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}
