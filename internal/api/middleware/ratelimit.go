package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"library-loan/internal/config"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// WindowCounter is the part of the Redis client used for fixed window counting.
type WindowCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

var _ WindowCounter = (*redis.Client)(nil)

// RateLimiterMiddleware counts requests per client IP in Redis when a client is
// configured, and in process with token buckets otherwise.
type RateLimiterMiddleware struct {
	counter  WindowCounter
	limiters sync.Map
	cfg      config.RateLimitConfig
	logger   *slog.Logger
	window   time.Duration
}

func NewRateLimiterMiddleware(cfg config.RateLimitConfig, counter WindowCounter, logger *slog.Logger) *RateLimiterMiddleware {
	logger = logger.With("component", "RateLimiter")
	rl := &RateLimiterMiddleware{
		counter: counter,
		cfg:     cfg,
		logger:  logger,
		window:  1 * time.Second,
	}

	switch {
	case !cfg.Enabled:
		logger.Info("Rate limiting is disabled via configuration.")
	case counter == nil:
		logger.Warn("No Redis client provided; rate limiting falls back to in-process limiters.", "rps", cfg.RPS, "burst", cfg.Burst)
		go rl.cleanupLimiters()
	default:
		logger.Info("Rate limiter middleware configured", "rps", cfg.RPS, "window", rl.window)
	}

	return rl
}

func (rl *RateLimiterMiddleware) limit() int64 {
	return int64(math.Max(1, math.Ceil(rl.cfg.RPS)))
}

func (rl *RateLimiterMiddleware) getLimiter(ip string) *rate.Limiter {
	burst := rl.cfg.Burst
	if burst <= 0 {
		burst = int(rl.limit())
	}
	limiter, _ := rl.limiters.LoadOrStore(ip, rate.NewLimiter(rate.Limit(rl.cfg.RPS), burst))
	return limiter.(*rate.Limiter)
}

func (rl *RateLimiterMiddleware) cleanupLimiters() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.limiters.Range(func(key, value interface{}) bool {
			limiter := value.(*rate.Limiter)
			if limiter.Tokens() >= float64(limiter.Burst()) {
				rl.limiters.Delete(key)
			}
			return true
		})
	}
}

func (rl *RateLimiterMiddleware) extractIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if xRealIP != "" && net.ParseIP(xRealIP) != nil {
		return xRealIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return ip
	}
	return r.RemoteAddr
}

// allowInRedis reports whether the request fits in the current window. Redis
// errors let the request through.
func (rl *RateLimiterMiddleware) allowInRedis(ctx context.Context, ip string) bool {
	key := fmt.Sprintf("ratelimit:%s", ip)

	count, err := rl.counter.Incr(ctx, key).Result()
	if err != nil {
		rl.logger.ErrorContext(ctx, "Redis INCR failed during rate limiting check", "error", err, "ip", ip, "key", key)
		return true
	}
	if count == 1 {
		if err := rl.counter.Expire(ctx, key, rl.window).Err(); err != nil {
			rl.logger.ErrorContext(ctx, "Failed to set Redis EXPIRE for rate limit key", "error", err, "ip", ip, "key", key)
		}
	}
	return count <= rl.limit()
}

func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.extractIP(r)

		var allowed bool
		if rl.counter != nil {
			allowed = rl.allowInRedis(r.Context(), ip)
		} else {
			allowed = rl.getLimiter(ip).Allow()
		}

		if !allowed {
			rl.logger.WarnContext(r.Context(), "Rate limit exceeded", "ip", ip)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", rl.window.Seconds()))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{
					"message": "Rate limit exceeded",
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
