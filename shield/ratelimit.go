package shield

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig is a fixed-window limit applied per client IP.
type RateLimitConfig struct {
	MaxRequests int           // requests allowed per window; 0 disables
	Window      time.Duration // window length (default: 1 minute)
}

type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// RateLimiter enforces a per-IP fixed-window rate limit.
type RateLimiter struct {
	cfg     RateLimitConfig
	exclude []string
	buckets sync.Map // ip -> *bucket
}

// NewRateLimiter creates a rate limiter. Paths starting with any exclude
// prefix bypass the limit (health checks, static assets).
func NewRateLimiter(cfg RateLimitConfig, excludePrefixes ...string) *RateLimiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &RateLimiter{cfg: cfg, exclude: excludePrefixes}
}

func (rl *RateLimiter) allow(ip string) bool {
	if rl.cfg.MaxRequests <= 0 {
		return true
	}

	now := time.Now()
	val, _ := rl.buckets.LoadOrStore(ip, &bucket{})
	b := val.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()
	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(rl.cfg.Window)
	}
	b.count++
	return b.count <= rl.cfg.MaxRequests
}

// Middleware is the HTTP middleware that enforces the limit.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range rl.exclude {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		ip := ExtractIP(r)
		if rl.allow(ip) {
			next.ServeHTTP(w, r)
			return
		}

		slog.Warn("ratelimit: request blocked", "ip", ip, "path", r.URL.Path)

		w.Header().Set("Retry-After", "60")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
	})
}

// ExtractIP returns the client IP from X-Forwarded-For or RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}
