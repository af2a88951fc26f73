package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/EvTKi/Obrabotka-Jeka-remake/internal/server/response"
)

// RateLimiter is a fixed-window limiter keyed by client IP. Idle visitors
// expire from the cache.
type RateLimiter struct {
	visitors *cache.Cache
	limit    int // requests per window
	window   time.Duration
	now      func() time.Time
	logger   *zerolog.Logger
}

// visitor tracks rate limit state for a single IP.
type visitor struct {
	mu      sync.Mutex
	tokens  int
	resetAt time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per minute per IP.
func NewRateLimiter(limit int, logger *zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		visitors: cache.New(10*time.Minute, 5*time.Minute),
		limit:    limit,
		window:   time.Minute,
		now:      time.Now,
		logger:   logger,
	}
}

func (rl *RateLimiter) visitor(ip string) *visitor {
	if v, ok := rl.visitors.Get(ip); ok {
		return v.(*visitor)
	}
	v := &visitor{tokens: rl.limit, resetAt: rl.now().Add(rl.window)}
	if err := rl.visitors.Add(ip, v, cache.DefaultExpiration); err != nil {
		// lost the race to another request from the same ip
		if existing, ok := rl.visitors.Get(ip); ok {
			return existing.(*visitor)
		}
		rl.visitors.SetDefault(ip, v)
	}
	return v
}

// Allow reports whether a request from ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	v := rl.visitor(ip)

	v.mu.Lock()
	defer v.mu.Unlock()

	now := rl.now()
	if !now.Before(v.resetAt) {
		v.tokens = rl.limit
		v.resetAt = now.Add(rl.window)
	}
	if v.tokens > 0 {
		v.tokens--
		return true
	}
	return false
}

// RateLimit limits requests per client IP.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !rl.Allow(ip) {
				rl.logger.Warn().
					Str("ip", ip).
					Str("path", r.URL.Path).
					Msg("Rate limit exceeded")
				w.Header().Set("Retry-After", "60")
				response.RateLimited(w, "Too many requests. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, then the remote host.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
