package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RealIP extracts the client address, preferring X-Forwarded-For when the
// instance sits behind a reverse proxy.
func RealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type window struct {
	count    int
	resetsAt time.Time
}

// RateLimiter is a fixed-window in-memory limiter, keyed by caller.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{windows: make(map[string]*window)}
}

// Allow reports whether the key is under its limit for the current window.
func (rl *RateLimiter) Allow(key string, limit int, span time.Duration) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[key]
	if !ok || now.After(w.resetsAt) {
		rl.windows[key] = &window{count: 1, resetsAt: now.Add(span)}
		return true
	}
	w.count++
	return w.count <= limit
}

// Cleanup drops expired windows. Called from the housekeeping loop.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, w := range rl.windows {
		if now.After(w.resetsAt) {
			delete(rl.windows, key)
		}
	}
}

// RateLimit wraps a handler with per-key limiting. Used on the login and
// register endpoints to slow credential guessing.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string, limit int, span time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(keyFunc(r), limit, span) {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
