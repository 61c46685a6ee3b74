package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/codebridge/codebridge/pkg/httputil"
	"github.com/codebridge/codebridge/pkg/observability"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the max requests admitted in the trailing window
	RequestsPerWindow int
	// WindowDuration is the trailing window over which requests are counted
	WindowDuration time.Duration
}

// DefaultRateLimitConfig returns the standard-tier settings
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 60,
		WindowDuration:    time.Minute,
	}
}

// StrictRateLimitConfig returns the strict-tier settings used on
// credential endpoints
func StrictRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 10,
		WindowDuration:    time.Minute,
	}
}

// RateLimiter bounds request admission per key using a sliding window of
// admission timestamps. State lives in memory only; a restart resets all
// windows.
type RateLimiter struct {
	config  *RateLimitConfig
	buckets map[string]*bucket
	mu      sync.RWMutex
	now     func() time.Time
}

type bucket struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	return &RateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow checks if a request is admitted for the given key. When admitted,
// the request's timestamp is recorded against the window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{}
		rl.buckets[key] = b
	}
	rl.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	now := rl.now()
	b.prune(now, rl.config.WindowDuration)

	if len(b.timestamps) >= rl.config.RequestsPerWindow {
		return false
	}

	b.timestamps = append(b.timestamps, now)
	return true
}

// Remaining returns how many requests the key can still make in the
// current window
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.RLock()
	b, exists := rl.buckets[key]
	rl.mu.RUnlock()

	if !exists {
		return rl.config.RequestsPerWindow
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.prune(rl.now(), rl.config.WindowDuration)
	remaining := rl.config.RequestsPerWindow - len(b.timestamps)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// resetAt is when the current window expires, on the limiter's clock
func (rl *RateLimiter) resetAt() time.Time {
	return rl.now().Add(rl.config.WindowDuration)
}

// prune drops timestamps that fell out of the trailing window
func (b *bucket) prune(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(b.timestamps) && !b.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		b.timestamps = b.timestamps[i:]
	}
}

// Cleanup removes keys with no requests in the current window
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		b.mu.Lock()
		b.prune(now, rl.config.WindowDuration)
		if len(b.timestamps) == 0 {
			delete(rl.buckets, key)
		}
		b.mu.Unlock()
	}
}

// StartCleanup starts a background goroutine to cleanup idle buckets
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = rl.config.WindowDuration
	}
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()
}

// RateLimitMiddleware applies a limiter tier to HTTP requests. Requests
// are keyed by the authenticated username when present, otherwise by
// client IP.
type RateLimitMiddleware struct {
	limiter *RateLimiter
	tier    string
	metrics *observability.Metrics
}

// NewRateLimitMiddleware creates a middleware around a limiter. The
// metrics handle may be nil.
func NewRateLimitMiddleware(limiter *RateLimiter, tier string, metrics *observability.Metrics) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		tier:    tier,
		metrics: metrics,
	}
}

// Handler wraps an HTTP handler with rate limiting
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ClientKey(r)

		if !m.limiter.Allow(key) {
			if m.metrics != nil {
				m.metrics.RateLimitRejectionsTotal.WithLabelValues(m.tier).Inc()
			}
			m.rateLimitExceeded(w)
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", m.limiter.config.RequestsPerWindow))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", m.limiter.Remaining(key)))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", m.limiter.resetAt().Unix()))

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) rateLimitExceeded(w http.ResponseWriter) {
	retryAfter := int(m.limiter.config.WindowDuration.Seconds())
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", m.limiter.config.RequestsPerWindow))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", m.limiter.resetAt().Unix()))
	httputil.WriteTooManyRequests(w, "rate limit exceeded")
}

// ClientKey derives the rate-limit key for a request: the authenticated
// username when available, otherwise the client IP.
func ClientKey(r *http.Request) string {
	if identity := GetIdentity(r); identity != nil {
		return "user:" + identity.Username
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	// First hop of X-Forwarded-For when behind a proxy
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	return r.RemoteAddr
}
