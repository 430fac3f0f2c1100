package server

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/docqa-ai/docqa-go/internal/logging"
)

const (
	// defaultRateLimit is the sustained requests/second allowed per IP when
	// no explicit limit is configured.
	defaultRateLimit = 10

	// defaultRateBurst is the per-IP burst allowance. Short spikes from an
	// interactive caller should not be rejected.
	defaultRateBurst = 20

	// evictInterval is how often stale per-IP buckets are swept.
	evictInterval = time.Minute

	// evictAfter is how long an IP may be idle before its bucket is dropped.
	evictAfter = 5 * time.Minute
)

// rateLimiter enforces a per-IP token bucket on rate-limited endpoints.
// Buckets for idle IPs are evicted periodically to bound memory.
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	rps   rate.Limit
	burst int
	log   *slog.Logger
}

// bucket pairs a token bucket with its last activity time.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newRateLimiter constructs a rateLimiter and starts its eviction goroutine.
// The goroutine exits when the returned stop function is called.
func newRateLimiter(rps float64, burst int, log *slog.Logger) (*rateLimiter, func()) {
	rl := &rateLimiter{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		log:     log,
	}

	stopCh := make(chan struct{})
	go func() {
		ticker := time.NewTicker(evictInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				rl.evict(time.Now().Add(-evictAfter))
			}
		}
	}()

	return rl, func() { close(stopCh) }
}

// allow reports whether a request from ip fits in its bucket, creating the
// bucket on first sight.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[ip] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

// evict drops every bucket idle since before the cutoff.
func (rl *rateLimiter) evict(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, ip)
		}
	}
}

// middleware rejects over-limit requests with 429 and a Retry-After header
// before they reach the answer pipeline, which holds a model call open for
// the whole request.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.allow(ip) {
			logging.FromContext(r.Context()).Warn("rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr. X-Forwarded-For is not
// consulted; the server binds to localhost.
func clientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		return addr[:i]
	}
	return addr
}
