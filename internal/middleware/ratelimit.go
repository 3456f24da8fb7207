// internal/middleware/ratelimit.go
package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dalemusser/dotmail/internal/httpapi/respond"
	"github.com/dalemusser/dotmail/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per client IP. Buckets idle for
// longer than the TTL are dropped by Cleanup.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	ttl   time.Duration

	mu      sync.Mutex
	clients map[string]*client
	now     func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows rps requests per second per client with the given
// burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		ttl:     10 * time.Minute,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// Allow reports whether key may make a request now.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = c
	}
	now := l.now()
	c.lastSeen = now
	l.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

// Cleanup removes buckets not seen within the TTL and returns how many were
// removed.
func (l *RateLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.ttl)
	n := 0
	for k, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, k)
			n++
		}
	}
	return n
}

// Run calls Cleanup every interval until ctx is done.
func (l *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Cleanup()
		}
	}
}

// Len returns the number of tracked clients.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// RateLimit rejects requests over the per-client limit with 429. rps <= 0
// disables limiting. Clients are keyed by RemoteAddr, so behind a reverse
// proxy every request shares the proxy's bucket unless trust_proxy_headers
// is enabled.
func RateLimit(rps float64, burst int, logger *zap.Logger) func(next http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return RateLimitWith(NewRateLimiter(rps, burst), logger)
}

// RateLimitWith is RateLimit with a caller-owned limiter.
func RateLimitWith(l *RateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	retryAfter := "1"
	if l.rps > 0 && l.rps < 1 {
		retryAfter = strconv.Itoa(int(1/float64(l.rps) + 0.5))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !l.Allow(key) {
				metrics.Rejected(metrics.ReasonRateLimited)
				logger.Debug("rate limited", zap.String("client", key), zap.String("path", r.URL.Path))
				w.Header().Set("Retry-After", retryAfter)
				respond.Error(w, http.StatusTooManyRequests, "rate_limited", "Too many requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey is the request's IP without port. It reads RemoteAddr only;
// forwarding headers count solely when the router ran chi's RealIP, which it
// does only with trust_proxy_headers enabled behind a trusted proxy.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
