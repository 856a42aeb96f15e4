package httpmiddleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitConfig controls the per-client fixed-window rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window. Zero disables the
	// limiter.
	Max int
	// Window is the duration of one counting window.
	Window time.Duration
}

// clientWindow tracks request counts for one client in the current window.
type clientWindow struct {
	count   int
	resetAt time.Time
}

type rateLimiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	clients map[string]*clientWindow
}

// allow records a request for the client and reports whether it fits the
// window, plus the seconds until the window resets.
func (l *rateLimiter) allow(client string, now time.Time) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.clients[client]
	if !ok || now.After(w.resetAt) {
		w = &clientWindow{resetAt: now.Add(l.cfg.Window)}
		l.clients[client] = w
	}
	w.count++
	retryAfter := int(time.Until(w.resetAt).Seconds()) + 1
	return w.count <= l.cfg.Max, retryAfter
}

// cleanup drops windows that expired before now.
func (l *rateLimiter) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for client, w := range l.clients {
		if now.After(w.resetAt) {
			delete(l.clients, client)
		}
	}
}

// RateLimitWithCleanup returns a per-client-IP rate limiting middleware and
// starts a background goroutine that evicts idle clients until ctx is
// cancelled. Requests over the limit receive 429 with a Retry-After header.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	l := &rateLimiter{
		cfg:     cfg,
		clients: make(map[string]*clientWindow),
	}

	go func() {
		ticker := time.NewTicker(cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.cleanup(now)
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retryAfter := l.allow(clientAddr(r), time.Now())
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr extracts the client IP, ignoring the port.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
