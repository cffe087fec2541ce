package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const cleanupInterval = 5 * time.Minute

// Limits configures IPRateLimiter.
type Limits struct {
	MaxConnsPerIP int           // simultaneous WebSocket connections per IP
	MsgRate       int           // messages allowed per MsgWindow
	MsgWindow     time.Duration // refill period of the token bucket
}

type visitor struct {
	connections int
	tokens      int
	lastRefill  time.Time
}

// IPRateLimiter tracks per-IP connection counts and message rates.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limits   Limits
	now      func() time.Time
}

// NewIPRateLimiter creates a limiter whose stale entries are swept until ctx
// is done.
func NewIPRateLimiter(ctx context.Context, limits Limits) *IPRateLimiter {
	rl := newIPRateLimiter(limits, time.Now)
	go rl.cleanup(ctx)
	return rl
}

func newIPRateLimiter(limits Limits, now func() time.Time) *IPRateLimiter {
	if limits.MsgWindow <= 0 {
		limits.MsgWindow = time.Second
	}
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limits:   limits,
		now:      now,
	}
}

// ConnectAllowed checks if an IP can open a new connection.
// If allowed, increments the connection count and returns true.
func (rl *IPRateLimiter) ConnectAllowed(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		rl.visitors[ip] = &visitor{
			connections: 1,
			tokens:      rl.limits.MsgRate,
			lastRefill:  rl.now(),
		}
		return true
	}
	if v.connections >= rl.limits.MaxConnsPerIP {
		return false
	}
	v.connections++
	return true
}

// Disconnect decrements the connection count for an IP.
func (rl *IPRateLimiter) Disconnect(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		return
	}
	if v.connections > 0 {
		v.connections--
	}
}

// MessageAllowed spends one token of the IP's bucket. The bucket refills
// MsgRate tokens per elapsed MsgWindow.
func (rl *IPRateLimiter) MessageAllowed(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[ip]
	if !ok {
		rl.visitors[ip] = &visitor{
			tokens:     rl.limits.MsgRate - 1,
			lastRefill: now,
		}
		return rl.limits.MsgRate > 0
	}

	if elapsed := now.Sub(v.lastRefill); elapsed >= rl.limits.MsgWindow {
		windows := int(elapsed / rl.limits.MsgWindow)
		v.tokens += windows * rl.limits.MsgRate
		if v.tokens > rl.limits.MsgRate {
			v.tokens = rl.limits.MsgRate
		}
		v.lastRefill = v.lastRefill.Add(time.Duration(windows) * rl.limits.MsgWindow)
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

func (rl *IPRateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if v.connections <= 0 {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *IPRateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-ctx.Done():
			return
		}
	}
}

// RealIP extracts the client IP, preferring the first X-Forwarded-For hop
// set by a reverse proxy.
func RealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if comma := strings.Index(xff, ","); comma > 0 {
			return strings.TrimSpace(xff[:comma])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SecurityHeaders wraps a handler with common security response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; connect-src 'self' ws: wss:; img-src 'self' data:")
		next.ServeHTTP(w, r)
	})
}

// NoCache disables browser caching so a redeployed renderer is picked up.
func NoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}
