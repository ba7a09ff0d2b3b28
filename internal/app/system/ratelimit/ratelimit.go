// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Limiter counts requests per key in fixed windows. It is safe for
// concurrent use. Expired windows are swept during Allow, so a Limiter owns
// no goroutine.
type Limiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	limit     int           // max requests per window
	duration  time.Duration // window duration
	nextSweep time.Time
	now       func() time.Time
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per duration for each key.
func New(limit int, duration time.Duration) *Limiter {
	return &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
	}
}

// Allow reports whether a request for key fits in the current window and
// counts it when it does.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	w, exists := l.windows[key]
	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// RetryAfter returns how long until key's window resets; zero when key is
// not limited.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[key]
	if !exists || now.After(w.expiresAt) || w.count < l.limit {
		return 0
	}
	return w.expiresAt.Sub(now)
}

// sweepLocked drops expired windows at most once per duration. Caller holds mu.
func (l *Limiter) sweepLocked(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for key, w := range l.windows {
		if now.After(w.expiresAt) {
			delete(l.windows, key)
		}
	}
	l.nextSweep = now.Add(l.duration)
}

// Middleware rejects requests over the limit with 429. key picks the bucket;
// an empty key is not limited.
func (l *Limiter) Middleware(key func(*http.Request) string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" || l.Allow(k) {
				next.ServeHTTP(w, r)
				return
			}
			retry := l.RetryAfter(k)
			secs := int((retry + time.Second - 1) / time.Second)
			if secs < 1 {
				secs = 1
			}
			logger.Debug("rate limited", zap.String("key", k), zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limited"}` + "\n"))
		})
	}
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}
