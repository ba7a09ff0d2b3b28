package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(limit int, d time.Duration) (*Limiter, *fakeClock) {
	c := &fakeClock{t: time.Date(2024, 6, 3, 7, 0, 0, 0, time.UTC)}
	l := New(limit, d)
	l.now = c.now
	return l, c
}

func TestAllow_WindowResets(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)

	if !l.Allow("u1") || !l.Allow("u1") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("u1") {
		t.Error("third request should be limited")
	}
	if !l.Allow("u2") {
		t.Error("other keys have their own window")
	}
	if got := l.RetryAfter("u1"); got != time.Minute {
		t.Errorf("RetryAfter: got %v, want 1m", got)
	}

	clock.t = clock.t.Add(time.Minute + time.Second)
	if !l.Allow("u1") {
		t.Error("request after window should pass")
	}
	if got := l.RetryAfter("u1"); got != 0 {
		t.Errorf("RetryAfter when not limited: got %v", got)
	}
}

func TestAllow_SweepsExpired(t *testing.T) {
	l, clock := newTestLimiter(1, time.Second)
	for _, k := range []string{"a", "b", "c"} {
		l.Allow(k)
	}
	clock.t = clock.t.Add(2 * time.Second)
	l.Allow("d")
	if n := len(l.windows); n != 1 {
		t.Errorf("expected expired windows swept, %d left", n)
	}
}

func TestMiddleware(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := l.Middleware(func(r *http.Request) string { return r.Header.Get("X-User") }, zap.NewNop())(next)

	do := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/messages", nil)
		if user != "" {
			req.Header.Set("X-User", user)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("u1"); rec.Code != http.StatusNoContent {
		t.Fatalf("first request: got %d", rec.Code)
	}
	rec := do("u1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After: got %q", rec.Header().Get("Retry-After"))
	}
	for i := 0; i < 3; i++ {
		if rec := do(""); rec.Code != http.StatusNoContent {
			t.Errorf("empty key should not be limited, got %d", rec.Code)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.7 "}, "10.0.0.2:1234", "198.51.100.7"},
		{"remote addr", nil, "192.0.2.9:5555", "192.0.2.9"},
		{"remote addr without port", nil, "192.0.2.9", "192.0.2.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP: got %q, want %q", got, tt.want)
			}
		})
	}
}
