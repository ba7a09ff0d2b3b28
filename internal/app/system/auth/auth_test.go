package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestRequireSignedIn_NoUser_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest("GET", "/api/chat/channels", nil)
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("expected JSON content type, got %q", ct)
	}
}

func TestRequireSignedIn_WithUser_Proceeds(t *testing.T) {
	sm := newTestSessionManager(t)

	req := withTestUser(httptest.NewRequest("GET", "/api/chat/channels", nil), "worker")
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestSignIn_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/", nil)
	want := &auth.SessionUser{
		ID:             "507f1f77bcf86cd799439011",
		Name:           "Rosa Diaz",
		Role:           "worker",
		OrganizationID: "507f1f77bcf86cd799439012",
	}
	if err := sm.SignIn(rec, req, want); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	next := httptest.NewRequest("GET", "/", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}

	var got *auth.SessionUser
	h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	h.ServeHTTP(httptest.NewRecorder(), next)

	if got == nil {
		t.Fatal("expected user in context")
	}
	if *got != *want {
		t.Errorf("got %+v, want %+v", *got, *want)
	}
}

type stubFetcher struct{ user *auth.SessionUser }

func (f stubFetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	return f.user
}

func TestLoadSessionUser_FetcherNil_SignsOut(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(stubFetcher{})

	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest("POST", "/", nil), &auth.SessionUser{ID: "507f1f77bcf86cd799439011"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	next := httptest.NewRequest("GET", "/", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}

	found := true
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), next)

	if found {
		t.Error("expected no user when fetcher returns nil")
	}
}

func TestLoadSessionUser_GarbageCookie(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "test-session", Value: "not-a-valid-cookie"})

	called := false
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := auth.CurrentUser(r); ok {
			t.Error("expected no user for undecodable cookie")
		}
	})).ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("expected next handler to run")
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	user, ok := auth.CurrentUser(httptest.NewRequest("GET", "/", nil))
	if ok {
		t.Error("expected ok to be false when no user in context")
	}
	if user != nil {
		t.Error("expected user to be nil when no user in context")
	}
}

// withTestUser injects a SessionUser into the request context for testing.
func withTestUser(r *http.Request, role string) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:   "507f1f77bcf86cd799439011",
		Name: "Test User",
		Role: role,
	})
}
