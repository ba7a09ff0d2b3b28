package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
	userName  = "user_name"
	userRole  = "user_role"
	userOrgID = "user_org_id"
)

// SessionUser is what we cache in the session & inject into r.Context().
type SessionUser struct {
	ID               string
	Name             string
	Role             string
	OrganizationID   string
	OrganizationName string
}

// UserFetcher loads fresh user data for a session's user id. It returns nil
// when the user no longer exists or is disabled, which signs the session out.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

// SessionManager owns the cookie store and the middleware built on it.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	logger  *zap.Logger
}

// NewSessionManager creates the cookie store. The `secure` flag controls
// whether cookies are marked Secure and which SameSite mode is used.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "crewhub-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, logger: logger}, nil
}

// SetUserFetcher makes LoadSessionUser refresh the user on every request.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) {
	sm.fetcher = f
}

// SignIn writes u into the session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u *SessionUser) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userName] = u.Name
	sess.Values[userRole] = u.Role
	sess.Values[userOrgID] = u.OrganizationID
	return sess.Save(r, w)
}

// LoadSessionUser injects the user into context if they are signed in.
// A cookie that fails to decode (rotated key, tampering) is treated as
// signed out.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			var scErr securecookie.Error
			if errors.As(err, &scErr) && scErr.IsDecode() {
				sm.logger.Debug("session cookie rejected", zap.Error(err))
			} else {
				sm.logger.Warn("session load failed", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			id := getString(sess, userIDKey)
			var u *SessionUser
			if sm.fetcher != nil {
				u = sm.fetcher.FetchUser(r.Context(), id)
			} else {
				u = &SessionUser{
					ID:             id,
					Name:           getString(sess, userName),
					Role:           getString(sess, userRole),
					OrganizationID: getString(sess, userOrgID),
				}
			}
			if u != nil {
				r = withUser(r, u)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// The chat surface is JSON only, so callers get a 401 with an error body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		writeError(w, http.StatusUnauthorized, "unauthorized")
	})
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects u into the request context the way LoadSessionUser does.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
