package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"github.com/dalemusser/crewhub/internal/domain/models"
)

// WithUser adds u to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, u models.User) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:             u.ID.Hex(),
		Name:           u.FullName,
		Role:           u.Role,
		OrganizationID: u.OrganizationID.Hex(),
	})
}

// NewJSONRequest creates a request with body encoded as JSON. A nil body
// sends no payload.
func NewJSONRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates a JSON request with u in context.
func NewAuthenticatedRequest(method, target string, body any, u models.User) *http.Request {
	return WithUser(NewJSONRequest(method, target, body), u)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks that the response body contains expected.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("body does not contain %q: %s", expected, r.Body.String())
	}
}

// DecodeJSON decodes the response body into v.
func (r *ResponseRecorder) DecodeJSON(t interface{ Fatalf(string, ...any) }, v any) {
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, r.Body.String())
	}
}
