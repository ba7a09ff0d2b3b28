package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"github.com/dalemusser/crewhub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserCtx_NoUser(t *testing.T) {
	role, name, id, ok := authz.UserCtx(httptest.NewRequest("GET", "/", nil))
	if ok {
		t.Fatal("expected ok=false without a user")
	}
	if role != "visitor" || name != "" || id != primitive.NilObjectID {
		t.Errorf("unexpected values: %q %q %v", role, name, id)
	}
}

func TestUserCtx_ValidUser(t *testing.T) {
	oid := primitive.NewObjectID()
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{
		ID:   oid.Hex(),
		Name: "Sam Foreman",
		Role: "Admin",
	})

	role, name, id, ok := authz.UserCtx(req)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if role != "admin" {
		t.Errorf("expected lowercased role, got %q", role)
	}
	if name != "Sam Foreman" {
		t.Errorf("unexpected name %q", name)
	}
	if id != oid {
		t.Errorf("expected id %v, got %v", oid, id)
	}
}

func TestUserCtx_MalformedID_FailsClosed(t *testing.T) {
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{
		ID:   "not-an-object-id",
		Role: "owner",
	})
	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Error("expected ok=false for malformed id")
	}
}
