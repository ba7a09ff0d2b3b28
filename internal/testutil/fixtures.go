package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/crewhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOrganization creates a test organization with the given name.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		TimeZone:  "America/Chicago",
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("organizations").InsertOne(ctx, org); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}

// CreateUser creates an active test user in orgID.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, role string, orgID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.insertUser(ctx, fullName, role, "active", orgID)
}

// CreateWorker is a convenience wrapper for a worker-role user.
func (f *Fixtures) CreateWorker(ctx context.Context, fullName string, orgID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, "worker", orgID)
}

// CreateDisabledUser creates a disabled user in orgID.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName string, orgID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.insertUser(ctx, fullName, "worker", "disabled", orgID)
}

func (f *Fixtures) insertUser(ctx context.Context, fullName, role, status string, orgID primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		FullName:       fullName,
		FullNameCI:     text.Fold(fullName),
		Role:           role,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateJob creates a test job in orgID.
func (f *Fixtures) CreateJob(ctx context.Context, name string, orgID primitive.ObjectID) models.Job {
	f.t.Helper()

	job := models.Job{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		Name:           name,
		Status:         "active",
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := f.db.Collection("jobs").InsertOne(ctx, job); err != nil {
		f.t.Fatalf("failed to create test job: %v", err)
	}
	return job
}
