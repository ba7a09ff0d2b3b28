package userstore

import (
	"context"
	"strings"

	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"github.com/dalemusser/crewhub/internal/app/system/timeouts"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request.
type Fetcher struct {
	users *mongo.Collection
	orgs  *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{
		users: db.Collection(Collection),
		orgs:  db.Collection("organizations"),
	}
}

// FetchUser returns nil if the user is not found, disabled, or if any
// error occurs.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(directoryProjection)).Decode(&u); err != nil {
		return nil
	}
	if strings.EqualFold(strings.TrimSpace(u.Status), "disabled") {
		return nil
	}

	su := &auth.SessionUser{
		ID:             u.ID.Hex(),
		Name:           u.FullName,
		Role:           strings.ToLower(strings.TrimSpace(u.Role)),
		OrganizationID: u.OrganizationID.Hex(),
	}

	var org models.Organization
	orgProj := options.FindOne().SetProjection(bson.M{"name": 1})
	if err := f.orgs.FindOne(ctx, bson.M{"_id": u.OrganizationID}, orgProj).Decode(&org); err == nil {
		su.OrganizationName = org.Name
	}
	return su
}
