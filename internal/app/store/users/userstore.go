// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"

	"github.com/dalemusser/crewhub/internal/app/chat"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the users collection owned by the directory module.
const Collection = "users"

// Store is the read-only directory adapter the chat core consumes.
// Disabled users still resolve (old messages keep their sender names) but
// are left out of ListOrganizationUsers.
type Store struct {
	c *mongo.Collection
}

var _ chat.Directory = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// directoryProjection limits reads to the fields chat uses.
var directoryProjection = bson.M{
	"_id":             1,
	"organization_id": 1,
	"full_name":       1,
	"role":            1,
	"status":          1,
}

// ResolveUser loads a user by id.
func (s *Store) ResolveUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	opts := options.FindOne().SetProjection(directoryProjection)
	if err := s.c.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, chat.ErrRecordNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// ResolveUsers loads the users among ids that exist.
func (s *Store) ResolveUsers(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(directoryProjection)
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}

// ListOrganizationUsers returns the ids of the organization's active users.
func (s *Store) ListOrganizationUsers(ctx context.Context, orgID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, bson.M{
		"organization_id": orgID,
		"status":          bson.M{"$ne": "disabled"},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}
