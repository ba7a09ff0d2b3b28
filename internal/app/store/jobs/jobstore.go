// internal/app/store/jobs/jobstore.go
package jobstore

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

// Collection is the jobs collection owned by the jobs module.
const Collection = "jobs"

// Store resolves job records for job channels. Read-only.
type Store struct {
	c *mongo.Collection
}

var _ chat.Jobs = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

var jobProjection = bson.M{"_id": 1, "organization_id": 1, "name": 1, "status": 1}

// ResolveJob loads a job by id.
func (s *Store) ResolveJob(ctx context.Context, id primitive.ObjectID) (models.Job, error) {
	var j models.Job
	opts := options.FindOne().SetProjection(jobProjection)
	if err := s.c.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&j); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Job{}, chat.ErrRecordNotFound
		}
		return models.Job{}, err
	}
	return j, nil
}

// ResolveJobs loads the jobs among ids that exist.
func (s *Store) ResolveJobs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Job, error) {
	out := make(map[primitive.ObjectID]models.Job, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(jobProjection))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var j models.Job
		if err := cur.Decode(&j); err != nil {
			return nil, err
		}
		out[j.ID] = j
	}
	return out, cur.Err()
}
