// internal/app/bootstrap/seed.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/crewhub/internal/app/store/memstore"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// seedDemo loads a small crew into the memory store so the API can be
// exercised without a directory service.
func seedDemo(db *memstore.DB, logger *zap.Logger) ([]models.User, models.Job) {
	now := time.Now().UTC()
	orgID := primitive.NewObjectID()

	people := []struct{ name, role string }{
		{"Dana Owner", "owner"},
		{"Frank Foreman", "admin"},
		{"Wes Worker", "worker"},
	}
	users := make([]models.User, 0, len(people))
	for _, p := range people {
		u := models.User{
			ID:             primitive.NewObjectID(),
			OrganizationID: orgID,
			FullName:       p.name,
			FullNameCI:     text.Fold(p.name),
			Role:           p.role,
			Status:         "active",
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		db.PutUser(u)
		users = append(users, u)
		logger.Info("seeded demo user",
			zap.String("user_id", u.ID.Hex()),
			zap.String("name", u.FullName),
			zap.String("role", u.Role))
	}

	job := models.Job{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		Name:           "Kitchen remodel - 14 Elm St",
		Status:         "active",
		CreatedAt:      now,
	}
	db.PutJob(job)
	logger.Info("seeded demo job",
		zap.String("organization_id", orgID.Hex()),
		zap.String("job_id", job.ID.Hex()))

	return users, job
}
