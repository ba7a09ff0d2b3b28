// internal/domain/models/job.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Job is a piece of contracted work. Job records are owned by the jobs
// module; chat reads the name for job-type channels.
type Job struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Name           string             `bson:"name" json:"name"`
	Status         string             `bson:"status,omitempty" json:"status,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
