// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a person in an organization's directory (owner, office staff,
// foreman, worker). The chat core only reads it.
type User struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	FullName       string             `bson:"full_name" json:"full_name"`
	FullNameCI     string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email          string             `bson:"email,omitempty" json:"email,omitempty"`
	Role           string             `bson:"role" json:"role"` // owner | admin | worker
	Status         string             `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
