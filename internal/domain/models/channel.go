// internal/domain/models/channel.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChannelType is the kind of conversation a channel represents.
type ChannelType string

const (
	ChannelCompany ChannelType = "company"
	ChannelJob     ChannelType = "job"
	ChannelDM      ChannelType = "dm"
)

// Valid reports whether t is one of the known channel types.
func (t ChannelType) Valid() bool {
	switch t {
	case ChannelCompany, ChannelJob, ChannelDM:
		return true
	}
	return false
}

// Channel is a conversation scope inside one organization.
//
// NOTE:
//   - Participants only ever grow. Stores add members with set-union
//     semantics ($addToSet) and never remove them.
//   - DedupKey is set for singleton channels (company, dm, job) and is
//     backed by a unique index, so concurrent find-or-create calls converge
//     on one document.
//   - MessageSeq is the last sequence number handed out to a message in this
//     channel; it breaks created_at ties in message ordering.
type Channel struct {
	ID             primitive.ObjectID   `bson:"_id" json:"id"`
	OrganizationID primitive.ObjectID   `bson:"organization_id" json:"organization_id"`
	Type           ChannelType          `bson:"type" json:"type"`
	Name           string               `bson:"name,omitempty" json:"name,omitempty"`
	JobID          *primitive.ObjectID  `bson:"job_id,omitempty" json:"job_id,omitempty"`
	Participants   []primitive.ObjectID `bson:"participants" json:"participants"`
	DedupKey       string               `bson:"dedup_key,omitempty" json:"-"`
	MessageSeq     int64                `bson:"message_seq" json:"-"`
	CreatedBy      primitive.ObjectID   `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
}

// HasParticipant reports whether userID is a member of the channel.
func (c Channel) HasParticipant(userID primitive.ObjectID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
