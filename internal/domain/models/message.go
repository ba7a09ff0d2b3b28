// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reaction is one (emoji, user) pair on a message. A message holds at most
// one entry per pair.
type Reaction struct {
	Emoji  string             `bson:"emoji" json:"emoji"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
}

// Message is a chat message in one channel.
//
// NOTE:
//   - ReadBy always contains SenderID and only grows.
//   - Soft-deleted messages keep their document; Content and AttachmentURL
//     are cleared and IsDeleted is never unset.
//   - Seq is the per-channel insertion sequence used to order messages that
//     share a CreatedAt.
type Message struct {
	ID             primitive.ObjectID   `bson:"_id" json:"id"`
	ChannelID      primitive.ObjectID   `bson:"channel_id" json:"channel_id"`
	OrganizationID primitive.ObjectID   `bson:"organization_id" json:"organization_id"`
	SenderID       primitive.ObjectID   `bson:"sender_id" json:"sender_id"`
	Content        string               `bson:"content" json:"content"`
	AttachmentURL  string               `bson:"attachment_url,omitempty" json:"attachment_url,omitempty"`
	Reactions      []Reaction           `bson:"reactions" json:"reactions"`
	ReadBy         []primitive.ObjectID `bson:"read_by" json:"read_by"`
	IsDeleted      bool                 `bson:"is_deleted" json:"is_deleted"`
	Seq            int64                `bson:"seq" json:"-"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	EditedAt       *time.Time           `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
}

// IsReadBy reports whether userID appears in the read-receipt set.
func (m Message) IsReadBy(userID primitive.ObjectID) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// HasReaction reports whether (emoji, userID) is present.
func (m Message) HasReaction(emoji string, userID primitive.ObjectID) bool {
	for _, r := range m.Reactions {
		if r.Emoji == emoji && r.UserID == userID {
			return true
		}
	}
	return false
}
