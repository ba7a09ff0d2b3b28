// internal/app/chat/store.go
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store contract errors. Backends return (or wrap) these so the service can
// classify failures without knowing which backend it talks to.
var (
	// ErrRecordNotFound means the requested document does not exist.
	ErrRecordNotFound = errors.New("chat store: record not found")
	// ErrDuplicateKey means an insert lost the race for a channel dedup key.
	ErrDuplicateKey = errors.New("chat store: duplicate dedup key")
	// ErrPrecondition means a conditional update matched no document.
	ErrPrecondition = errors.New("chat store: precondition failed")
)

// ChannelStore persists channels. Every mutation is atomic per channel
// document, and participant additions are set unions.
type ChannelStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (models.Channel, error)
	// ListForUser returns channels in orgID whose participants include userID.
	ListForUser(ctx context.Context, orgID, userID primitive.ObjectID) ([]models.Channel, error)
	FindByDedupKey(ctx context.Context, key string) (models.Channel, error)
	// Insert stores ch. A non-empty ch.DedupKey that is already taken yields
	// ErrDuplicateKey and leaves the store unchanged.
	Insert(ctx context.Context, ch models.Channel) error
	// AddParticipants unions userIDs into the participant set and returns the
	// updated channel.
	AddParticipants(ctx context.Context, id primitive.ObjectID, userIDs ...primitive.ObjectID) (models.Channel, error)
	// NextMessageSeq atomically increments and returns the channel's message
	// sequence.
	NextMessageSeq(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// MessageStore persists messages. Conditional mutations apply to a single
// message document atomically and return ErrPrecondition when the document
// no longer satisfies the condition.
type MessageStore interface {
	Insert(ctx context.Context, m models.Message) error
	Get(ctx context.Context, id primitive.ObjectID) (models.Message, error)
	// ListByChannel returns messages ordered by (created_at, seq) ascending.
	// With limit > 0 only the most recent limit messages are returned.
	ListByChannel(ctx context.Context, channelID primitive.ObjectID, limit int) ([]models.Message, error)
	// Edit replaces the content when the message was sent by senderID, is
	// not deleted, and was created at or after notBefore.
	Edit(ctx context.Context, id, senderID primitive.ObjectID, content string, editedAt, notBefore time.Time) error
	// SoftDelete marks the message deleted under the same conditions as Edit.
	SoftDelete(ctx context.Context, id, senderID primitive.ObjectID, notBefore time.Time) error
	// ToggleReaction removes (emoji, userID) if present and appends it
	// otherwise. It reports whether the reaction is present afterwards.
	ToggleReaction(ctx context.Context, id primitive.ObjectID, emoji string, userID primitive.ObjectID) (bool, error)
	// MarkChannelRead adds userID to read_by of every message in the channel
	// that lacks it and returns how many messages changed.
	MarkChannelRead(ctx context.Context, channelID, userID primitive.ObjectID) (int64, error)
	// UnreadByChannel counts, per channel, messages not sent by userID whose
	// read_by lacks userID. Channels with no unread messages may be absent.
	UnreadByChannel(ctx context.Context, channelIDs []primitive.ObjectID, userID primitive.ObjectID) (map[primitive.ObjectID]int64, error)
	// LastByChannel returns the newest message of each channel that has one.
	LastByChannel(ctx context.Context, channelIDs []primitive.ObjectID) (map[primitive.ObjectID]models.Message, error)
}

// Directory resolves users. It is owned by the tenant/user module; chat
// only reads it.
type Directory interface {
	ResolveUser(ctx context.Context, id primitive.ObjectID) (models.User, error)
	// ResolveUsers returns the users that exist among ids, keyed by id.
	ResolveUsers(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
	ListOrganizationUsers(ctx context.Context, orgID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// Jobs resolves job records for job-type channels.
type Jobs interface {
	ResolveJob(ctx context.Context, id primitive.ObjectID) (models.Job, error)
	ResolveJobs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Job, error)
}
