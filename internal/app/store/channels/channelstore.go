// internal/app/store/channels/channelstore.go
package channelstore

import (
	"context"
	"errors"

	"github.com/dalemusser/crewhub/internal/app/chat"
	"github.com/dalemusser/crewhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the Mongo collection holding channels.
const Collection = "chat_channels"

// Store implements chat.ChannelStore on MongoDB.
//
// Singleton channels rely on the unique partial index on dedup_key
// (see indexes.ensureChannels): the losing insert of a concurrent
// find-or-create gets a duplicate-key error, reported as chat.ErrDuplicateKey.
type Store struct {
	c *mongo.Collection
}

var _ chat.ChannelStore = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Get loads a channel by id.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (models.Channel, error) {
	var ch models.Channel
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ch); err != nil {
		return models.Channel{}, mapErr(err)
	}
	return ch, nil
}

// ListForUser returns the channels of orgID that include userID, oldest first.
func (s *Store) ListForUser(ctx context.Context, orgID, userID primitive.ObjectID) ([]models.Channel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID, "participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Channel{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByDedupKey loads the singleton channel for key.
func (s *Store) FindByDedupKey(ctx context.Context, key string) (models.Channel, error) {
	var ch models.Channel
	if err := s.c.FindOne(ctx, bson.M{"dedup_key": key}).Decode(&ch); err != nil {
		return models.Channel{}, mapErr(err)
	}
	return ch, nil
}

// Insert creates the channel document.
func (s *Store) Insert(ctx context.Context, ch models.Channel) error {
	if ch.Participants == nil {
		ch.Participants = []primitive.ObjectID{}
	}
	if _, err := s.c.InsertOne(ctx, ch); err != nil {
		if wafflemongo.IsDup(err) {
			return chat.ErrDuplicateKey
		}
		return err
	}
	return nil
}

// AddParticipants unions userIDs into participants with $addToSet, so
// concurrent additions merge instead of overwriting each other.
func (s *Store) AddParticipants(ctx context.Context, id primitive.ObjectID, userIDs ...primitive.ObjectID) (models.Channel, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var ch models.Channel
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"participants": bson.M{"$each": userIDs}}},
		opts,
	).Decode(&ch)
	if err != nil {
		return models.Channel{}, mapErr(err)
	}
	return ch, nil
}

// NextMessageSeq increments message_seq and returns the new value.
func (s *Store) NextMessageSeq(ctx context.Context, id primitive.ObjectID) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"message_seq": 1})
	var row struct {
		Seq int64 `bson:"message_seq"`
	}
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"message_seq": 1}},
		opts,
	).Decode(&row)
	if err != nil {
		return 0, mapErr(err)
	}
	return row.Seq, nil
}

func mapErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return chat.ErrRecordNotFound
	}
	return err
}
