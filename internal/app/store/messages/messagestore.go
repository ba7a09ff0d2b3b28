// internal/app/store/messages/messagestore.go
package messagestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/crewhub/internal/app/chat"
	"github.com/dalemusser/crewhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the Mongo collection holding messages.
const Collection = "chat_messages"

// Store implements chat.MessageStore on MongoDB. Each mutation is a single
// conditional update on one message document, so no read-modify-write
// window exists on the server side.
type Store struct {
	c *mongo.Collection
}

var _ chat.MessageStore = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Insert creates a message document.
func (s *Store) Insert(ctx context.Context, m models.Message) error {
	if m.Reactions == nil {
		m.Reactions = []models.Reaction{}
	}
	if m.ReadBy == nil {
		m.ReadBy = []primitive.ObjectID{}
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return chat.ErrDuplicateKey
		}
		return err
	}
	return nil
}

// Get loads a message by id.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (models.Message, error) {
	var m models.Message
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Message{}, chat.ErrRecordNotFound
		}
		return models.Message{}, err
	}
	return m, nil
}

// ListByChannel returns messages oldest first. With limit > 0 it reads the
// newest limit messages (descending, using idx_chat_msg_channel_created_seq)
// and reverses them.
func (s *Store) ListByChannel(ctx context.Context, channelID primitive.ObjectID, limit int) ([]models.Message, error) {
	filter := bson.M{"channel_id": channelID}
	if limit <= 0 {
		opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "seq", Value: 1}})
		return s.find(ctx, filter, opts)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: -1}}).
		SetLimit(int64(limit))
	out, err := s.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Message, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Message{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// mutableFilter matches a message that senderID may still change.
func mutableFilter(id, senderID primitive.ObjectID, notBefore time.Time) bson.M {
	return bson.M{
		"_id":        id,
		"sender_id":  senderID,
		"is_deleted": false,
		"created_at": bson.M{"$gte": notBefore},
	}
}

// Edit sets content and edited_at when the message is still mutable.
func (s *Store) Edit(ctx context.Context, id, senderID primitive.ObjectID, content string, editedAt, notBefore time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		mutableFilter(id, senderID, notBefore),
		bson.M{"$set": bson.M{"content": content, "edited_at": editedAt}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return chat.ErrPrecondition
	}
	return nil
}

// SoftDelete marks the message deleted and clears its content and
// attachment when it is still mutable.
func (s *Store) SoftDelete(ctx context.Context, id, senderID primitive.ObjectID, notBefore time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		mutableFilter(id, senderID, notBefore),
		bson.M{
			"$set":   bson.M{"is_deleted": true, "content": ""},
			"$unset": bson.M{"attachment_url": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return chat.ErrPrecondition
	}
	return nil
}

// ToggleReaction flips (emoji, userID) in one pipeline update: the
// reactions array is filtered when the pair is present and appended to
// otherwise. The server evaluates both branches against the same document
// version.
func (s *Store) ToggleReaction(ctx context.Context, id primitive.ObjectID, emoji string, userID primitive.ObjectID) (bool, error) {
	current := bson.M{"$ifNull": bson.A{"$reactions", bson.A{}}}
	isPair := bson.M{"$and": bson.A{
		bson.M{"$eq": bson.A{"$$r.emoji", bson.M{"$literal": emoji}}},
		bson.M{"$eq": bson.A{"$$r.user_id", userID}},
	}}
	present := bson.M{"$gt": bson.A{
		bson.M{"$size": bson.M{"$filter": bson.M{"input": current, "as": "r", "cond": isPair}}},
		0,
	}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"reactions": bson.M{"$cond": bson.A{
			present,
			bson.M{"$filter": bson.M{"input": current, "as": "r", "cond": bson.M{"$not": bson.A{isPair}}}},
			bson.M{"$concatArrays": bson.A{current, bson.A{
				bson.M{"emoji": bson.M{"$literal": emoji}, "user_id": userID},
			}}},
		}}}}},
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"reactions": 1})
	var row struct {
		Reactions []models.Reaction `bson:"reactions"`
	}
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&row); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, chat.ErrRecordNotFound
		}
		return false, err
	}
	for _, r := range row.Reactions {
		if r.Emoji == emoji && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// MarkChannelRead adds userID to read_by on every message of the channel
// that lacks it. $addToSet keeps concurrent readers from clobbering each
// other.
func (s *Store) MarkChannelRead(ctx context.Context, channelID, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"channel_id": channelID, "read_by": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"read_by": userID}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// UnreadByChannel counts unread messages per channel for userID.
func (s *Store) UnreadByChannel(ctx context.Context, channelIDs []primitive.ObjectID, userID primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	out := make(map[primitive.ObjectID]int64)
	if len(channelIDs) == 0 {
		return out, nil
	}
	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": bson.M{
			"channel_id": bson.M{"$in": channelIDs},
			"sender_id":  bson.M{"$ne": userID},
			"read_by":    bson.M{"$ne": userID},
		}},
		{"$group": bson.M{"_id": "$channel_id", "n": bson.M{"$sum": 1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int64              `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.N
	}
	return out, cur.Err()
}

// LastByChannel returns the newest message of each channel.
func (s *Store) LastByChannel(ctx context.Context, channelIDs []primitive.ObjectID) (map[primitive.ObjectID]models.Message, error) {
	out := make(map[primitive.ObjectID]models.Message)
	if len(channelIDs) == 0 {
		return out, nil
	}
	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": bson.M{"channel_id": bson.M{"$in": channelIDs}}},
		{"$sort": bson.D{{Key: "channel_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "seq", Value: -1}}},
		{"$group": bson.M{"_id": "$channel_id", "doc": bson.M{"$first": "$$ROOT"}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID  primitive.ObjectID `bson:"_id"`
			Doc models.Message     `bson:"doc"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Doc
	}
	return out, cur.Err()
}
