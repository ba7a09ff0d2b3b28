// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureChannels(ctx, db); err != nil {
		problems = append(problems, "chat_channels: "+err.Error())
	}
	if err := ensureMessages(ctx, db); err != nil {
		problems = append(problems, "chat_messages: "+err.Error())
	}
	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureJobs(ctx, db); err != nil {
		problems = append(problems, "jobs: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Per-collection desired indexes                                             */
/* -------------------------------------------------------------------------- */

func ensureChannels(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("chat_channels")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			// one company channel per org, one DM per pair, one channel per job
			Keys: bson.D{{Key: "dedup_key", Value: 1}},
			Options: options.Index().
				SetName("uniq_chat_channels_dedup_key").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"dedup_key": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "participants", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_chat_channels_org_participants"),
		},
	})
}

func ensureMessages(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("chat_messages")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "channel_id", Value: 1},
				{Key: "created_at", Value: 1},
				{Key: "seq", Value: 1},
			},
			Options: options.Index().SetName("idx_chat_msg_channel_created_seq"),
		},
		{
			// unread counting: channel + sender, read_by filtered in the match
			Keys: bson.D{
				{Key: "channel_id", Value: 1},
				{Key: "sender_id", Value: 1},
			},
			Options: options.Index().SetName("idx_chat_msg_channel_sender"),
		},
	})
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "full_name_ci", Value: 1},
			},
			Options: options.Index().SetName("idx_users_org_fullnameci"),
		},
	})
}

func ensureJobs(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("jobs")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}},
			Options: options.Index().SetName("idx_jobs_org"),
		},
	})
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name    string `bson:"name"`
	Key     bson.D `bson:"key"`
	Unique  *bool  `bson:"unique,omitempty"`
	Partial bson.M `bson:"partialFilterExpression,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool {
	return b != nil && *b
}

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{} // sig -> index
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

// ensureIndexSet creates missing indexes, reuses matching ones, and drops and
// recreates an index whose name or options have drifted.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listIndexes(ctx, coll)
	if err != nil {
		// A collection that does not exist yet lists as an error on some
		// servers; treat it as empty.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		var desiredName string
		var desiredUnique, desiredPartial bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = boolVal(m.Options.Unique)
			desiredPartial = m.Options.PartialFilterExpression != nil
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[desiredSig]; ok {
			same := boolVal(ex.Unique) == desiredUnique && (ex.Partial != nil) == desiredPartial
			if same && (desiredName == "" || ex.Name == desiredName) {
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig))
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if wafflemongo.IsDup(err) && desiredUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
