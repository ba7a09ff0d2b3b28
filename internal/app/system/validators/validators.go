// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/crewhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Collections chat owns. users and jobs belong to other modules and
	// are only read here.
	ensure("chat_channels", channelsSchema())
	ensure("chat_messages", messagesSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func channelsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"organization_id", "type", "participants", "created_at"},
			"properties": bson.M{
				"organization_id": bson.M{"bsonType": "objectId"},
				"type": bson.M{"enum": bson.A{
					string(models.ChannelCompany),
					string(models.ChannelJob),
					string(models.ChannelDM),
				}},
				"name":         bson.M{"bsonType": "string"},
				"job_id":       bson.M{"bsonType": "objectId"},
				"participants": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"dedup_key":    bson.M{"bsonType": "string", "minLength": 1},
				"message_seq":  bson.M{"bsonType": bson.A{"long", "int"}, "minimum": 0},
				"created_by":   bson.M{"bsonType": "objectId"},
				"created_at":   bson.M{"bsonType": "date"},
			},
		},
	}
}

func messagesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"channel_id", "organization_id", "sender_id", "content", "reactions", "read_by", "is_deleted", "created_at"},
			"properties": bson.M{
				"channel_id":      bson.M{"bsonType": "objectId"},
				"organization_id": bson.M{"bsonType": "objectId"},
				"sender_id":       bson.M{"bsonType": "objectId"},
				"content":         bson.M{"bsonType": "string"},
				"attachment_url":  bson.M{"bsonType": "string"},
				"reactions": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"emoji", "user_id"},
						"properties": bson.M{
							"emoji":   bson.M{"bsonType": "string", "minLength": 1},
							"user_id": bson.M{"bsonType": "objectId"},
						},
					},
				},
				"read_by":    bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"is_deleted": bson.M{"bsonType": "bool"},
				"seq":        bson.M{"bsonType": bson.A{"long", "int"}},
				"created_at": bson.M{"bsonType": "date"},
				"edited_at":  bson.M{"bsonType": "date"},
			},
		},
	}
}
