// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/crewhub/internal/app/store/memstore"
	"github.com/dalemusser/crewhub/internal/app/system/events"
	"github.com/dalemusser/crewhub/internal/app/system/indexes"
	"github.com/dalemusser/crewhub/internal/app/system/timeouts"
	"github.com/dalemusser/crewhub/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	storageMongo  = "mongo"
	storageMemory = "memory"
)

// ConnectDB opens the chat store and the event publisher.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	var deps DBDeps

	switch appCfg.StorageType {
	case storageMemory:
		deps.Memory = memstore.New()
		logger.Info("using in-memory chat store")
	default:
		client, err := connectMongo(ctx, appCfg)
		if err != nil {
			return DBDeps{}, err
		}
		deps.MongoClient = client
		deps.MongoDatabase = client.Database(appCfg.MongoDatabase)
		logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))
	}

	deps.Events = events.Nop{}
	if appCfg.RedisAddr != "" {
		pub, err := events.NewRedisPublisher(events.RedisConfig{
			Address:  appCfg.RedisAddr,
			Password: appCfg.RedisPassword,
			DB:       appCfg.RedisDB,
			Prefix:   appCfg.EventsChannelPrefix,
		})
		if err != nil {
			if deps.MongoClient != nil {
				_ = deps.MongoClient.Disconnect(ctx)
			}
			return DBDeps{}, fmt.Errorf("connect redis: %w", err)
		}
		deps.Events = pub
		logger.Info("publishing chat events to redis", zap.String("addr", appCfg.RedisAddr))
	}

	return deps, nil
}

func connectMongo(ctx context.Context, appCfg AppConfig) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := client.Ping(pctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureSchema attaches collection validators and reconciles indexes; the
// unique dedup index on chat_channels is what keeps singleton channels single.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoDatabase == nil {
		return nil
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), logger, "ensure schema")
	defer cancel()

	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	return nil
}
