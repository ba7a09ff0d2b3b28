package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for the Redis publisher.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	// Prefix namespaces the pub/sub channels, e.g. "crewhub".
	Prefix string
}

// RedisPublisher publishes events with Redis PUBLISH, one pub/sub channel
// per organization.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(cfg RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisPublisherWithClient(client, cfg.Prefix), nil
}

// NewRedisPublisherWithClient wraps an existing client.
func NewRedisPublisherWithClient(client *redis.Client, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = "crewhub"
	}
	return &RedisPublisher{client: client, prefix: prefix}
}

// Topic returns the pub/sub channel for an organization.
func (p *RedisPublisher) Topic(orgID string) string {
	return Topic(p.prefix, orgID)
}

// Topic builds "<prefix>:org:<orgID>".
func Topic(prefix, orgID string) string {
	return prefix + ":org:" + orgID
}

// Publish marshals the event and publishes it on the organization topic.
func (p *RedisPublisher) Publish(ctx context.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.client.Publish(ctx, p.Topic(event.OrganizationID), data).Err()
}

// Close closes the Redis client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
