// internal/app/chat/service.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/crewhub/internal/app/system/chatmetrics"
	"github.com/dalemusser/crewhub/internal/app/system/events"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Defaults used when Config leaves a field zero.
const (
	DefaultEditWindow       = 15 * time.Minute
	DefaultMaxContentLength = 4000
	DefaultMaxListLimit     = 500
	MaxEmojiBytes           = 32
)

// Config tunes business limits.
type Config struct {
	EditWindow       time.Duration
	MaxContentLength int // runes
	MaxListLimit     int
}

func (c Config) withDefaults() Config {
	if c.EditWindow <= 0 {
		c.EditWindow = DefaultEditWindow
	}
	if c.MaxContentLength <= 0 {
		c.MaxContentLength = DefaultMaxContentLength
	}
	if c.MaxListLimit <= 0 {
		c.MaxListLimit = DefaultMaxListLimit
	}
	return c
}

// Deps bundles the stores and collaborators the service talks to.
// Events, Metrics, and Now are optional.
type Deps struct {
	Channels  ChannelStore
	Messages  MessageStore
	Directory Directory
	Jobs      Jobs
	Events    events.Publisher
	Metrics   *chatmetrics.Metrics
	Now       func() time.Time
}

// Service is the multi-tenant chat core: channel registry, message log,
// reaction ledger, read-receipt tracker, and channel views.
type Service struct {
	channels ChannelStore
	messages MessageStore
	dir      Directory
	jobs     Jobs
	events   events.Publisher
	metrics  *chatmetrics.Metrics
	now      func() time.Time
	cfg      Config
	log      *zap.Logger
}

// New constructs a Service.
func New(deps Deps, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	pub := deps.Events
	if pub == nil {
		pub = events.Nop{}
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		channels: deps.Channels,
		messages: deps.Messages,
		dir:      deps.Directory,
		jobs:     deps.Jobs,
		events:   pub,
		metrics:  deps.Metrics,
		now:      now,
		cfg:      cfg.withDefaults(),
		log:      logger,
	}
}

// EditWindow returns the configured edit/delete window.
func (s *Service) EditWindow() time.Duration { return s.cfg.EditWindow }

// observe records metrics and logs the outcome of op. It is deferred at the
// top of every public operation.
func (s *Service) observe(op string, start time.Time, err error, fields ...zap.Field) {
	kind := Kind(err)
	s.metrics.Observe(op, kind, start)
	if err == nil {
		return
	}
	fields = append(fields, zap.String("op", op), zap.Error(err))
	if IsBusiness(err) {
		s.log.Debug("chat operation rejected", fields...)
		return
	}
	s.log.Error("chat operation failed", fields...)
}

// publish emits an event; failures are logged, never returned.
func (s *Service) publish(ctx context.Context, typ string, orgID, channelID primitive.ObjectID, payload interface{}) {
	ev, err := events.NewEvent(typ, orgID, channelID, payload)
	if err != nil {
		s.log.Warn("build chat event failed", zap.String("type", typ), zap.Error(err))
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish chat event failed",
			zap.String("type", typ),
			zap.String("channel_id", channelID.Hex()),
			zap.Error(err))
	}
}

// resolveUser maps a directory miss to ErrNotFound.
func (s *Service) resolveUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	u, err := s.dir.ResolveUser(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return models.User{}, fmt.Errorf("user %s: %w", id.Hex(), ErrNotFound)
		}
		return models.User{}, err
	}
	return u, nil
}

// loadChannel maps a store miss to ErrNotFound.
func (s *Service) loadChannel(ctx context.Context, id primitive.ObjectID) (models.Channel, error) {
	ch, err := s.channels.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return models.Channel{}, fmt.Errorf("channel %s: %w", id.Hex(), ErrNotFound)
		}
		return models.Channel{}, err
	}
	return ch, nil
}

// loadMessage maps a store miss to ErrNotFound.
func (s *Service) loadMessage(ctx context.Context, id primitive.ObjectID) (models.Message, error) {
	m, err := s.messages.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return models.Message{}, fmt.Errorf("message %s: %w", id.Hex(), ErrNotFound)
		}
		return models.Message{}, err
	}
	return m, nil
}

// participantChannel loads a channel and requires userID to be a participant.
func (s *Service) participantChannel(ctx context.Context, userID, channelID primitive.ObjectID) (models.Channel, error) {
	ch, err := s.loadChannel(ctx, channelID)
	if err != nil {
		return models.Channel{}, err
	}
	if !ch.HasParticipant(userID) {
		return models.Channel{}, fmt.Errorf("user %s not in channel %s: %w", userID.Hex(), channelID.Hex(), ErrUnauthorized)
	}
	return ch, nil
}
