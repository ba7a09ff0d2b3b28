// Package events publishes chat activity to subscribers (web clients behind
// a realtime gateway, the mobile sync worker). Delivery is best effort.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event types emitted by the chat service.
const (
	ChannelCreated  = "channel.created"
	ChannelJoined   = "channel.joined"
	ChannelRead     = "channel.read"
	MessageCreated  = "message.created"
	MessageEdited   = "message.edited"
	MessageDeleted  = "message.deleted"
	ReactionToggled = "reaction.toggled"
)

// Event is one published chat change.
type Event struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	OrganizationID string          `json:"organization_id"`
	ChannelID      string          `json:"channel_id"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// NewEvent builds an event stamped with a fresh id and the current time.
func NewEvent(eventType string, orgID, channelID primitive.ObjectID, payload interface{}) (*Event, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return &Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		OrganizationID: orgID.Hex(),
		ChannelID:      channelID.Hex(),
		Payload:        data,
		Timestamp:      time.Now().UTC(),
	}, nil
}

// UnmarshalPayload decodes the payload into v.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Publisher sends events to the bus.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// Nop discards every event. It is used when no bus is configured.
type Nop struct{}

func (Nop) Publish(context.Context, *Event) error { return nil }
func (Nop) Close() error                          { return nil }
