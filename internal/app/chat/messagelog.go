// internal/app/chat/messagelog.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/crewhub/internal/app/system/events"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Send appends a message to the channel. The sender must be a participant;
// the new message starts read by its sender.
func (s *Service) Send(ctx context.Context, userID, channelID primitive.ObjectID, content, attachmentURL string) (id primitive.ObjectID, err error) {
	defer func(start time.Time) {
		s.observe("send", start, err,
			zap.String("user_id", userID.Hex()),
			zap.String("channel_id", channelID.Hex()))
	}(time.Now())

	ch, err := s.participantChannel(ctx, userID, channelID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if err := s.checkContent(content); err != nil {
		return primitive.NilObjectID, err
	}
	attachmentURL, err = cleanAttachmentURL(attachmentURL)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if strings.TrimSpace(content) == "" && attachmentURL == "" {
		return primitive.NilObjectID, fmt.Errorf("message needs content or an attachment: %w", ErrInvalidArgument)
	}
	seq, err := s.channels.NextMessageSeq(ctx, ch.ID)
	if err != nil {
		return primitive.NilObjectID, err
	}

	msg := models.Message{
		ID:             primitive.NewObjectID(),
		ChannelID:      ch.ID,
		OrganizationID: ch.OrganizationID,
		SenderID:       userID,
		Content:        content,
		AttachmentURL:  attachmentURL,
		Reactions:      []models.Reaction{},
		ReadBy:         []primitive.ObjectID{userID},
		Seq:            seq,
		CreatedAt:      s.now(),
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return primitive.NilObjectID, err
	}

	s.publish(ctx, events.MessageCreated, ch.OrganizationID, ch.ID, map[string]string{
		"message_id": msg.ID.Hex(),
		"sender_id":  userID.Hex(),
	})
	return msg.ID, nil
}

// List returns the channel's messages in (created_at, seq) order. With
// limit > 0 only the most recent limit messages are kept. A caller who is
// not a participant gets an empty list.
func (s *Service) List(ctx context.Context, userID, channelID primitive.ObjectID, limit int) (msgs []models.Message, err error) {
	defer func(start time.Time) {
		s.observe("list_messages_raw", start, err,
			zap.String("user_id", userID.Hex()),
			zap.String("channel_id", channelID.Hex()))
	}(time.Now())

	if _, err := s.participantChannel(ctx, userID, channelID); err != nil {
		if IsBusiness(err) {
			return []models.Message{}, nil
		}
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}
	if limit > s.cfg.MaxListLimit {
		limit = s.cfg.MaxListLimit
	}
	return s.messages.ListByChannel(ctx, channelID, limit)
}

// Edit replaces the content of a message. Only the sender may edit, only
// inside the edit window, and never after deletion.
func (s *Service) Edit(ctx context.Context, userID, messageID primitive.ObjectID, content string) (err error) {
	defer func(start time.Time) {
		s.observe("edit", start, err,
			zap.String("user_id", userID.Hex()),
			zap.String("message_id", messageID.Hex()))
	}(time.Now())

	msg, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return err
	}
	now := s.now()
	if err := s.checkMutable(msg, userID, now); err != nil {
		return err
	}
	if err := s.checkContent(content); err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("edited content is empty: %w", ErrInvalidArgument)
	}

	err = s.messages.Edit(ctx, messageID, userID, content, now, now.Add(-s.cfg.EditWindow))
	if err != nil {
		return s.classifyPrecondition(ctx, err, messageID, userID, now)
	}

	s.publish(ctx, events.MessageEdited, msg.OrganizationID, msg.ChannelID, map[string]string{"message_id": messageID.Hex()})
	return nil
}

// SoftDelete clears a message's content and attachment and marks it
// deleted. The sender and window rules of Edit apply.
func (s *Service) SoftDelete(ctx context.Context, userID, messageID primitive.ObjectID) (err error) {
	defer func(start time.Time) {
		s.observe("delete", start, err,
			zap.String("user_id", userID.Hex()),
			zap.String("message_id", messageID.Hex()))
	}(time.Now())

	msg, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return err
	}
	now := s.now()
	if err := s.checkMutable(msg, userID, now); err != nil {
		return err
	}

	err = s.messages.SoftDelete(ctx, messageID, userID, now.Add(-s.cfg.EditWindow))
	if err != nil {
		return s.classifyPrecondition(ctx, err, messageID, userID, now)
	}

	s.publish(ctx, events.MessageDeleted, msg.OrganizationID, msg.ChannelID, map[string]string{"message_id": messageID.Hex()})
	return nil
}

// checkMutable applies the sender, window, and deleted rules in that order.
func (s *Service) checkMutable(msg models.Message, userID primitive.ObjectID, now time.Time) error {
	if msg.SenderID != userID {
		return fmt.Errorf("message %s not sent by %s: %w", msg.ID.Hex(), userID.Hex(), ErrUnauthorized)
	}
	if now.Sub(msg.CreatedAt) > s.cfg.EditWindow {
		return fmt.Errorf("message %s: %w", msg.ID.Hex(), ErrWindowExpired)
	}
	if msg.IsDeleted {
		return fmt.Errorf("message %s: %w", msg.ID.Hex(), ErrAlreadyDeleted)
	}
	return nil
}

// classifyPrecondition turns a failed conditional update into the business
// error that explains it. The message changed between the check and the
// write (typically a concurrent delete), so re-read and re-check.
func (s *Service) classifyPrecondition(ctx context.Context, err error, messageID, userID primitive.ObjectID, now time.Time) error {
	if !errors.Is(err, ErrPrecondition) && !errors.Is(err, ErrRecordNotFound) {
		return err
	}
	msg, lerr := s.loadMessage(ctx, messageID)
	if lerr != nil {
		return lerr
	}
	if cerr := s.checkMutable(msg, userID, now); cerr != nil {
		return cerr
	}
	return fmt.Errorf("message %s changed concurrently: %w", messageID.Hex(), ErrAlreadyDeleted)
}

// checkContent bounds the length of message text. Content is stored as
// sent; clients render it as text.
func (s *Service) checkContent(content string) error {
	if !utf8.ValidString(content) {
		return fmt.Errorf("content is not valid UTF-8: %w", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(content) > s.cfg.MaxContentLength {
		return fmt.Errorf("content longer than %d characters: %w", s.cfg.MaxContentLength, ErrInvalidArgument)
	}
	return nil
}

// cleanAttachmentURL accepts absolute http(s) URLs and site-relative paths
// as handed out by file storage.
func cleanAttachmentURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("attachment url: %w", ErrInvalidArgument)
	}
	switch {
	case u.Scheme == "http" || u.Scheme == "https":
		if u.Host == "" {
			return "", fmt.Errorf("attachment url missing host: %w", ErrInvalidArgument)
		}
	case u.Scheme == "" && u.Host == "" && strings.HasPrefix(u.Path, "/"):
	default:
		return "", fmt.Errorf("attachment url scheme %q: %w", u.Scheme, ErrInvalidArgument)
	}
	return u.String(), nil
}
