// internal/app/chat/reactions.go
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dalemusser/crewhub/internal/app/system/events"
	"github.com/dalemusser/crewhub/internal/app/system/htmlsanitize"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ToggleReaction adds (emoji, userID) to the message when absent and removes
// it when present. The caller must participate in the message's channel.
// Deleted messages still accept reactions.
func (s *Service) ToggleReaction(ctx context.Context, userID, messageID primitive.ObjectID, emoji string) (added bool, err error) {
	defer func(start time.Time) {
		s.observe("toggle_reaction", start, err,
			zap.String("user_id", userID.Hex()),
			zap.String("message_id", messageID.Hex()))
	}(time.Now())

	emoji, err = cleanEmoji(emoji)
	if err != nil {
		return false, err
	}
	msg, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return false, err
	}
	if _, err := s.participantChannel(ctx, userID, msg.ChannelID); err != nil {
		return false, err
	}

	added, err = s.messages.ToggleReaction(ctx, messageID, emoji, userID)
	if err != nil {
		return false, err
	}

	s.publish(ctx, events.ReactionToggled, msg.OrganizationID, msg.ChannelID, map[string]interface{}{
		"message_id": messageID.Hex(),
		"user_id":    userID.Hex(),
		"emoji":      emoji,
		"added":      added,
	})
	return added, nil
}

func cleanEmoji(emoji string) (string, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" || len(emoji) > MaxEmojiBytes {
		return "", fmt.Errorf("emoji must be 1-%d bytes: %w", MaxEmojiBytes, ErrInvalidArgument)
	}
	if strings.IndexFunc(emoji, unicode.IsSpace) >= 0 || strings.HasPrefix(emoji, "$") || htmlsanitize.HasMarkup(emoji) {
		return "", fmt.Errorf("emoji %q: %w", emoji, ErrInvalidArgument)
	}
	return emoji, nil
}
