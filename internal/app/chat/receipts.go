// internal/app/chat/receipts.go
package chat

import (
	"context"
	"time"

	"github.com/dalemusser/crewhub/internal/app/system/events"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MarkAsRead records that userID has read every message currently in the
// channel. It is a no-op when nothing is unread.
func (s *Service) MarkAsRead(ctx context.Context, userID, channelID primitive.ObjectID) (err error) {
	defer func(start time.Time) {
		s.observe("mark_read", start, err,
			zap.String("user_id", userID.Hex()),
			zap.String("channel_id", channelID.Hex()))
	}(time.Now())

	ch, err := s.participantChannel(ctx, userID, channelID)
	if err != nil {
		return err
	}
	n, err := s.messages.MarkChannelRead(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.publish(ctx, events.ChannelRead, ch.OrganizationID, ch.ID, map[string]interface{}{
			"user_id": userID.Hex(),
			"count":   n,
		})
	}
	return nil
}

// UnreadCountForChannel counts messages in the channel that were sent by
// someone else and not yet read by userID. Non-participants see zero.
func (s *Service) UnreadCountForChannel(ctx context.Context, userID, channelID primitive.ObjectID) (n int64, err error) {
	defer func(start time.Time) {
		s.observe("unread_channel", start, err,
			zap.String("user_id", userID.Hex()),
			zap.String("channel_id", channelID.Hex()))
	}(time.Now())

	if _, err := s.participantChannel(ctx, userID, channelID); err != nil {
		if IsBusiness(err) {
			return 0, nil
		}
		return 0, err
	}
	counts, err := s.messages.UnreadByChannel(ctx, []primitive.ObjectID{channelID}, userID)
	if err != nil {
		return 0, err
	}
	return counts[channelID], nil
}

// TotalUnreadCount sums UnreadCountForChannel over every channel userID
// participates in. It fails with ErrNotFound for an unknown caller.
func (s *Service) TotalUnreadCount(ctx context.Context, userID primitive.ObjectID) (total int64, err error) {
	defer func(start time.Time) { s.observe("unread_total", start, err, zap.String("user_id", userID.Hex())) }(time.Now())

	u, err := s.resolveUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	chs, err := s.channels.ListForUser(ctx, u.OrganizationID, userID)
	if err != nil {
		return 0, err
	}
	if len(chs) == 0 {
		return 0, nil
	}
	ids := make([]primitive.ObjectID, len(chs))
	for i, ch := range chs {
		ids[i] = ch.ID
	}
	counts, err := s.messages.UnreadByChannel(ctx, ids, userID)
	if err != nil {
		return 0, err
	}
	for _, n := range counts {
		total += n
	}
	return total, nil
}
