// internal/app/chat/views.go
package chat

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LastMessage summarizes a channel's newest message.
type LastMessage struct {
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	SenderName string    `json:"sender_name"`
}

// ChannelListEntry is one row of the caller's channel list.
type ChannelListEntry struct {
	models.Channel
	LastMessage      *LastMessage `json:"last_message"`
	UnreadCount      int64        `json:"unread_count"`
	JobName          string       `json:"job_name,omitempty"`
	ParticipantNames []string     `json:"participant_names,omitempty"`
}

// sortTime is the time the list is ordered by.
func (e ChannelListEntry) sortTime() time.Time {
	if e.LastMessage != nil {
		return e.LastMessage.CreatedAt
	}
	return e.CreatedAt
}

// ParticipantSummary is a resolved channel member.
type ParticipantSummary struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
	Role string             `json:"role"`
}

// JobRef identifies the job behind a job channel.
type JobRef struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
}

// ChannelDetail is a channel with resolved members and job.
type ChannelDetail struct {
	models.Channel
	Members []ParticipantSummary `json:"members"`
	Job     *JobRef              `json:"job,omitempty"`
}

// MessageEntry is a message enriched for display.
type MessageEntry struct {
	models.Message
	SenderName   string `json:"sender_name"`
	IsOwnMessage bool   `json:"is_own_message"`
}

// ListChannels returns the caller's channels with last message, unread
// count, job name (job channels), and the other participants' names (DM
// channels), newest activity first.
func (s *Service) ListChannels(ctx context.Context, userID primitive.ObjectID) (out []ChannelListEntry, err error) {
	defer func(start time.Time) { s.observe("list_channels", start, err, zap.String("user_id", userID.Hex())) }(time.Now())

	u, err := s.resolveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	chs, err := s.channels.ListForUser(ctx, u.OrganizationID, userID)
	if err != nil {
		return nil, err
	}
	if len(chs) == 0 {
		return []ChannelListEntry{}, nil
	}

	ids := make([]primitive.ObjectID, len(chs))
	var jobIDs []primitive.ObjectID
	for i, ch := range chs {
		ids[i] = ch.ID
		if ch.Type == models.ChannelJob && ch.JobID != nil {
			jobIDs = append(jobIDs, *ch.JobID)
		}
	}

	var (
		last   map[primitive.ObjectID]models.Message
		unread map[primitive.ObjectID]int64
		jobs   map[primitive.ObjectID]models.Job
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		last, err = s.messages.LastByChannel(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		unread, err = s.messages.UnreadByChannel(gctx, ids, userID)
		return err
	})
	if len(jobIDs) > 0 {
		g.Go(func() error {
			var err error
			jobs, err = s.jobs.ResolveJobs(gctx, jobIDs)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// One directory round trip for last-message senders and DM peers.
	var nameIDs []primitive.ObjectID
	for _, m := range last {
		nameIDs = append(nameIDs, m.SenderID)
	}
	for _, ch := range chs {
		if ch.Type == models.ChannelDM {
			nameIDs = append(nameIDs, ch.Participants...)
		}
	}
	users, err := s.dir.ResolveUsers(ctx, unionIDs(nameIDs))
	if err != nil {
		return nil, err
	}

	out = make([]ChannelListEntry, 0, len(chs))
	for _, ch := range chs {
		e := ChannelListEntry{Channel: ch, UnreadCount: unread[ch.ID]}
		if m, ok := last[ch.ID]; ok {
			e.LastMessage = &LastMessage{
				Content:    m.Content,
				CreatedAt:  m.CreatedAt,
				SenderName: users[m.SenderID].FullName,
			}
		}
		switch ch.Type {
		case models.ChannelJob:
			if ch.JobID != nil {
				e.JobName = jobs[*ch.JobID].Name
			}
		case models.ChannelDM:
			for _, p := range ch.Participants {
				if p == userID {
					continue
				}
				if pu, ok := users[p]; ok {
					e.ParticipantNames = append(e.ParticipantNames, pu.FullName)
				}
			}
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].sortTime().After(out[j].sortTime())
	})
	return out, nil
}

// GetChannel returns the channel with resolved members and, for job
// channels, the job. It returns nil when the channel does not exist or the
// caller is not a participant.
func (s *Service) GetChannel(ctx context.Context, userID, channelID primitive.ObjectID) (detail *ChannelDetail, err error) {
	defer func(start time.Time) {
		s.observe("get_channel", start, err,
			zap.String("user_id", userID.Hex()),
			zap.String("channel_id", channelID.Hex()))
	}(time.Now())

	ch, err := s.participantChannel(ctx, userID, channelID)
	if err != nil {
		if IsBusiness(err) {
			return nil, nil
		}
		return nil, err
	}

	var (
		users map[primitive.ObjectID]models.User
		job   *JobRef
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.dir.ResolveUsers(gctx, ch.Participants)
		return err
	})
	if ch.Type == models.ChannelJob && ch.JobID != nil {
		g.Go(func() error {
			j, err := s.jobs.ResolveJob(gctx, *ch.JobID)
			if err != nil {
				if errors.Is(err, ErrRecordNotFound) {
					return nil
				}
				return err
			}
			job = &JobRef{ID: j.ID, Name: j.Name}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	detail = &ChannelDetail{Channel: ch, Job: job, Members: make([]ParticipantSummary, 0, len(ch.Participants))}
	for _, p := range ch.Participants {
		u, ok := users[p]
		if !ok {
			continue
		}
		detail.Members = append(detail.Members, ParticipantSummary{ID: u.ID, Name: u.FullName, Role: u.Role})
	}
	return detail, nil
}

// Messages returns the channel's messages enriched with sender names. A
// caller who is not a participant gets an empty list.
func (s *Service) Messages(ctx context.Context, userID, channelID primitive.ObjectID, limit int) ([]MessageEntry, error) {
	msgs, err := s.List(ctx, userID, channelID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]MessageEntry, 0, len(msgs))
	if len(msgs) == 0 {
		return out, nil
	}

	senders := make([]primitive.ObjectID, 0, len(msgs))
	for _, m := range msgs {
		senders = append(senders, m.SenderID)
	}
	users, err := s.dir.ResolveUsers(ctx, unionIDs(senders))
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		out = append(out, MessageEntry{
			Message:      m,
			SenderName:   users[m.SenderID].FullName,
			IsOwnMessage: m.SenderID == userID,
		})
	}
	return out, nil
}
