// internal/app/chat/registry.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/crewhub/internal/app/system/events"
	"github.com/dalemusser/crewhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CompanyKey is the dedup key of an organization's company channel.
func CompanyKey(orgID primitive.ObjectID) string {
	return "company:" + orgID.Hex()
}

// DMKey is the dedup key of the DM channel between a and b. The pair is
// unordered: DMKey(o, a, b) == DMKey(o, b, a).
func DMKey(orgID, a, b primitive.ObjectID) string {
	x, y := a.Hex(), b.Hex()
	if y < x {
		x, y = y, x
	}
	return "dm:" + orgID.Hex() + ":" + x + ":" + y
}

// JobKey is the dedup key of a job's channel.
func JobKey(orgID, jobID primitive.ObjectID) string {
	return "job:" + orgID.Hex() + ":" + jobID.Hex()
}

// ListChannelsFor returns every channel in the caller's organization that
// the caller participates in, in store order. It fails with ErrNotFound
// when the caller is unknown.
func (s *Service) ListChannelsFor(ctx context.Context, userID primitive.ObjectID) (chs []models.Channel, err error) {
	defer func(start time.Time) { s.observe("list_channels_raw", start, err, zap.String("user_id", userID.Hex())) }(time.Now())

	u, err := s.resolveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.channels.ListForUser(ctx, u.OrganizationID, userID)
}

// GetOrCreateDM returns the DM channel between userID and otherUserID,
// creating it when none exists. Both users must be in the same
// organization. Concurrent calls converge on a single channel through the
// store's unique dedup key.
func (s *Service) GetOrCreateDM(ctx context.Context, userID, otherUserID primitive.ObjectID) (id primitive.ObjectID, err error) {
	defer func(start time.Time) {
		s.observe("get_or_create_dm", start, err,
			zap.String("user_id", userID.Hex()),
			zap.String("other_user_id", otherUserID.Hex()))
	}(time.Now())

	if userID == otherUserID {
		return primitive.NilObjectID, fmt.Errorf("dm with self: %w", ErrInvalidArgument)
	}
	me, err := s.resolveUser(ctx, userID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	other, err := s.resolveUser(ctx, otherUserID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if me.OrganizationID != other.OrganizationID {
		return primitive.NilObjectID, fmt.Errorf("dm across organizations: %w", ErrUnauthorized)
	}

	key := DMKey(me.OrganizationID, userID, otherUserID)
	if ch, err := s.channels.FindByDedupKey(ctx, key); err == nil {
		return ch.ID, nil
	} else if !errors.Is(err, ErrRecordNotFound) {
		return primitive.NilObjectID, err
	}

	pair := []primitive.ObjectID{userID, otherUserID}
	if otherUserID.Hex() < userID.Hex() {
		pair[0], pair[1] = pair[1], pair[0]
	}
	ch := models.Channel{
		ID:             primitive.NewObjectID(),
		OrganizationID: me.OrganizationID,
		Type:           models.ChannelDM,
		Participants:   pair,
		DedupKey:       key,
		CreatedBy:      userID,
		CreatedAt:      s.now(),
	}
	created, err := s.insertOrFind(ctx, ch)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return created.ID, nil
}

// GetOrCreateCompanyChannel returns the organization's company channel.
// A caller who is not yet a participant is added. When the channel does
// not exist it is created seeded with every current organization user.
func (s *Service) GetOrCreateCompanyChannel(ctx context.Context, userID primitive.ObjectID) (id primitive.ObjectID, err error) {
	defer func(start time.Time) { s.observe("get_or_create_company", start, err, zap.String("user_id", userID.Hex())) }(time.Now())

	me, err := s.resolveUser(ctx, userID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	key := CompanyKey(me.OrganizationID)

	ch, err := s.channels.FindByDedupKey(ctx, key)
	switch {
	case err == nil:
		return s.join(ctx, ch, userID)
	case !errors.Is(err, ErrRecordNotFound):
		return primitive.NilObjectID, err
	}

	members, err := s.dir.ListOrganizationUsers(ctx, me.OrganizationID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	ch = models.Channel{
		ID:             primitive.NewObjectID(),
		OrganizationID: me.OrganizationID,
		Type:           models.ChannelCompany,
		Name:           "Company",
		Participants:   unionIDs(members, userID),
		DedupKey:       key,
		CreatedBy:      userID,
		CreatedAt:      s.now(),
	}
	created, err := s.insertOrFind(ctx, ch)
	if err != nil {
		return primitive.NilObjectID, err
	}
	// Lost the race (or the seed list predates the caller): make sure the
	// caller is in.
	return s.join(ctx, created, userID)
}

// CreateJobChannel creates the channel for a job with the creator as the
// only participant. It is called by the job module when a job is created,
// not by end users. Calling it again for the same job returns the existing
// channel.
func (s *Service) CreateJobChannel(ctx context.Context, orgID, jobID primitive.ObjectID, name string, creatorID primitive.ObjectID) (id primitive.ObjectID, err error) {
	defer func(start time.Time) {
		s.observe("create_job_channel", start, err,
			zap.String("organization_id", orgID.Hex()),
			zap.String("job_id", jobID.Hex()))
	}(time.Now())

	creator, err := s.resolveUser(ctx, creatorID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if creator.OrganizationID != orgID {
		return primitive.NilObjectID, fmt.Errorf("creator outside organization: %w", ErrUnauthorized)
	}
	job, err := s.jobs.ResolveJob(ctx, jobID)
	switch {
	case err == nil:
		if job.OrganizationID != orgID {
			return primitive.NilObjectID, fmt.Errorf("job outside organization: %w", ErrUnauthorized)
		}
		if strings.TrimSpace(name) == "" {
			name = job.Name
		}
		if htmlsanitize.HasMarkup(name) {
			return primitive.NilObjectID, fmt.Errorf("channel name contains markup: %w", ErrInvalidArgument)
		}
	case errors.Is(err, ErrRecordNotFound):
		return primitive.NilObjectID, fmt.Errorf("job %s: %w", jobID.Hex(), ErrNotFound)
	default:
		return primitive.NilObjectID, err
	}

	jid := jobID
	ch := models.Channel{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		Type:           models.ChannelJob,
		Name:           strings.TrimSpace(name),
		JobID:          &jid,
		Participants:   []primitive.ObjectID{creatorID},
		DedupKey:       JobKey(orgID, jobID),
		CreatedBy:      creatorID,
		CreatedAt:      s.now(),
	}
	created, err := s.insertOrFind(ctx, ch)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return created.ID, nil
}

// AddJobWorkers adds users allocated to a job to the job's channel. Every
// user must belong to the job's organization.
func (s *Service) AddJobWorkers(ctx context.Context, jobID primitive.ObjectID, userIDs []primitive.ObjectID) (err error) {
	defer func(start time.Time) { s.observe("add_job_workers", start, err, zap.String("job_id", jobID.Hex())) }(time.Now())

	if len(userIDs) == 0 {
		return nil
	}
	job, err := s.jobs.ResolveJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return fmt.Errorf("job %s: %w", jobID.Hex(), ErrNotFound)
		}
		return err
	}
	users, err := s.dir.ResolveUsers(ctx, userIDs)
	if err != nil {
		return err
	}
	for _, id := range userIDs {
		u, ok := users[id]
		if !ok {
			return fmt.Errorf("user %s: %w", id.Hex(), ErrNotFound)
		}
		if u.OrganizationID != job.OrganizationID {
			return fmt.Errorf("worker %s outside organization: %w", id.Hex(), ErrUnauthorized)
		}
	}

	ch, err := s.channels.FindByDedupKey(ctx, JobKey(job.OrganizationID, jobID))
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return fmt.Errorf("channel for job %s: %w", jobID.Hex(), ErrNotFound)
		}
		return err
	}
	updated, err := s.channels.AddParticipants(ctx, ch.ID, userIDs...)
	if err != nil {
		return err
	}
	s.publish(ctx, events.ChannelJoined, updated.OrganizationID, updated.ID, map[string]interface{}{"user_ids": hexIDs(userIDs)})
	return nil
}

// insertOrFind inserts ch; when another caller won the dedup key first, it
// returns that caller's channel instead.
func (s *Service) insertOrFind(ctx context.Context, ch models.Channel) (models.Channel, error) {
	err := s.channels.Insert(ctx, ch)
	if err == nil {
		s.publish(ctx, events.ChannelCreated, ch.OrganizationID, ch.ID, map[string]string{"type": string(ch.Type)})
		return ch, nil
	}
	if !errors.Is(err, ErrDuplicateKey) {
		return models.Channel{}, err
	}
	s.log.Debug("channel dedup key taken; using existing channel", zap.String("dedup_key", ch.DedupKey))
	existing, err := s.channels.FindByDedupKey(ctx, ch.DedupKey)
	if err != nil {
		return models.Channel{}, fmt.Errorf("load channel after dedup conflict: %w", err)
	}
	return existing, nil
}

// join adds userID to ch when missing and returns the channel id.
func (s *Service) join(ctx context.Context, ch models.Channel, userID primitive.ObjectID) (primitive.ObjectID, error) {
	if ch.HasParticipant(userID) {
		return ch.ID, nil
	}
	if _, err := s.channels.AddParticipants(ctx, ch.ID, userID); err != nil {
		return primitive.NilObjectID, err
	}
	s.publish(ctx, events.ChannelJoined, ch.OrganizationID, ch.ID, map[string]interface{}{"user_ids": []string{userID.Hex()}})
	return ch.ID, nil
}

func unionIDs(ids []primitive.ObjectID, extra ...primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids)+len(extra))
	out := make([]primitive.ObjectID, 0, len(ids)+len(extra))
	for _, list := range [][]primitive.ObjectID{ids, extra} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}
