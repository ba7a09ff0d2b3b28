// Package memstore is an in-process implementation of the chat store and
// collaborator interfaces. A single lock makes every read-modify-write
// atomic, and the dedup index plays the role of the unique Mongo index.
//
// It backs storage_type=memory (local development) and the chat unit tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/crewhub/internal/app/chat"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DB holds all in-memory state.
type DB struct {
	mu sync.RWMutex

	channels  map[primitive.ObjectID]*models.Channel
	dedup     map[string]primitive.ObjectID
	messages  map[primitive.ObjectID]*models.Message
	byChannel map[primitive.ObjectID][]primitive.ObjectID // insertion order
	byOrg     map[primitive.ObjectID][]primitive.ObjectID // channel ids per organization
	users     map[primitive.ObjectID]models.User
	jobs      map[primitive.ObjectID]models.Job
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		channels:  make(map[primitive.ObjectID]*models.Channel),
		dedup:     make(map[string]primitive.ObjectID),
		messages:  make(map[primitive.ObjectID]*models.Message),
		byChannel: make(map[primitive.ObjectID][]primitive.ObjectID),
		byOrg:     make(map[primitive.ObjectID][]primitive.ObjectID),
		users:     make(map[primitive.ObjectID]models.User),
		jobs:      make(map[primitive.ObjectID]models.Job),
	}
}

// Channels returns the chat.ChannelStore view of db.
func (db *DB) Channels() *Channels { return &Channels{db: db} }

// Messages returns the chat.MessageStore view of db.
func (db *DB) Messages() *Messages { return &Messages{db: db} }

// Directory returns the chat.Directory view of db.
func (db *DB) Directory() *Directory { return &Directory{db: db} }

// Jobs returns the chat.Jobs view of db.
func (db *DB) Jobs() *Jobs { return &Jobs{db: db} }

// PutUser inserts or replaces a directory user.
func (db *DB) PutUser(u models.User) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[u.ID] = u
}

// PutJob inserts or replaces a job.
func (db *DB) PutJob(j models.Job) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.jobs[j.ID] = j
}

// ChannelCount returns how many channels are stored.
func (db *DB) ChannelCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.channels)
}

// SetMessageCreatedAt overwrites a message's creation time. Development
// and test helper for exercising the edit window.
func (db *DB) SetMessageCreatedAt(id primitive.ObjectID, t time.Time) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	m, ok := db.messages[id]
	if ok {
		m.CreatedAt = t
	}
	return ok
}

/* -------------------------------------------------------------------------- */
/* Channels                                                                   */
/* -------------------------------------------------------------------------- */

// Channels implements chat.ChannelStore.
type Channels struct{ db *DB }

var _ chat.ChannelStore = (*Channels)(nil)

func (c *Channels) Get(_ context.Context, id primitive.ObjectID) (models.Channel, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()
	ch, ok := c.db.channels[id]
	if !ok {
		return models.Channel{}, chat.ErrRecordNotFound
	}
	return copyChannel(*ch), nil
}

func (c *Channels) ListForUser(_ context.Context, orgID, userID primitive.ObjectID) ([]models.Channel, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()
	out := []models.Channel{}
	for _, id := range c.db.byOrg[orgID] {
		if ch := c.db.channels[id]; ch.HasParticipant(userID) {
			out = append(out, copyChannel(*ch))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (c *Channels) FindByDedupKey(_ context.Context, key string) (models.Channel, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()
	id, ok := c.db.dedup[key]
	if !ok {
		return models.Channel{}, chat.ErrRecordNotFound
	}
	return copyChannel(*c.db.channels[id]), nil
}

// Insert stores ch; the dedup check and the write happen under one lock,
// which is the compare-and-swap against the dedup index.
func (c *Channels) Insert(_ context.Context, ch models.Channel) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	if ch.DedupKey != "" {
		if _, taken := c.db.dedup[ch.DedupKey]; taken {
			return chat.ErrDuplicateKey
		}
	}
	if _, exists := c.db.channels[ch.ID]; exists {
		return chat.ErrDuplicateKey
	}
	cp := copyChannel(ch)
	cp.Participants = dedupIDs(cp.Participants)
	c.db.channels[ch.ID] = &cp
	c.db.byOrg[ch.OrganizationID] = append(c.db.byOrg[ch.OrganizationID], ch.ID)
	if ch.DedupKey != "" {
		c.db.dedup[ch.DedupKey] = ch.ID
	}
	return nil
}

func (c *Channels) AddParticipants(_ context.Context, id primitive.ObjectID, userIDs ...primitive.ObjectID) (models.Channel, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	ch, ok := c.db.channels[id]
	if !ok {
		return models.Channel{}, chat.ErrRecordNotFound
	}
	ch.Participants = dedupIDs(append(ch.Participants, userIDs...))
	return copyChannel(*ch), nil
}

func (c *Channels) NextMessageSeq(_ context.Context, id primitive.ObjectID) (int64, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	ch, ok := c.db.channels[id]
	if !ok {
		return 0, chat.ErrRecordNotFound
	}
	ch.MessageSeq++
	return ch.MessageSeq, nil
}

/* -------------------------------------------------------------------------- */
/* Messages                                                                   */
/* -------------------------------------------------------------------------- */

// Messages implements chat.MessageStore.
type Messages struct{ db *DB }

var _ chat.MessageStore = (*Messages)(nil)

func (m *Messages) Insert(_ context.Context, msg models.Message) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, exists := m.db.messages[msg.ID]; exists {
		return chat.ErrDuplicateKey
	}
	cp := copyMessage(msg)
	m.db.messages[msg.ID] = &cp
	m.db.byChannel[msg.ChannelID] = append(m.db.byChannel[msg.ChannelID], msg.ID)
	return nil
}

func (m *Messages) Get(_ context.Context, id primitive.ObjectID) (models.Message, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	msg, ok := m.db.messages[id]
	if !ok {
		return models.Message{}, chat.ErrRecordNotFound
	}
	return copyMessage(*msg), nil
}

func (m *Messages) ListByChannel(_ context.Context, channelID primitive.ObjectID, limit int) ([]models.Message, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	out := m.db.orderedLocked(channelID)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *Messages) Edit(_ context.Context, id, senderID primitive.ObjectID, content string, editedAt, notBefore time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	msg, ok := m.db.messages[id]
	if !ok || !mutable(msg, senderID, notBefore) {
		return chat.ErrPrecondition
	}
	msg.Content = content
	t := editedAt
	msg.EditedAt = &t
	return nil
}

func (m *Messages) SoftDelete(_ context.Context, id, senderID primitive.ObjectID, notBefore time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	msg, ok := m.db.messages[id]
	if !ok || !mutable(msg, senderID, notBefore) {
		return chat.ErrPrecondition
	}
	msg.IsDeleted = true
	msg.Content = ""
	msg.AttachmentURL = ""
	return nil
}

func (m *Messages) ToggleReaction(_ context.Context, id primitive.ObjectID, emoji string, userID primitive.ObjectID) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	msg, ok := m.db.messages[id]
	if !ok {
		return false, chat.ErrRecordNotFound
	}
	for i, r := range msg.Reactions {
		if r.Emoji == emoji && r.UserID == userID {
			msg.Reactions = append(msg.Reactions[:i:i], msg.Reactions[i+1:]...)
			return false, nil
		}
	}
	msg.Reactions = append(msg.Reactions, models.Reaction{Emoji: emoji, UserID: userID})
	return true, nil
}

func (m *Messages) MarkChannelRead(_ context.Context, channelID, userID primitive.ObjectID) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for _, id := range m.db.byChannel[channelID] {
		msg := m.db.messages[id]
		if msg.IsReadBy(userID) {
			continue
		}
		msg.ReadBy = append(msg.ReadBy, userID)
		n++
	}
	return n, nil
}

func (m *Messages) UnreadByChannel(_ context.Context, channelIDs []primitive.ObjectID, userID primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	out := make(map[primitive.ObjectID]int64)
	for _, chID := range channelIDs {
		for _, id := range m.db.byChannel[chID] {
			msg := m.db.messages[id]
			if msg.SenderID != userID && !msg.IsReadBy(userID) {
				out[chID]++
			}
		}
	}
	return out, nil
}

func (m *Messages) LastByChannel(_ context.Context, channelIDs []primitive.ObjectID) (map[primitive.ObjectID]models.Message, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	out := make(map[primitive.ObjectID]models.Message)
	for _, chID := range channelIDs {
		ordered := m.db.orderedLocked(chID)
		if len(ordered) > 0 {
			out[chID] = ordered[len(ordered)-1]
		}
	}
	return out, nil
}

// orderedLocked returns copies of a channel's messages sorted by
// (created_at, seq), falling back to insertion order. Caller holds mu.
func (db *DB) orderedLocked(channelID primitive.ObjectID) []models.Message {
	ids := db.byChannel[channelID]
	out := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyMessage(*db.messages[id]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

func mutable(msg *models.Message, senderID primitive.ObjectID, notBefore time.Time) bool {
	return msg.SenderID == senderID && !msg.IsDeleted && !msg.CreatedAt.Before(notBefore)
}

/* -------------------------------------------------------------------------- */
/* Directory and jobs                                                         */
/* -------------------------------------------------------------------------- */

// Directory implements chat.Directory over users added with PutUser.
type Directory struct{ db *DB }

var _ chat.Directory = (*Directory)(nil)

func (d *Directory) ResolveUser(_ context.Context, id primitive.ObjectID) (models.User, error) {
	d.db.mu.RLock()
	defer d.db.mu.RUnlock()
	u, ok := d.db.users[id]
	if !ok {
		return models.User{}, chat.ErrRecordNotFound
	}
	return u, nil
}

func (d *Directory) ResolveUsers(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	d.db.mu.RLock()
	defer d.db.mu.RUnlock()
	out := make(map[primitive.ObjectID]models.User, len(ids))
	for _, id := range ids {
		if u, ok := d.db.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (d *Directory) ListOrganizationUsers(_ context.Context, orgID primitive.ObjectID) ([]primitive.ObjectID, error) {
	d.db.mu.RLock()
	defer d.db.mu.RUnlock()
	var out []primitive.ObjectID
	for _, u := range d.db.users {
		if u.OrganizationID == orgID && u.Status != "disabled" {
			out = append(out, u.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hex() < out[j].Hex() })
	return out, nil
}

// Jobs implements chat.Jobs over jobs added with PutJob.
type Jobs struct{ db *DB }

var _ chat.Jobs = (*Jobs)(nil)

func (j *Jobs) ResolveJob(_ context.Context, id primitive.ObjectID) (models.Job, error) {
	j.db.mu.RLock()
	defer j.db.mu.RUnlock()
	job, ok := j.db.jobs[id]
	if !ok {
		return models.Job{}, chat.ErrRecordNotFound
	}
	return job, nil
}

func (j *Jobs) ResolveJobs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Job, error) {
	j.db.mu.RLock()
	defer j.db.mu.RUnlock()
	out := make(map[primitive.ObjectID]models.Job, len(ids))
	for _, id := range ids {
		if job, ok := j.db.jobs[id]; ok {
			out[id] = job
		}
	}
	return out, nil
}

/* -------------------------------------------------------------------------- */
/* helpers                                                                    */
/* -------------------------------------------------------------------------- */

func copyChannel(ch models.Channel) models.Channel {
	ch.Participants = append([]primitive.ObjectID(nil), ch.Participants...)
	if ch.JobID != nil {
		id := *ch.JobID
		ch.JobID = &id
	}
	return ch
}

func copyMessage(m models.Message) models.Message {
	m.ReadBy = append([]primitive.ObjectID(nil), m.ReadBy...)
	m.Reactions = append([]models.Reaction{}, m.Reactions...)
	if m.EditedAt != nil {
		t := *m.EditedAt
		m.EditedAt = &t
	}
	return m
}

func dedupIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
