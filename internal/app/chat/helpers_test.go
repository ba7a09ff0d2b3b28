package chat_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/crewhub/internal/app/chat"
	"github.com/dalemusser/crewhub/internal/app/store/memstore"
	"github.com/dalemusser/crewhub/internal/app/system/chatmetrics"
	"github.com/dalemusser/crewhub/internal/app/system/events"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// testClock is a settable clock shared with the service.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(typ string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

// fixture is one organization with three users and a job, plus a user in
// a second organization.
type fixture struct {
	db      *memstore.DB
	svc     *chat.Service
	clock   *testClock
	pub     *recordingPublisher
	metrics *chatmetrics.Metrics

	org      primitive.ObjectID
	alice    models.User
	bob      models.User
	carol    models.User
	outsider models.User
	job      models.Job
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithConfig(t, chat.Config{})
}

func newFixtureWithConfig(t *testing.T, cfg chat.Config) *fixture {
	t.Helper()

	f := &fixture{
		db:    memstore.New(),
		clock: &testClock{now: time.Date(2024, 6, 3, 7, 0, 0, 0, time.UTC)},
		pub:   &recordingPublisher{},
		org:   primitive.NewObjectID(),
	}
	f.metrics = chatmetrics.New(prometheus.NewRegistry())

	f.alice = f.addUser("Alice Owner", "owner", f.org)
	f.bob = f.addUser("Bob Foreman", "admin", f.org)
	f.carol = f.addUser("Carol Worker", "worker", f.org)
	f.outsider = f.addUser("Oscar Outsider", "owner", primitive.NewObjectID())

	f.job = models.Job{
		ID:             primitive.NewObjectID(),
		OrganizationID: f.org,
		Name:           "Roof repair - 22 Oak Ave",
		Status:         "active",
		CreatedAt:      f.clock.Now(),
	}
	f.db.PutJob(f.job)

	f.svc = chat.New(chat.Deps{
		Channels:  f.db.Channels(),
		Messages:  f.db.Messages(),
		Directory: f.db.Directory(),
		Jobs:      f.db.Jobs(),
		Events:    f.pub,
		Metrics:   f.metrics,
		Now:       f.clock.Now,
	}, cfg, zap.NewNop())
	return f
}

func (f *fixture) addUser(name, role string, org primitive.ObjectID) models.User {
	u := models.User{
		ID:             primitive.NewObjectID(),
		OrganizationID: org,
		FullName:       name,
		Role:           role,
		Status:         "active",
		CreatedAt:      time.Now().UTC(),
	}
	f.db.PutUser(u)
	return u
}

// company returns the company channel id, created by alice.
func (f *fixture) company(t *testing.T) primitive.ObjectID {
	t.Helper()
	id, err := f.svc.GetOrCreateCompanyChannel(context.Background(), f.alice.ID)
	if err != nil {
		t.Fatalf("GetOrCreateCompanyChannel: %v", err)
	}
	return id
}

// send sends content as u and advances the clock a second.
func (f *fixture) send(t *testing.T, u models.User, ch primitive.ObjectID, content string) primitive.ObjectID {
	t.Helper()
	id, err := f.svc.Send(context.Background(), u.ID, ch, content, "")
	if err != nil {
		t.Fatalf("Send(%q): %v", content, err)
	}
	f.clock.Advance(time.Second)
	return id
}

func (f *fixture) message(t *testing.T, id primitive.ObjectID) models.Message {
	t.Helper()
	m, err := f.db.Messages().Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	return m
}

func (f *fixture) channel(t *testing.T, id primitive.ObjectID) models.Channel {
	t.Helper()
	ch, err := f.db.Channels().Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get channel: %v", err)
	}
	return ch
}
