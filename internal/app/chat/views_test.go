package chat_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestListChannels_Enriched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	company := f.company(t)
	f.clock.Advance(time.Minute)
	dm, err := f.svc.GetOrCreateDM(ctx, f.bob.ID, f.alice.ID)
	if err != nil {
		t.Fatalf("dm: %v", err)
	}
	f.clock.Advance(time.Minute)
	job, err := f.svc.CreateJobChannel(ctx, f.org, f.job.ID, "", f.alice.ID)
	if err != nil {
		t.Fatalf("job channel: %v", err)
	}
	f.clock.Advance(time.Minute)

	// company gets the newest activity; dm has an older message; job none
	f.send(t, f.bob, dm, "running late")
	f.clock.Advance(time.Minute)
	f.send(t, f.carol, company, "truck is here")

	entries, err := f.svc.ListChannels(ctx, f.alice.ID)
	if err != nil {
		t.Fatalf("ListChannels: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 channels, got %d", len(entries))
	}
	if entries[0].ID != company || entries[1].ID != dm || entries[2].ID != job {
		t.Fatalf("unexpected order: %v %v %v", entries[0].ID, entries[1].ID, entries[2].ID)
	}

	c := entries[0]
	if c.LastMessage == nil || c.LastMessage.Content != "truck is here" || c.LastMessage.SenderName != f.carol.FullName {
		t.Errorf("unexpected company last message: %+v", c.LastMessage)
	}
	if c.UnreadCount != 1 {
		t.Errorf("expected company unread 1, got %d", c.UnreadCount)
	}

	d := entries[1]
	if len(d.ParticipantNames) != 1 || d.ParticipantNames[0] != f.bob.FullName {
		t.Errorf("expected dm peer name only, got %v", d.ParticipantNames)
	}
	if d.LastMessage == nil || d.LastMessage.SenderName != f.bob.FullName {
		t.Errorf("unexpected dm last message: %+v", d.LastMessage)
	}

	j := entries[2]
	if j.JobName != f.job.Name {
		t.Errorf("expected job name %q, got %q", f.job.Name, j.JobName)
	}
	if j.LastMessage != nil || j.UnreadCount != 0 {
		t.Errorf("expected empty job channel, got %+v", j)
	}

	if got := f.metrics.Count("list_channels", "ok"); got != 1 {
		t.Errorf("expected list_channels ok metric 1, got %v", got)
	}
}

func TestListChannels_NoChannels(t *testing.T) {
	f := newFixture(t)

	entries, err := f.svc.ListChannels(context.Background(), f.carol.ID)
	if err != nil {
		t.Fatalf("ListChannels: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil list, got %v", entries)
	}
}

func TestGetChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateJobChannel(ctx, f.org, f.job.ID, "", f.bob.ID)
	if err != nil {
		t.Fatalf("CreateJobChannel: %v", err)
	}
	if err := f.svc.AddJobWorkers(ctx, f.job.ID, []primitive.ObjectID{f.carol.ID}); err != nil {
		t.Fatalf("AddJobWorkers: %v", err)
	}

	d, err := f.svc.GetChannel(ctx, f.carol.ID, id)
	if err != nil {
		t.Fatalf("GetChannel: %v", err)
	}
	if d == nil {
		t.Fatal("expected channel detail")
	}
	if d.Job == nil || d.Job.ID != f.job.ID || d.Job.Name != f.job.Name {
		t.Errorf("unexpected job ref %+v", d.Job)
	}
	if len(d.Members) != 2 {
		t.Fatalf("expected 2 members, got %+v", d.Members)
	}
	roles := map[string]string{}
	for _, m := range d.Members {
		roles[m.Name] = m.Role
	}
	if roles[f.bob.FullName] != "admin" || roles[f.carol.FullName] != "worker" {
		t.Errorf("unexpected members %+v", d.Members)
	}

	for name, u := range map[string]primitive.ObjectID{"non-participant": f.alice.ID, "outsider": f.outsider.ID} {
		d, err := f.svc.GetChannel(ctx, u, id)
		if err != nil || d != nil {
			t.Errorf("%s: expected nil, nil; got %+v, %v", name, d, err)
		}
	}
	if d, err := f.svc.GetChannel(ctx, f.bob.ID, primitive.NewObjectID()); err != nil || d != nil {
		t.Errorf("unknown channel: expected nil, nil; got %+v, %v", d, err)
	}
}

func TestGetChannel_CompanyHasNoJob(t *testing.T) {
	f := newFixture(t)
	id := f.company(t)

	d, err := f.svc.GetChannel(context.Background(), f.alice.ID, id)
	if err != nil || d == nil {
		t.Fatalf("GetChannel: %+v, %v", d, err)
	}
	if d.Type != models.ChannelCompany || d.Job != nil {
		t.Errorf("unexpected detail %+v", d)
	}
	if len(d.Members) != 3 {
		t.Errorf("expected 3 members, got %d", len(d.Members))
	}
}

func TestMessages_Enriched(t *testing.T) {
	f := newFixture(t)
	ch := f.company(t)
	ctx := context.Background()

	f.send(t, f.alice, ch, "morning")
	f.send(t, f.carol, ch, "morning boss")

	entries, err := f.svc.Messages(ctx, f.alice.ID, ch, 0)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].IsOwnMessage || entries[0].SenderName != f.alice.FullName {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
	if entries[1].IsOwnMessage || entries[1].SenderName != f.carol.FullName {
		t.Errorf("unexpected second entry %+v", entries[1])
	}

	entries, err = f.svc.Messages(ctx, f.outsider.ID, ch, 0)
	if err != nil || len(entries) != 0 {
		t.Errorf("outsider: expected empty, got %v, %v", entries, err)
	}
}
