package memstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/crewhub/internal/app/chat"
	"github.com/dalemusser/crewhub/internal/app/store/memstore"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newChannel(key string) models.Channel {
	return models.Channel{
		ID:             primitive.NewObjectID(),
		OrganizationID: primitive.NewObjectID(),
		Type:           models.ChannelCompany,
		DedupKey:       key,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestInsert_DedupKeyConflict(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()

	if err := db.Channels().Insert(ctx, newChannel("company:a")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := db.Channels().Insert(ctx, newChannel("company:a"))
	if !errors.Is(err, chat.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	if db.ChannelCount() != 1 {
		t.Errorf("expected 1 channel, got %d", db.ChannelCount())
	}
}

func TestInsert_ConcurrentSameKey(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := db.Channels().Insert(ctx, newChannel("dm:x")); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one winning insert, got %d", wins)
	}
}

func TestReturnedValuesAreCopies(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	ch := newChannel("")
	ch.Participants = []primitive.ObjectID{primitive.NewObjectID()}
	if err := db.Channels().Insert(ctx, ch); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, _ := db.Channels().Get(ctx, ch.ID)
	got.Participants[0] = primitive.NilObjectID

	again, _ := db.Channels().Get(ctx, ch.ID)
	if again.Participants[0] == primitive.NilObjectID {
		t.Error("mutating a returned channel changed stored state")
	}
}

func TestAddParticipants_Idempotent(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	ch := newChannel("")
	if err := db.Channels().Insert(ctx, ch); err != nil {
		t.Fatalf("insert: %v", err)
	}
	u := primitive.NewObjectID()

	for i := 0; i < 3; i++ {
		if _, err := db.Channels().AddParticipants(ctx, ch.ID, u, u); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	got, _ := db.Channels().Get(ctx, ch.ID)
	if len(got.Participants) != 1 {
		t.Errorf("expected 1 participant, got %v", got.Participants)
	}
}

func TestListForUser_ScopedToOrganization(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	u := primitive.NewObjectID()

	mine := newChannel("")
	mine.Participants = []primitive.ObjectID{u}
	notJoined := newChannel("")
	notJoined.OrganizationID = mine.OrganizationID
	notJoined.CreatedAt = mine.CreatedAt.Add(time.Second)
	elsewhere := newChannel("")
	elsewhere.Participants = []primitive.ObjectID{u}
	later := newChannel("")
	later.OrganizationID = mine.OrganizationID
	later.Participants = []primitive.ObjectID{u}
	later.CreatedAt = mine.CreatedAt.Add(2 * time.Second)
	for _, ch := range []models.Channel{later, mine, notJoined, elsewhere} {
		if err := db.Channels().Insert(ctx, ch); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := db.Channels().ListForUser(ctx, mine.OrganizationID, u)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 2 || got[0].ID != mine.ID || got[1].ID != later.ID {
		t.Errorf("expected [mine later], got %+v", got)
	}

	got, err = db.Channels().ListForUser(ctx, primitive.NewObjectID(), u)
	if err != nil || len(got) != 0 {
		t.Errorf("unknown organization: expected empty, got %v, %v", got, err)
	}
}

func TestListByChannel_OrdersByCreatedThenSeq(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	chID := primitive.NewObjectID()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// inserted out of order on purpose; two share a timestamp
	msgs := []models.Message{
		{ID: primitive.NewObjectID(), ChannelID: chID, Content: "c", Seq: 3, CreatedAt: at.Add(time.Second)},
		{ID: primitive.NewObjectID(), ChannelID: chID, Content: "b", Seq: 2, CreatedAt: at},
		{ID: primitive.NewObjectID(), ChannelID: chID, Content: "a", Seq: 1, CreatedAt: at},
	}
	for _, m := range msgs {
		if err := db.Messages().Insert(ctx, m); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := db.Messages().ListByChannel(ctx, chID, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var order string
	for _, m := range got {
		order += m.Content
	}
	if order != "abc" {
		t.Errorf("expected order abc, got %s", order)
	}

	tail, _ := db.Messages().ListByChannel(ctx, chID, 2)
	if len(tail) != 2 || tail[0].Content != "b" || tail[1].Content != "c" {
		t.Errorf("expected tail [b c], got %+v", tail)
	}
}

func TestEdit_Preconditions(t *testing.T) {
	db := memstore.New()
	ctx := context.Background()
	sender := primitive.NewObjectID()
	created := time.Now().UTC()
	msg := models.Message{ID: primitive.NewObjectID(), ChannelID: primitive.NewObjectID(), SenderID: sender, Content: "x", CreatedAt: created}
	if err := db.Messages().Insert(ctx, msg); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := db.Messages().Edit(ctx, msg.ID, primitive.NewObjectID(), "y", created, created); !errors.Is(err, chat.ErrPrecondition) {
		t.Errorf("other sender: expected ErrPrecondition, got %v", err)
	}
	if err := db.Messages().Edit(ctx, msg.ID, sender, "y", created, created.Add(time.Second)); !errors.Is(err, chat.ErrPrecondition) {
		t.Errorf("outside window: expected ErrPrecondition, got %v", err)
	}
	if err := db.Messages().Edit(ctx, msg.ID, sender, "y", created, created); err != nil {
		t.Fatalf("valid edit: %v", err)
	}
	if err := db.Messages().SoftDelete(ctx, msg.ID, sender, created); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := db.Messages().Edit(ctx, msg.ID, sender, "z", created, created); !errors.Is(err, chat.ErrPrecondition) {
		t.Errorf("after delete: expected ErrPrecondition, got %v", err)
	}

	got, _ := db.Messages().Get(ctx, msg.ID)
	if !got.IsDeleted || got.Content != "" {
		t.Errorf("expected deleted and empty, got %+v", got)
	}
}

func TestListOrganizationUsers_SkipsDisabled(t *testing.T) {
	db := memstore.New()
	org := primitive.NewObjectID()
	active := models.User{ID: primitive.NewObjectID(), OrganizationID: org, Status: "active"}
	disabled := models.User{ID: primitive.NewObjectID(), OrganizationID: org, Status: "disabled"}
	other := models.User{ID: primitive.NewObjectID(), OrganizationID: primitive.NewObjectID()}
	db.PutUser(active)
	db.PutUser(disabled)
	db.PutUser(other)

	ids, err := db.Directory().ListOrganizationUsers(context.Background(), org)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 || ids[0] != active.ID {
		t.Errorf("expected only the active user, got %v", ids)
	}
}
