package userstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/crewhub/internal/app/chat"
	userstore "github.com/dalemusser/crewhub/internal/app/store/users"
	"github.com/dalemusser/crewhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Resolve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	store := userstore.New(db)

	org := fx.CreateOrganization(ctx, "Acme Roofing")
	owner := fx.CreateUser(ctx, "Ann Owner", "owner", org.ID)
	gone := fx.CreateDisabledUser(ctx, "Gil Gone", org.ID)

	u, err := store.ResolveUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ResolveUser: %v", err)
	}
	if u.FullName != "Ann Owner" || u.OrganizationID != org.ID || u.Role != "owner" {
		t.Errorf("unexpected user %+v", u)
	}

	// disabled users still resolve for display
	if _, err := store.ResolveUser(ctx, gone.ID); err != nil {
		t.Errorf("disabled user should resolve: %v", err)
	}
	if _, err := store.ResolveUser(ctx, primitive.NewObjectID()); !errors.Is(err, chat.ErrRecordNotFound) {
		t.Errorf("missing: expected ErrRecordNotFound, got %v", err)
	}

	missing := primitive.NewObjectID()
	got, err := store.ResolveUsers(ctx, []primitive.ObjectID{owner.ID, gone.ID, missing})
	if err != nil {
		t.Fatalf("ResolveUsers: %v", err)
	}
	if len(got) != 2 || got[owner.ID].FullName != "Ann Owner" {
		t.Errorf("unexpected users %+v", got)
	}
	if _, ok := got[missing]; ok {
		t.Error("missing id should be absent")
	}
}

func TestStore_ListOrganizationUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	store := userstore.New(db)

	org := fx.CreateOrganization(ctx, "Acme Roofing")
	other := fx.CreateOrganization(ctx, "Other Co")
	a := fx.CreateUser(ctx, "Ann Owner", "owner", org.ID)
	w := fx.CreateWorker(ctx, "Will Worker", org.ID)
	fx.CreateDisabledUser(ctx, "Gil Gone", org.ID)
	fx.CreateUser(ctx, "Olga Other", "owner", other.ID)

	ids, err := store.ListOrganizationUsers(ctx, org.ID)
	if err != nil {
		t.Fatalf("ListOrganizationUsers: %v", err)
	}
	seen := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if len(ids) != 2 || !seen[a.ID] || !seen[w.ID] {
		t.Errorf("expected the two active members, got %v", ids)
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	fetcher := userstore.NewFetcher(db)

	org := fx.CreateOrganization(ctx, "Acme Roofing")
	u := fx.CreateUser(ctx, "Ann Owner", "Owner", org.ID)
	gone := fx.CreateDisabledUser(ctx, "Gil Gone", org.ID)

	su := fetcher.FetchUser(context.Background(), u.ID.Hex())
	if su == nil {
		t.Fatal("expected session user")
	}
	if su.Name != "Ann Owner" || su.Role != "owner" || su.OrganizationID != org.ID.Hex() || su.OrganizationName != "Acme Roofing" {
		t.Errorf("unexpected session user %+v", su)
	}

	if su := fetcher.FetchUser(ctx, gone.ID.Hex()); su != nil {
		t.Errorf("disabled user should not load, got %+v", su)
	}
	if su := fetcher.FetchUser(ctx, "not-an-id"); su != nil {
		t.Errorf("bad id should not load, got %+v", su)
	}
	if su := fetcher.FetchUser(ctx, primitive.NewObjectID().Hex()); su != nil {
		t.Errorf("missing user should not load, got %+v", su)
	}
}
