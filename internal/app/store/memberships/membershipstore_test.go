package membershipstore_test

import (
	"errors"
	"testing"

	membershipstore "github.com/dalemusser/clubbera/internal/app/store/memberships"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"github.com/dalemusser/clubbera/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newStore(t *testing.T) (*membershipstore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	return store, testutil.NewFixtures(t, db)
}

func TestStore_GetNone(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	state, err := store.Get(ctx, primitive.NewObjectID(), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if state != models.StateNone {
		t.Errorf("state: got %q, want none", state)
	}
}

func TestStore_InsertTwiceFails(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, u := primitive.NewObjectID(), primitive.NewObjectID()
	if err := store.Insert(ctx, g, u, models.StateMember); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	err := store.Insert(ctx, g, u, models.StateRequested)
	if !errors.Is(err, membershipstore.ErrStateChanged) {
		t.Errorf("second Insert: got %v, want ErrStateChanged", err)
	}

	state, _ := store.Get(ctx, g, u)
	if state != models.StateMember {
		t.Errorf("state: got %q, want %q", state, models.StateMember)
	}
}

func TestStore_TransitionRequiresFromState(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, u := primitive.NewObjectID(), primitive.NewObjectID()
	if err := store.Insert(ctx, g, u, models.StateRequested); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Wrong from-state leaves the document untouched.
	err := store.Transition(ctx, g, u, []models.MembershipState{models.StateMember}, models.StateModerator)
	if !errors.Is(err, membershipstore.ErrStateChanged) {
		t.Fatalf("Transition: got %v, want ErrStateChanged", err)
	}

	err = store.Transition(ctx, g, u, []models.MembershipState{models.StateRequested}, models.StateMember)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	state, _ := store.Get(ctx, g, u)
	if state != models.StateMember {
		t.Errorf("state: got %q, want %q", state, models.StateMember)
	}
}

func TestStore_TransitionToNoneDeletes(t *testing.T) {
	store, fx := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, u := primitive.NewObjectID(), primitive.NewObjectID()
	if err := store.Insert(ctx, g, u, models.StateBanned); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	err := store.Transition(ctx, g, u, []models.MembershipState{models.StateBanned}, models.StateNone)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	n, err := fx.DB().Collection(membershipstore.Collection).CountDocuments(ctx, bson.M{"group_id": g})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected document removed, found %d", n)
	}
}

func TestStore_Upsert(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := primitive.NewObjectID()
	fromAny := []models.MembershipState{models.StateNone, models.StateRequested, models.StateMember}

	tests := []struct {
		name  string
		start models.MembershipState
	}{
		{"from none", models.StateNone},
		{"from requested", models.StateRequested},
		{"from member", models.StateMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := primitive.NewObjectID()
			if tt.start != models.StateNone {
				if err := store.Insert(ctx, g, u, tt.start); err != nil {
					t.Fatalf("Insert failed: %v", err)
				}
			}
			prev, err := store.Upsert(ctx, g, u, fromAny, models.StateBanned)
			if err != nil {
				t.Fatalf("Upsert failed: %v", err)
			}
			if prev != tt.start {
				t.Errorf("prev: got %q, want %q", prev, tt.start)
			}
			state, _ := store.Get(ctx, g, u)
			if state != models.StateBanned {
				t.Errorf("state: got %q, want banned", state)
			}
		})
	}

	// Moderators are not in the allowed set.
	mod := primitive.NewObjectID()
	_ = store.Insert(ctx, g, mod, models.StateModerator)
	if _, err := store.Upsert(ctx, g, mod, fromAny, models.StateBanned); !errors.Is(err, membershipstore.ErrStateChanged) {
		t.Errorf("Upsert moderator: got %v, want ErrStateChanged", err)
	}
}

func TestStore_ListAndCount(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := primitive.NewObjectID()
	states := []models.MembershipState{
		models.StateMember, models.StateMember, models.StateModerator,
		models.StateRequested, models.StateBanned,
	}
	for _, s := range states {
		if err := store.Insert(ctx, g, primitive.NewObjectID(), s); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	members, err := store.CountByGroup(ctx, g, models.StateMember, models.StateModerator)
	if err != nil {
		t.Fatalf("CountByGroup failed: %v", err)
	}
	if members != 3 {
		t.Errorf("members: got %d, want 3", members)
	}

	reqs, err := store.ListByGroup(ctx, g, models.StateRequested)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(reqs) != 1 {
		t.Errorf("requests: got %d, want 1", len(reqs))
	}

	all, _ := store.CountByGroup(ctx, g)
	if all != int64(len(states)) {
		t.Errorf("all: got %d, want %d", all, len(states))
	}

	deleted, err := store.DeleteByGroup(ctx, g)
	if err != nil {
		t.Fatalf("DeleteByGroup failed: %v", err)
	}
	if deleted != int64(len(states)) {
		t.Errorf("deleted: got %d, want %d", deleted, len(states))
	}
}

func TestStore_GroupIDsForUser(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := primitive.NewObjectID()
	member, requested := primitive.NewObjectID(), primitive.NewObjectID()
	if err := store.Insert(ctx, member, u, models.StateMember); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, requested, u, models.StateRequested); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	ids, err := store.GroupIDsForUser(ctx, u, models.StateMember)
	if err != nil {
		t.Fatalf("GroupIDsForUser failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != member {
		t.Errorf("member groups: got %v, want [%s]", ids, member.Hex())
	}

	all, err := store.GroupIDsForUser(ctx, u)
	if err != nil {
		t.Fatalf("GroupIDsForUser failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all groups: got %d, want 2", len(all))
	}
}
