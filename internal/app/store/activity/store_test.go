package activity_test

import (
	"testing"
	"time"

	"github.com/dalemusser/clubbera/internal/app/store/activity"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"github.com/dalemusser/clubbera/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Append_FillsIDAndTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activity.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	entry, err := store.Append(ctx, models.ActivityLog{
		GroupID: primitive.NewObjectID(),
		UserID:  primitive.NewObjectID(),
		Action:  models.ActionJoined,
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if entry.ID.IsZero() {
		t.Error("expected ID to be assigned")
	}
	if entry.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestStore_LatestByAction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activity.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := primitive.NewObjectID()
	alice, bob, carol := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []models.ActivityLog{
		{GroupID: group, UserID: alice, Action: models.ActionJoined, Timestamp: base},
		{GroupID: group, UserID: alice, Action: models.ActionLeft, Timestamp: base.Add(time.Hour)},
		{GroupID: group, UserID: alice, Action: models.ActionJoined, Timestamp: base.Add(2 * time.Hour)},
		{GroupID: group, UserID: bob, Action: models.ActionRequestSent, Timestamp: base},
		{GroupID: primitive.NewObjectID(), UserID: carol, Action: models.ActionJoined, Timestamp: base},
	}
	for _, e := range entries {
		if _, err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := store.LatestByAction(ctx, group, []primitive.ObjectID{alice, bob, carol}, models.ActionJoined)
	if err != nil {
		t.Fatalf("LatestByAction failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 user with a joined entry, got %d", len(got))
	}
	if !got[alice].Equal(base.Add(2 * time.Hour)) {
		t.Errorf("alice joined: got %v, want %v", got[alice], base.Add(2*time.Hour))
	}
}

func TestStore_ListByGroup_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activity.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := primitive.NewObjectID()
	user := primitive.NewObjectID()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, a := range []models.ActivityAction{models.ActionRequestSent, models.ActionRequestApproved, models.ActionJoined} {
		_, err := store.Append(ctx, models.ActivityLog{
			GroupID: group, UserID: user, Action: a, Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	events, err := store.ListByGroup(ctx, group, 10)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Action != models.ActionJoined {
		t.Errorf("first event: got %q, want %q", events[0].Action, models.ActionJoined)
	}
}

func TestStore_ListByUser_AcrossGroups(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activity.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := store.Append(ctx, models.ActivityLog{
			GroupID: primitive.NewObjectID(), UserID: user, Action: models.ActionJoined,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if _, err := store.Append(ctx, models.ActivityLog{
		GroupID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), Action: models.ActionJoined,
	}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	events, err := store.ListByUser(ctx, user, 2)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if !events[0].Timestamp.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("first event timestamp: got %v", events[0].Timestamp)
	}
}
