package commentstore_test

import (
	"errors"
	"testing"

	commentstore "github.com/dalemusser/clubbera/internal/app/store/comments"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"github.com/dalemusser/clubbera/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newStore(t *testing.T) *commentstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return commentstore.New(db)
}

func TestStore_CreateGet(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID := primitive.NewObjectID()
	c, err := store.Create(ctx, models.Comment{
		Content: "hello",
		Author:  primitive.NewObjectID(),
		Target:  models.GroupTarget(groupID),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got, err := store.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Content != "hello" || got.Target.Kind != models.TargetGroup || got.Target.ID != groupID {
		t.Errorf("GetByID: %+v", got)
	}
	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, commentstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Replies(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := primitive.NewObjectID()
	parent, _ := store.Create(ctx, models.Comment{Content: "p", Author: author, Target: models.GroupTarget(primitive.NewObjectID())})
	for i := 0; i < 3; i++ {
		if _, err := store.Create(ctx, models.Comment{Content: "r", Author: author, Target: models.ReplyTarget(parent.ID)}); err != nil {
			t.Fatalf("Create reply failed: %v", err)
		}
	}

	n, err := store.CountReplies(ctx, parent.ID)
	if err != nil || n != 3 {
		t.Fatalf("CountReplies: got %d, %v", n, err)
	}
	deleted, err := store.DeleteReplies(ctx, parent.ID)
	if err != nil || deleted != 3 {
		t.Fatalf("DeleteReplies: got %d, %v", deleted, err)
	}
	if err := store.Delete(ctx, parent.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, parent.ID); !errors.Is(err, commentstore.ErrNotFound) {
		t.Errorf("second Delete: expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListByTarget(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	target := models.GroupTarget(primitive.NewObjectID())
	var ids []primitive.ObjectID
	for _, body := range []string{"first", "second", "third"} {
		c, err := store.Create(ctx, models.Comment{Content: body, Author: primitive.NewObjectID(), Target: target})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		ids = append(ids, c.ID)
	}
	// A comment on another group is not listed.
	_, _ = store.Create(ctx, models.Comment{Content: "other", Target: models.GroupTarget(primitive.NewObjectID())})

	asc, total, err := store.ListByTarget(ctx, target, commentstore.ListParams{})
	if err != nil {
		t.Fatalf("ListByTarget failed: %v", err)
	}
	if total != 3 || len(asc) != 3 || asc[0].ID != ids[0] {
		t.Errorf("ascending: total=%d got=%v", total, asc)
	}

	desc, _, _ := store.ListByTarget(ctx, target, commentstore.ListParams{SortBy: "createdAt", Desc: true, Limit: 2})
	if len(desc) != 2 || desc[0].ID != ids[2] {
		t.Errorf("descending page: got %v", desc)
	}

	skipped, total, _ := store.ListByTarget(ctx, target, commentstore.ListParams{Skip: 2})
	if total != 3 || len(skipped) != 1 || skipped[0].ID != ids[2] {
		t.Errorf("skip: total=%d got=%v", total, skipped)
	}
}

func TestStore_DeleteByGroup(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := primitive.NewObjectID()
	group, other := primitive.NewObjectID(), primitive.NewObjectID()
	post, _ := store.Create(ctx, models.Comment{Content: "a", Author: author, Target: models.GroupTarget(group)})
	store.Create(ctx, models.Comment{Content: "b", Author: author, Target: models.ReplyTarget(post.ID)})
	store.Create(ctx, models.Comment{Content: "c", Author: author, Target: models.GroupTarget(group)})
	keep, _ := store.Create(ctx, models.Comment{Content: "d", Author: author, Target: models.GroupTarget(other)})

	n, err := store.DeleteByGroup(ctx, group)
	if err != nil {
		t.Fatalf("DeleteByGroup failed: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted: got %d, want 3", n)
	}
	if _, err := store.GetByID(ctx, keep.ID); err != nil {
		t.Errorf("other group's comment: %v", err)
	}

	n, err = store.DeleteByGroup(ctx, group)
	if err != nil || n != 0 {
		t.Errorf("second DeleteByGroup: n=%d err=%v", n, err)
	}
}

func TestValidSortBy(t *testing.T) {
	if !commentstore.ValidSortBy("createdAt") {
		t.Error("createdAt should be valid")
	}
	if commentstore.ValidSortBy("content") {
		t.Error("content should not be a sort key")
	}
}
