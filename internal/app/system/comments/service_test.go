package comments_test

import (
	"context"
	"strings"
	"testing"

	activitystore "github.com/dalemusser/clubbera/internal/app/store/activity"
	commentstore "github.com/dalemusser/clubbera/internal/app/store/comments"
	groupstore "github.com/dalemusser/clubbera/internal/app/store/groups"
	membershipstore "github.com/dalemusser/clubbera/internal/app/store/memberships"
	userstore "github.com/dalemusser/clubbera/internal/app/store/users"
	"github.com/dalemusser/clubbera/internal/app/system/apperr"
	"github.com/dalemusser/clubbera/internal/app/system/comments"
	"github.com/dalemusser/clubbera/internal/app/system/membership"
	"github.com/dalemusser/clubbera/internal/app/system/txn"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"github.com/dalemusser/clubbera/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fixture struct {
	svc    *comments.Service
	fx     *testutil.Fixtures
	owner  models.User
	member models.User
	group  models.Group
}

func setup(t *testing.T) (*fixture, context.Context) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	ms := membershipstore.New(db)
	runner := txn.New(nil, nil)
	eng := membership.New(ms, userstore.New(db), activitystore.New(db), runner, nil, zap.NewNop())
	svc := comments.New(commentstore.New(db), groupstore.New(db), eng, activitystore.New(db), runner, nil, zap.NewNop())

	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateUser(ctx, "Owner", "owner@example.com", "")
	member := fx.CreateUser(ctx, "Mem", "mem@example.com", "")
	g := fx.CreateGroup(ctx, "Book Club", owner.ID, false)
	fx.CreateMembership(ctx, g.ID, member.ID, models.StateMember)

	return &fixture{svc: svc, fx: fx, owner: owner, member: member, group: g}, ctx
}

func TestCleanContent(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr string
	}{
		{"plain", "  hello  ", "hello", ""},
		{"markup stripped", "<b>hi</b> there", "hi there", ""},
		{"empty", "   ", "", comments.MsgContentRequired},
		{"only markup", "<br/><p></p>", "", comments.MsgContentRequired},
		{"too long", strings.Repeat("a", comments.MaxLength+1), "", comments.MsgContentTooLong},
		{"at limit", strings.Repeat("a", comments.MaxLength), strings.Repeat("a", comments.MaxLength), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := comments.CleanContent(tt.in)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("err: got %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCreate_RequiresMembership(t *testing.T) {
	f, ctx := setup(t)
	stranger := f.fx.CreateUser(ctx, "Str", "str@example.com", "")

	_, err := f.svc.Create(ctx, &stranger, f.group.ID, "hi")
	if apperr.KindOf(err) != apperr.KindForbidden || err.Error() != comments.MsgMustBeMember {
		t.Errorf("stranger: got %v", err)
	}

	_, err = f.svc.Create(ctx, &f.member, primitive.NewObjectID(), "hi")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("missing group: got %v", err)
	}

	// Owner has no membership document but may comment.
	c, err := f.svc.Create(ctx, &f.owner, f.group.ID, "welcome")
	if err != nil {
		t.Fatalf("owner Create: %v", err)
	}
	if c.Target.Kind != models.TargetGroup || c.Target.ID != f.group.ID {
		t.Errorf("target: got %+v", c.Target)
	}
}

func TestDeleteOwn_BlockedByReplies(t *testing.T) {
	f, ctx := setup(t)

	c, err := f.svc.Create(ctx, &f.member, f.group.ID, "first")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	r, err := f.svc.Reply(ctx, &f.owner, c.ID, "reply")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if r.Target.Kind != models.TargetComment || r.Target.ID != c.ID {
		t.Errorf("reply target: got %+v", r.Target)
	}

	err = f.svc.DeleteOwn(ctx, &f.member, c.ID)
	if apperr.KindOf(err) != apperr.KindValidation || err.Error() != comments.MsgHasReplies {
		t.Fatalf("delete with replies: got %v", err)
	}

	err = f.svc.DeleteOwn(ctx, &f.member, r.ID)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("delete someone else's reply: got %v", err)
	}

	if err := f.svc.DeleteOwn(ctx, &f.owner, r.ID); err != nil {
		t.Fatalf("delete reply: %v", err)
	}
	if err := f.svc.DeleteOwn(ctx, &f.member, c.ID); err != nil {
		t.Fatalf("delete comment after reply removed: %v", err)
	}
}

func TestReply_OneLevelOnly(t *testing.T) {
	f, ctx := setup(t)

	c, _ := f.svc.Create(ctx, &f.member, f.group.ID, "first")
	r, err := f.svc.Reply(ctx, &f.owner, c.ID, "second")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	_, err = f.svc.Reply(ctx, &f.member, r.ID, "third")
	if apperr.KindOf(err) != apperr.KindNotFound || err.Error() != comments.MsgGroupNotFound {
		t.Fatalf("reply to reply: got %v, want %q", err, comments.MsgGroupNotFound)
	}
	_, total, err := f.svc.ListReplies(ctx, r.ID, commentstore.ListParams{})
	if err != nil || total != 0 {
		t.Errorf("nested reply stored: total=%d err=%v", total, err)
	}

	stranger := f.fx.CreateUser(ctx, "Str", "str@example.com", "")
	_, err = f.svc.Reply(ctx, &stranger, c.ID, "nope")
	if err == nil || err.Error() != comments.MsgMustBeMemberReply {
		t.Errorf("stranger reply: got %v", err)
	}
}

func TestModeratorDelete(t *testing.T) {
	f, ctx := setup(t)
	mod := f.fx.CreateUser(ctx, "Mod", "mod@example.com", "")
	f.fx.CreateMembership(ctx, f.group.ID, mod.ID, models.StateModerator)
	admin := f.fx.CreateAdmin(ctx, "Admin", "admin@example.com")

	c, _ := f.svc.Create(ctx, &f.member, f.group.ID, "first")
	f.svc.Reply(ctx, &f.owner, c.ID, "a")
	f.svc.Reply(ctx, &f.member, c.ID, "b")

	if _, err := f.svc.ModeratorDelete(ctx, &f.member, c.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("plain member: got %v", err)
	}

	n, err := f.svc.ModeratorDelete(ctx, &mod, c.ID)
	if err != nil {
		t.Fatalf("moderator delete: %v", err)
	}
	if n != 2 {
		t.Errorf("replies removed: got %d, want 2", n)
	}
	if _, _, err := f.svc.ListReplies(ctx, c.ID, commentstore.ListParams{}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("comment should be gone: %v", err)
	}

	c2, _ := f.svc.Create(ctx, &f.member, f.group.ID, "second")
	if _, err := f.svc.ModeratorDelete(ctx, &admin, c2.ID); err != nil {
		t.Errorf("admin delete: %v", err)
	}
}

func TestListForGroup_Ordering(t *testing.T) {
	f, ctx := setup(t)
	for _, s := range []string{"one", "two", "three"} {
		if _, err := f.svc.Create(ctx, &f.member, f.group.ID, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, total, err := f.svc.ListForGroup(ctx, f.group.ID, commentstore.ListParams{Desc: true, Limit: 2})
	if err != nil {
		t.Fatalf("ListForGroup: %v", err)
	}
	if total != 3 || len(got) != 2 {
		t.Fatalf("total=%d len=%d", total, len(got))
	}
	if got[0].Content != "three" || got[1].Content != "two" {
		t.Errorf("order: got %q, %q", got[0].Content, got[1].Content)
	}

	got, _, _ = f.svc.ListForGroup(ctx, f.group.ID, commentstore.ListParams{Skip: 2, Limit: 2, Desc: true})
	if len(got) != 1 || got[0].Content != "one" {
		t.Errorf("page 2: got %+v", got)
	}
}
