package events_test

import (
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/dalemusser/clubbera/internal/app/features/events"
	activitystore "github.com/dalemusser/clubbera/internal/app/store/activity"
	eventstore "github.com/dalemusser/clubbera/internal/app/store/events"
	groupstore "github.com/dalemusser/clubbera/internal/app/store/groups"
	membershipstore "github.com/dalemusser/clubbera/internal/app/store/memberships"
	userstore "github.com/dalemusser/clubbera/internal/app/store/users"
	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/dalemusser/clubbera/internal/app/system/authutil"
	"github.com/dalemusser/clubbera/internal/app/system/membership"
	"github.com/dalemusser/clubbera/internal/app/system/objectstore"
	"github.com/dalemusser/clubbera/internal/app/system/tokens"
	"github.com/dalemusser/clubbera/internal/app/system/txn"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"github.com/dalemusser/clubbera/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type env struct {
	router  chi.Router
	fx      *testutil.Fixtures
	issuer  *tokens.Issuer
	users   *userstore.Store
	objects *objectstore.Memory
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	users := userstore.New(db)
	memberships := membershipstore.New(db)
	engine := membership.New(memberships, users, activitystore.New(db), txn.New(nil, logger), nil, logger)
	objects := objectstore.NewMemory("https://cdn.example.test")
	issuer := tokens.NewIssuer(tokens.Config{SessionSecret: "test-secret-test-secret-test-secret"})
	gate := auth.NewGate(issuer, userstore.NewFetcher(db), logger)

	h := events.NewHandler(eventstore.New(db), groupstore.New(db), engine, objects, logger)
	r := chi.NewRouter()
	r.Group(events.Routes(h, gate))
	return &env{router: r, fx: testutil.NewFixtures(t, db), issuer: issuer, users: users, objects: objects}
}

func (e *env) user(t *testing.T, name, email string) (models.User, string) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fx.CreateUser(ctx, name, email, "")
	tok, err := authutil.IssueSession(ctx, e.issuer, e.users, u.ID)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return u, tok
}

func (e *env) do(req *http.Request, token string) *testutil.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type eventBody struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slots     int    `json:"slots"`
	StartTime string `json:"startTime"`
	Banner    *struct {
		Key string `json:"key"`
	} `json:"banner"`
	Attendees []struct {
		User string `json:"user"`
	} `json:"attendees"`
}

func TestCreate(t *testing.T) {
	e := newEnv(t)
	owner, ownerTok := e.user(t, "Owner", "owner@example.com")
	member, memberTok := e.user(t, "Member", "member@example.com")

	ctx, cancel := testutil.TestContext()
	defer cancel()
	g := e.fx.CreateGroup(ctx, "Meetups", owner.ID, false)
	e.fx.CreateMembership(ctx, g.ID, member.ID, models.StateMember)
	path := "/events/" + g.UniqueURL

	rec := e.do(testutil.NewJSONRequest("POST", path, map[string]any{
		"name":       " Picnic ",
		"eventDate":  "2030-06-01",
		"startTime":  "12:30",
		"slots":      20,
		"base64data": base64.StdEncoding.EncodeToString([]byte("img")),
		"fileName":   "picnic.png",
	}), ownerTok)
	rec.AssertStatus(t, http.StatusCreated)
	var body eventBody
	rec.Decode(t, &body)
	if body.Name != "Picnic" || body.Slots != 20 || body.StartTime != "12:30" {
		t.Errorf("event: %+v", body)
	}
	if body.Banner == nil || !e.objects.Has(body.Banner.Key) {
		t.Error("banner should be stored")
	}

	rec = e.do(testutil.NewJSONRequest("POST", path, map[string]any{"name": "Nope"}), memberTok)
	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertError(t, membership.MsgCannotManage)

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"blank name", map[string]any{"name": " "}, "Name is required"},
		{"negative slots", map[string]any{"name": "X", "slots": -1}, "Slots must be at least 0"},
		{"bad date", map[string]any{"name": "X", "eventDate": "June 1st"}, events.MsgInvalidDate},
		{"bad time", map[string]any{"name": "X", "startTime": "noon"}, events.MsgInvalidTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(testutil.NewJSONRequest("POST", path, tt.body), ownerTok)
			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertError(t, tt.want)
		})
	}

	e.do(testutil.NewJSONRequest("POST", "/events/missing-group", map[string]any{"name": "X"}), ownerTok).
		AssertStatus(t, http.StatusNotFound)
}

func TestGetAndUpdate(t *testing.T) {
	e := newEnv(t)
	owner, ownerTok := e.user(t, "Owner", "owner@example.com")
	_, outsiderTok := e.user(t, "Outsider", "out@example.com")

	ctx, cancel := testutil.TestContext()
	defer cancel()
	g := e.fx.CreateGroup(ctx, "Editors", owner.ID, false)
	ev := e.fx.CreateEvent(ctx, g.ID, owner.ID, "Draft", 5)
	path := "/events/" + ev.ID.Hex()

	rec := e.do(testutil.NewRequest("GET", path), "")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Draft")

	rec = e.do(testutil.NewRequest("GET", "/events/"+primitive.NewObjectID().Hex()), "")
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertError(t, events.MsgEventNotFound)

	rec = e.do(testutil.NewJSONRequest("PATCH", path, map[string]any{"name": "X"}), outsiderTok)
	rec.AssertStatus(t, http.StatusForbidden)

	rec = e.do(testutil.NewJSONRequest("PATCH", path, map[string]any{"group": "elsewhere"}), ownerTok)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertError(t, events.MsgInvalidUpdates)

	rec = e.do(testutil.NewJSONRequest("PATCH", path, map[string]any{"name": "Final", "slots": 8, "endTime": "18:00"}), ownerTok)
	rec.AssertStatus(t, http.StatusOK)
	var body eventBody
	rec.Decode(t, &body)
	if body.Name != "Final" || body.Slots != 8 {
		t.Errorf("update not applied: %+v", body)
	}
}

func TestChangeBanner(t *testing.T) {
	e := newEnv(t)
	owner, ownerTok := e.user(t, "Owner", "owner@example.com")

	ctx, cancel := testutil.TestContext()
	defer cancel()
	g := e.fx.CreateGroup(ctx, "Banners", owner.ID, false)
	ev := e.fx.CreateEvent(ctx, g.ID, owner.ID, "Show", 0)
	path := "/events/" + ev.ID.Hex() + "/banner"

	e.do(testutil.NewJSONRequest("PATCH", path, map[string]any{}), ownerTok).AssertStatus(t, http.StatusBadRequest)

	rec := e.do(testutil.NewJSONRequest("PATCH", path, map[string]any{
		"base64data": base64.StdEncoding.EncodeToString([]byte("one")), "fileName": "one.png",
	}), ownerTok)
	rec.AssertStatus(t, http.StatusOK)
	var first eventBody
	rec.Decode(t, &first)

	rec = e.do(testutil.NewJSONRequest("PATCH", path, map[string]any{
		"base64data": base64.StdEncoding.EncodeToString([]byte("two")), "fileName": "two.png",
	}), ownerTok)
	rec.AssertStatus(t, http.StatusOK)
	var second eventBody
	rec.Decode(t, &second)

	if !e.objects.Has(second.Banner.Key) || e.objects.Has(first.Banner.Key) {
		t.Error("banner should be replaced and the old object removed")
	}
}

func TestAttendance(t *testing.T) {
	e := newEnv(t)
	owner, ownerTok := e.user(t, "Owner", "owner@example.com")
	member, memberTok := e.user(t, "Member", "member@example.com")
	_, outsiderTok := e.user(t, "Outsider", "out@example.com")

	ctx, cancel := testutil.TestContext()
	defer cancel()
	g := e.fx.CreateGroup(ctx, "Attendance", owner.ID, false)
	e.fx.CreateMembership(ctx, g.ID, member.ID, models.StateMember)
	ev := e.fx.CreateEvent(ctx, g.ID, owner.ID, "Tiny", 1)
	base := "/events/" + ev.ID.Hex()

	rec := e.do(testutil.NewRequest("POST", base+"/attend"), outsiderTok)
	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertError(t, events.MsgMustBeMember)

	rec = e.do(testutil.NewRequest("POST", base+"/attend"), memberTok)
	rec.AssertStatus(t, http.StatusOK)
	var body eventBody
	rec.Decode(t, &body)
	if len(body.Attendees) != 1 || body.Attendees[0].User != member.ID.Hex() {
		t.Errorf("attendees: %+v", body.Attendees)
	}

	rec = e.do(testutil.NewRequest("POST", base+"/attend"), memberTok)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertError(t, events.MsgAlreadyAttending)

	rec = e.do(testutil.NewRequest("POST", base+"/attend"), ownerTok)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertError(t, events.MsgEventFull)

	e.do(testutil.NewRequest("POST", base+"/unattend"), memberTok).AssertStatus(t, http.StatusOK)
	rec = e.do(testutil.NewRequest("POST", base+"/unattend"), memberTok)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertError(t, events.MsgNotAttending)

	e.do(testutil.NewRequest("POST", base+"/attend"), ownerTok).AssertStatus(t, http.StatusOK)
}
