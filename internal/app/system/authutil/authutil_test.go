package authutil

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubSigner struct{ err error }

func (s stubSigner) Session(id primitive.ObjectID) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "tok-" + id.Hex(), nil
}

type stubStore struct {
	got map[primitive.ObjectID]string
	err error
}

func (s *stubStore) AddToken(_ context.Context, id primitive.ObjectID, tok string) error {
	if s.err != nil {
		return s.err
	}
	s.got[id] = tok
	return nil
}

func TestIssueSession(t *testing.T) {
	id := primitive.NewObjectID()
	store := &stubStore{got: map[primitive.ObjectID]string{}}

	tok, err := IssueSession(context.Background(), stubSigner{}, store, id)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	if tok != "tok-"+id.Hex() {
		t.Errorf("token: got %q", tok)
	}
	if store.got[id] != tok {
		t.Errorf("token not stored")
	}
}

func TestIssueSession_Errors(t *testing.T) {
	id := primitive.NewObjectID()

	if _, err := IssueSession(context.Background(), stubSigner{err: errors.New("sign")}, &stubStore{got: map[primitive.ObjectID]string{}}, id); err == nil {
		t.Error("expected signing error")
	}
	if _, err := IssueSession(context.Background(), stubSigner{}, &stubStore{err: errors.New("db")}, id); err == nil {
		t.Error("expected store error")
	}
}

func TestRandomPassword(t *testing.T) {
	a, err := RandomPassword(16)
	if err != nil {
		t.Fatalf("RandomPassword: %v", err)
	}
	b, _ := RandomPassword(16)
	if len(a) < 16 {
		t.Errorf("too short: %q", a)
	}
	if a == b {
		t.Error("expected distinct passwords")
	}
}
