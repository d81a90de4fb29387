package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/dalemusser/clubbera/internal/domain/models"
)

// WithUser attaches u to the request as if the bearer gate had resolved it.
func WithUser(r *http.Request, u models.User) *http.Request {
	tok := "test-token"
	if len(u.Tokens) > 0 {
		tok = u.Tokens[0].Token
	}
	return auth.WithUser(r, &u, tok)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request whose body is v encoded as JSON.
func NewJSONRequest(method, target string, v any) *http.Request {
	var buf bytes.Buffer
	if v != nil {
		_ = json.NewEncoder(&buf).Encode(v)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q: %s", expected, r.Body.String())
	}
}

// AssertError checks for an {"error": msg} body.
func (r *ResponseRecorder) AssertError(t interface{ Errorf(string, ...any) }, msg string) {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(r.Body.Bytes(), &body); err != nil {
		t.Errorf("decode error body: %v (%s)", err, r.Body.String())
		return
	}
	if body.Error != msg {
		t.Errorf("error: got %q, want %q", body.Error, msg)
	}
}

// Decode unmarshals the response body into v.
func (r *ResponseRecorder) Decode(t interface {
	Fatalf(string, ...any)
}, v any) {
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body: %v (%s)", err, r.Body.String())
	}
}
