package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Window(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Stop()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, _ := l.Allow(ctx, "k")
	assert.False(t, ok, "third request in window")

	ok, _ = l.Allow(ctx, "other")
	assert.True(t, ok, "separate key")

	now = now.Add(61 * time.Second)
	ok, _ = l.Allow(ctx, "k")
	assert.True(t, ok, "new window")
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "k")
	require.True(t, ok)
	ok, _ = l.Allow(ctx, "k")
	require.False(t, ok)

	require.NoError(t, l.Reset(ctx, "k"))
	ok, _ = l.Allow(ctx, "k")
	assert.True(t, ok, "reset starts a fresh window")
}

func TestKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "10.0.0.7|/login", Key(r))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"remote addr", nil, "10.0.0.1:1234", "10.0.0.1"},
		{"remote without port", nil, "10.0.0.1", "10.0.0.1"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, "10.0.0.1:1", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": " 9.9.9.9 "}, "10.0.0.1:1", "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

type failing struct{}

func (failing) Allow(context.Context, string) (bool, error) { return false, errors.New("down") }
func (failing) Reset(context.Context, string) error { return errors.New("down") }

func TestMiddleware(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()
	h := Middleware(l, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())

	// Different path, separate budget.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signup", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_FailsOpen(t *testing.T) {
	h := Middleware(failing{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("CLUBBERA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CLUBBERA_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ctx := context.Background()
	prefix := "clubbera:test:" + time.Now().Format("150405.000000") + ":"
	l := NewRedis(rdb, prefix, 2, time.Minute)

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := rdb.TTL(ctx, prefix+"ip").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, l.Reset(ctx, "ip"))
	ok, err = l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, ok)
}
