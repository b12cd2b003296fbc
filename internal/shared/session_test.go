package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionManager(client, "test_session", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	sess := &Session{isNew: true}
	sess.SetUserID(42)

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))
	require.NotEmpty(t, sess.ID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])

	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.Equal(t, int64(42), loaded.UserID())
}

func TestSessionDestroy(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	sess := &Session{isNew: true}
	sess.SetUserID(7)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))

	sess.Destroy()
	rec2 := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec2, sess))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.Zero(t, loaded.UserID())
}

func TestActorIDFailsClosed(t *testing.T) {
	_, err := ActorID(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)

	ctx := ContextWithSession(context.Background(), &Session{})
	_, err = ActorID(ctx)
	require.ErrorIs(t, err, ErrNotAuthenticated)

	sess := &Session{}
	sess.SetUserID(9)
	ctx = ContextWithSession(context.Background(), sess)
	id, err := ActorID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(9), id)
}
