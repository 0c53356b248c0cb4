package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSessionManager(rdb, "cly_session", "test-secret", time.Hour, false)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	t.Fatalf("no %s cookie in response", name)
	return nil
}

func TestFlashSurvivesRedirect(t *testing.T) {
	sm := newTestSessionManager(t)

	// POST leg queues the flash and commits before redirecting.
	post := httptest.NewRequest(http.MethodPost, "/orders/ord-1/payments", nil)
	sess, err := sm.Load(context.Background(), post)
	require.NoError(t, err)
	sess.AddFlash(FlashMessage{Kind: "success", Message: "Payment recorded"})
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, post, sess))

	// Follow-up GET must still see the flash.
	get := httptest.NewRequest(http.MethodGet, "/orders/ord-1", nil)
	get.AddCookie(sessionCookie(t, rec, "cly_session"))
	next, err := sm.Load(context.Background(), get)
	require.NoError(t, err)
	flash := next.PopFlash()
	require.NotNil(t, flash, "flash queued before the redirect must be visible on the next request")
	assert.Equal(t, "success", flash.Kind)
	assert.Equal(t, "Payment recorded", flash.Message)

	// Popping consumed it; once that request commits the flash is gone.
	rec2 := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec2, get, next))
	again := httptest.NewRequest(http.MethodGet, "/orders/ord-1", nil)
	again.AddCookie(sessionCookie(t, rec2, "cly_session"))
	final, err := sm.Load(context.Background(), again)
	require.NoError(t, err)
	assert.Nil(t, final.PopFlash())
}

func TestCommitRoundTripsTokensAndValues(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetTokens("access-1", "refresh-1")
	sess.SetUser("admin-1")
	sess.Set(AdminNameKey, "Priya")
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, req, sess))

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(sessionCookie(t, rec, "cly_session"))
	loaded, err := sm.Load(context.Background(), next)
	require.NoError(t, err)
	assert.Equal(t, "access-1", loaded.AccessToken())
	assert.Equal(t, "refresh-1", loaded.RefreshToken())
	assert.Equal(t, "admin-1", loaded.User())
	assert.Equal(t, "Priya", loaded.Get(AdminNameKey))
}
