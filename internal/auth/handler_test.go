package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/upstream"
	"github.com/weprixetechnologies/cly-admin/internal/view"
)

func newTestHandler(t *testing.T, upstreamHandler http.HandlerFunc) (*Handler, *shared.SessionManager, *shared.Session) {
	t.Helper()

	api := httptest.NewServer(upstreamHandler)
	t.Cleanup(api.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sessions := shared.NewSessionManager(rdb, "cly_session", "test-secret", time.Hour, false)
	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	client := upstream.NewClient(api.URL, 5*time.Second, logger, sessions)
	service := NewService(NewGateway(client))

	templates, err := view.NewEngine()
	require.NoError(t, err)

	handler := NewHandler(logger, service, templates, sessions, shared.NewCSRFManager("csrf-secret"))
	return handler, sessions, sess
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func serveAuth(handler *Handler, sess *shared.Session, req *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Route("/auth", handler.MountRoutes)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestShowLoginRendersForm(t *testing.T) {
	handler, _, sess := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no upstream call expected when rendering the form")
	})

	rec := serveAuth(handler, sess, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="email"`)
	assert.Contains(t, body, `name="password"`)
	assert.Contains(t, body, `name="csrf_token"`)
}

func TestShowLoginRedirectsWhenSignedIn(t *testing.T) {
	handler, _, sess := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {})
	sess.SetTokens("access", "refresh")

	rec := serveAuth(handler, sess, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLoginStoresTokensAndRedirects(t *testing.T) {
	handler, _, sess := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login/admin", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "priya@cly.in", body["email"])
		_ = json.NewEncoder(w).Encode(Credentials{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			Admin:        Admin{ID: "admin-1", Name: "Priya"},
		})
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.PostForm = url.Values{"email": {"priya@cly.in"}, "password": {"correct-horse"}}
	rec := serveAuth(handler, sess, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, "access-1", sess.AccessToken())
	assert.Equal(t, "refresh-1", sess.RefreshToken())
	assert.Equal(t, "admin-1", sess.User())
	assert.Equal(t, "Priya", sess.Get(shared.AdminNameKey))
}

func TestLoginShowsInvalidCredentials(t *testing.T) {
	handler, _, sess := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.PostForm = url.Values{"email": {"priya@cly.in"}, "password": {"wrong-password"}}
	rec := serveAuth(handler, sess, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
	assert.False(t, sess.Authenticated())
}

func TestLoginValidatesFormBeforeUpstream(t *testing.T) {
	handler, _, sess := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be called for an invalid form")
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.PostForm = url.Values{"email": {"not-an-email"}, "password": {"short"}}
	rec := serveAuth(handler, sess, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, sess.Authenticated())
}

func TestLogoutDestroysSession(t *testing.T) {
	handler, _, sess := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {})
	sess.SetTokens("access", "refresh")

	rec := serveAuth(handler, sess, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
}
