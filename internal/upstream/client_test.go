package upstream

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weprixetechnologies/cly-admin/internal/platform/httpx"
	"github.com/weprixetechnologies/cly-admin/internal/shared"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sessionWithTokens(access, refresh string) *shared.Session {
	sess := shared.NewServiceSession("sess-1", access)
	if refresh != "" {
		sess.SetTokens(access, refresh)
	}
	return sess
}

func TestDoAttachesBearerToken(t *testing.T) {
	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"p-1"}`))
	}))
	t.Cleanup(api.Close)

	client := NewClient(api.URL, 5*time.Second, testLogger(), nil)
	ctx := shared.ContextWithSession(context.Background(), sessionWithTokens("token-abc", ""))

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, client.Do(ctx, http.MethodGet, "/product/admin/p-1", nil, nil, &out))
	assert.Equal(t, "Bearer token-abc", gotAuth)
	assert.Equal(t, "p-1", out.ID)
}

func TestDoMapsUpstreamStatuses(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		sentinel error
		contains string
	}{
		{name: "bad request", status: http.StatusBadRequest, body: `{"message":"name is required"}`, sentinel: httpx.ErrValidation, contains: "name is required"},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, body: `{"error":"slug taken"}`, sentinel: httpx.ErrValidation, contains: "slug taken"},
		{name: "unauthorized", status: http.StatusUnauthorized, sentinel: httpx.ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, sentinel: httpx.ErrForbidden},
		{name: "not found", status: http.StatusNotFound, sentinel: httpx.ErrNotFound},
		{name: "conflict", status: http.StatusConflict, body: `{"message":"SKU already exists"}`, sentinel: httpx.ErrDuplicate, contains: "SKU already exists"},
		{name: "server error", status: http.StatusBadGateway, sentinel: httpx.ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(api.Close)

			client := NewClient(api.URL, 5*time.Second, testLogger(), nil)
			// No refresh token, so a 401 surfaces instead of triggering the exchange.
			ctx := shared.ContextWithSession(context.Background(), sessionWithTokens("token", ""))

			err := client.Do(ctx, http.MethodGet, "/order/admin", nil, nil, nil)
			require.ErrorIs(t, err, tc.sentinel)
			if tc.contains != "" {
				assert.Contains(t, err.Error(), tc.contains)
			}
		})
	}
}

func TestDoRefreshesAndRetriesOnUnauthorized(t *testing.T) {
	var refreshCalls atomic.Int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			refreshCalls.Add(1)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "refresh-old", body["refresh_token"])
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"access-new","refresh_token":"refresh-new"}`))
			return
		}
		if r.Header.Get("Authorization") != "Bearer access-new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ord-1"}`))
	}))
	t.Cleanup(api.Close)

	client := NewClient(api.URL, 5*time.Second, testLogger(), nil)
	sess := sessionWithTokens("access-old", "refresh-old")
	ctx := shared.ContextWithSession(context.Background(), sess)

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, client.Do(ctx, http.MethodGet, "/order/admin/ord-1", nil, nil, &out))
	assert.Equal(t, "ord-1", out.ID)
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, "access-new", sess.AccessToken())
	assert.Equal(t, "refresh-new", sess.RefreshToken())
}

func TestDoFailsWhenRefreshRejected(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(api.Close)

	client := NewClient(api.URL, 5*time.Second, testLogger(), nil)
	ctx := shared.ContextWithSession(context.Background(), sessionWithTokens("stale", "stale-refresh"))

	err := client.Do(ctx, http.MethodGet, "/order/admin", nil, nil, nil)
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
}

func TestRefreshCoalescesConcurrentExchanges(t *testing.T) {
	var refreshCalls atomic.Int32
	release := make(chan struct{})
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-new","refresh_token":"refresh-new"}`))
	}))
	t.Cleanup(api.Close)

	client := NewClient(api.URL, 5*time.Second, testLogger(), nil)
	sess := sessionWithTokens("access-old", "refresh-old")
	ctx := shared.ContextWithSession(context.Background(), sess)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.RefreshSession(ctx, sess)
		}(i)
	}
	// Give every goroutine time to join the in-flight exchange before the
	// upstream responds.
	time.Sleep(200 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, "access-new", sess.AccessToken())
	assert.Equal(t, "refresh-new", sess.RefreshToken())
}

func TestDoAnonymousSendsNoToken(t *testing.T) {
	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"a","refresh_token":"r"}`))
	}))
	t.Cleanup(api.Close)

	client := NewClient(api.URL, 5*time.Second, testLogger(), nil)
	var pair TokenPair
	require.NoError(t, client.DoAnonymous(context.Background(), http.MethodPost, "/auth/login", map[string]string{"email": "a@b.c"}, &pair))
	assert.Empty(t, gotAuth)
	assert.Equal(t, "a", pair.AccessToken)
}
