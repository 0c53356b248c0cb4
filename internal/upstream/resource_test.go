package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weprixetechnologies/cly-admin/internal/shared"
)

type sample struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newRecordingServer(t *testing.T, response string) (*Client, *http.Request, *url.Values) {
	t.Helper()
	var captured http.Request
	var query url.Values
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(api.Close)
	return NewClient(api.URL, 5*time.Second, testLogger(), nil), &captured, &query
}

func authedCtx(t *testing.T) context.Context {
	t.Helper()
	return shared.ContextWithSession(context.Background(), sessionWithTokens("token", ""))
}

func TestResourceListEchoesFilters(t *testing.T) {
	client, req, query := newRecordingServer(t, `{"items":[{"id":"p-1","name":"Silk Saree"}],"total":41,"page":2,"limit":20}`)
	resource := NewResource[sample](client, "/product/admin")

	filters := shared.ListFilters{Page: 2, Limit: 20, Search: "silk", SortBy: "name", SortDir: "desc"}
	page, err := resource.List(authedCtx(t), filters)
	require.NoError(t, err)

	assert.Equal(t, "/product/admin", req.URL.Path)
	assert.Equal(t, "2", query.Get("page"))
	assert.Equal(t, "20", query.Get("limit"))
	assert.Equal(t, "silk", query.Get("search"))
	assert.Equal(t, "name", query.Get("sort"))
	assert.Equal(t, "desc", query.Get("dir"))

	require.Len(t, page.Items, 1)
	assert.Equal(t, "Silk Saree", page.Items[0].Name)
	assert.Equal(t, 41, page.Total)
	assert.Equal(t, 20, page.PerPage)
}

func TestResourcePathsAndMethods(t *testing.T) {
	cases := []struct {
		name       string
		call       func(context.Context, *Resource[sample]) error
		wantMethod string
		wantPath   string
	}{
		{
			name: "get",
			call: func(ctx context.Context, r *Resource[sample]) error {
				_, err := r.Get(ctx, "p-9")
				return err
			},
			wantMethod: http.MethodGet,
			wantPath:   "/product/admin/p-9",
		},
		{
			name: "create",
			call: func(ctx context.Context, r *Resource[sample]) error {
				_, err := r.Create(ctx, sample{Name: "New"})
				return err
			},
			wantMethod: http.MethodPost,
			wantPath:   "/product/admin",
		},
		{
			name: "update",
			call: func(ctx context.Context, r *Resource[sample]) error {
				_, err := r.Update(ctx, "p-9", sample{Name: "Changed"})
				return err
			},
			wantMethod: http.MethodPut,
			wantPath:   "/product/admin/p-9",
		},
		{
			name: "delete",
			call: func(ctx context.Context, r *Resource[sample]) error {
				return r.Delete(ctx, "p-9")
			},
			wantMethod: http.MethodDelete,
			wantPath:   "/product/admin/p-9",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, req, _ := newRecordingServer(t, `{"id":"p-9","name":"Stub"}`)
			resource := NewResource[sample](client, "/product/admin")

			require.NoError(t, tc.call(authedCtx(t), resource))
			assert.Equal(t, tc.wantMethod, req.Method)
			assert.Equal(t, tc.wantPath, req.URL.Path)
		})
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	client, req, _ := newRecordingServer(t, `{"id":"about","name":"About Us"}`)
	doc := NewDocument[sample](client, "/content/admin/about")
	ctx := authedCtx(t)

	got, err := doc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "About Us", got.Name)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/content/admin/about", req.URL.Path)

	_, err = doc.Update(ctx, sample{Name: "Updated"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/content/admin/about", req.URL.Path)
}
