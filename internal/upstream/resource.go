package upstream

import (
	"context"
	"net/http"

	"github.com/weprixetechnologies/cly-admin/internal/shared"
)

// Page is the seller API's paginated list envelope.
type Page[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"limit"`
}

// Resource is the generic remote CRUD capability bound to one API path.
// Every list-and-form page in the dashboard is an instance of it; the pages
// themselves carry no fetch or submit plumbing of their own.
type Resource[T any] struct {
	client *Client
	path   string
}

// NewResource binds a Resource to a path prefix such as "/products".
func NewResource[T any](client *Client, path string) *Resource[T] {
	return &Resource[T]{client: client, path: path}
}

// List fetches one page, echoing the filters as query parameters.
func (r *Resource[T]) List(ctx context.Context, filters shared.ListFilters) (Page[T], error) {
	var page Page[T]
	err := r.client.Do(ctx, http.MethodGet, r.path, filters.Query(), nil, &page)
	return page, err
}

// Get fetches a single entity by its opaque identifier.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := r.client.Do(ctx, http.MethodGet, r.path+"/"+id, nil, nil, &out)
	return out, err
}

// Create submits a new entity and returns the server's copy.
func (r *Resource[T]) Create(ctx context.Context, in any) (T, error) {
	var out T
	err := r.client.Do(ctx, http.MethodPost, r.path, nil, in, &out)
	return out, err
}

// Update submits changed fields and returns the server's copy.
func (r *Resource[T]) Update(ctx context.Context, id string, in any) (T, error) {
	var out T
	err := r.client.Do(ctx, http.MethodPut, r.path+"/"+id, nil, in, &out)
	return out, err
}

// Delete removes an entity.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.client.Do(ctx, http.MethodDelete, r.path+"/"+id, nil, nil, nil)
}

// Document is the singleton counterpart of Resource for content that exists
// exactly once, such as the about page or head-office details.
type Document[T any] struct {
	client *Client
	path   string
}

// NewDocument binds a Document to its API path.
func NewDocument[T any](client *Client, path string) *Document[T] {
	return &Document[T]{client: client, path: path}
}

// Get fetches the document.
func (d *Document[T]) Get(ctx context.Context) (T, error) {
	var out T
	err := d.client.Do(ctx, http.MethodGet, d.path, nil, nil, &out)
	return out, err
}

// Update replaces the document and returns the server's copy.
func (d *Document[T]) Update(ctx context.Context, in any) (T, error) {
	var out T
	err := d.client.Do(ctx, http.MethodPut, d.path, nil, in, &out)
	return out, err
}
