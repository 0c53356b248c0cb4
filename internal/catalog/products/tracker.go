package products

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Export job states.
const (
	ExportPending = "pending"
	ExportReady   = "ready"
	ExportFailed  = "failed"
)

// ExportStatus is the tracked state of one catalog export run.
type ExportStatus struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	File      string    `json:"file,omitempty"`
	Rows      int       `json:"rows,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrExportUnknown means no export with that identifier is being tracked.
var ErrExportUnknown = errors.New("export not found")

// ExportTracker records export progress in Redis so the status page and the
// worker see the same state.
type ExportTracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewExportTracker builds an ExportTracker. Entries expire after ttl so
// abandoned exports clean themselves up.
func NewExportTracker(client *redis.Client, ttl time.Duration) *ExportTracker {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ExportTracker{client: client, ttl: ttl}
}

// Begin records a fresh pending export.
func (t *ExportTracker) Begin(ctx context.Context, id string) error {
	return t.put(ctx, ExportStatus{ID: id, State: ExportPending, CreatedAt: time.Now()})
}

// Finish marks an export ready and records the file it produced.
func (t *ExportTracker) Finish(ctx context.Context, id, file string, rows int) error {
	status, err := t.Get(ctx, id)
	if err != nil {
		status = ExportStatus{ID: id, CreatedAt: time.Now()}
	}
	status.State = ExportReady
	status.File = file
	status.Rows = rows
	status.Error = ""
	return t.put(ctx, status)
}

// Fail marks an export failed with a reason.
func (t *ExportTracker) Fail(ctx context.Context, id, reason string) error {
	status, err := t.Get(ctx, id)
	if err != nil {
		status = ExportStatus{ID: id, CreatedAt: time.Now()}
	}
	status.State = ExportFailed
	status.Error = reason
	return t.put(ctx, status)
}

// Get reads the tracked state of an export.
func (t *ExportTracker) Get(ctx context.Context, id string) (ExportStatus, error) {
	data, err := t.client.Get(ctx, t.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ExportStatus{}, ErrExportUnknown
		}
		return ExportStatus{}, err
	}
	var status ExportStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return ExportStatus{}, err
	}
	return status, nil
}

func (t *ExportTracker) put(ctx context.Context, status ExportStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return t.client.Set(ctx, t.key(status.ID), data, t.ttl).Err()
}

func (t *ExportTracker) key(id string) string {
	return "export:products:" + id
}
