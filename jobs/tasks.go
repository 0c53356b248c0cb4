package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskProductExport builds the full catalog workbook.
	TaskProductExport = "catalog:product_export"
	// TaskAnalyticsWarmup refreshes the cached dashboard metrics.
	TaskAnalyticsWarmup = "analytics:warmup"
)

// ProductExportPayload identifies which tracked export run a task serves.
type ProductExportPayload struct {
	ExportID string `json:"export_id"`
}

// NewProductExportTask constructs an Asynq task.
func NewProductExportTask(payload ProductExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProductExport, data), nil
}

// NewAnalyticsWarmupTask constructs the scheduled warmup task.
func NewAnalyticsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskAnalyticsWarmup, nil)
}
