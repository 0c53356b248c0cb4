package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hibiken/asynq"

	"github.com/weprixetechnologies/cly-admin/internal/catalog/products"
	"github.com/weprixetechnologies/cly-admin/internal/shared"
	"github.com/weprixetechnologies/cly-admin/internal/upstream"
)

const exportPageSize = 200

// ProductLister pages through the full catalog.
type ProductLister interface {
	List(ctx context.Context, filters shared.ListFilters) (upstream.Page[products.Product], error)
}

// ProductExportJob walks the whole catalog page by page and writes the
// resulting workbook to the export directory.
type ProductExportJob struct {
	Lister    ProductLister
	Tracker   *products.ExportTracker
	ExportDir string
	Logger    *slog.Logger
	PageSize  int
}

// NewProductExportJob wires dependencies for the export handler.
func NewProductExportJob(lister ProductLister, tracker *products.ExportTracker, exportDir string, logger *slog.Logger) *ProductExportJob {
	return &ProductExportJob{
		Lister:    lister,
		Tracker:   tracker,
		ExportDir: exportDir,
		Logger:    logger,
		PageSize:  exportPageSize,
	}
}

// Handle processes catalog export tasks.
func (j *ProductExportJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Lister == nil || j.Tracker == nil {
		return errors.New("product export: handler not configured")
	}
	var payload ProductExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.ExportID == "" {
		return asynq.SkipRetry
	}

	logger := j.logger().With(slog.String("export_id", payload.ExportID))
	logger.Info("starting catalog export")

	items, err := j.collect(ctx)
	if err != nil {
		logger.Error("collect catalog", slog.Any("error", err))
		_ = j.Tracker.Fail(ctx, payload.ExportID, "catalog fetch failed")
		return err
	}

	book, err := products.BuildWorkbook(items)
	if err != nil {
		logger.Error("build workbook", slog.Any("error", err))
		_ = j.Tracker.Fail(ctx, payload.ExportID, "workbook build failed")
		return err
	}

	filename := fmt.Sprintf("products-%s.xlsx", payload.ExportID)
	if err := os.MkdirAll(j.ExportDir, 0o755); err != nil {
		_ = j.Tracker.Fail(ctx, payload.ExportID, "export directory unavailable")
		return err
	}
	if err := book.SaveAs(filepath.Join(j.ExportDir, filename)); err != nil {
		logger.Error("write workbook", slog.Any("error", err))
		_ = j.Tracker.Fail(ctx, payload.ExportID, "workbook write failed")
		return err
	}

	if err := j.Tracker.Finish(ctx, payload.ExportID, filename, len(items)); err != nil {
		return err
	}
	logger.Info("catalog export complete", slog.Int("rows", len(items)))
	return nil
}

// collect pages through the listing until the reported total is reached. An
// empty page also stops the walk so a shrinking catalog cannot loop forever.
func (j *ProductExportJob) collect(ctx context.Context) ([]products.Product, error) {
	size := j.PageSize
	if size <= 0 {
		size = exportPageSize
	}
	var items []products.Product
	for page := 1; ; page++ {
		listing, err := j.Lister.List(ctx, shared.ListFilters{Page: page, Limit: size})
		if err != nil {
			return nil, err
		}
		if len(listing.Items) == 0 {
			return items, nil
		}
		items = append(items, listing.Items...)
		if listing.Total > 0 && len(items) >= listing.Total {
			return items, nil
		}
	}
}

func (j *ProductExportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
