package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/weprixetechnologies/cly-admin/internal/analytics"
)

// AnalyticsWarmupJob invalidates and refills the metric cache on a schedule
// so dashboard loads stay cheap around the clock.
type AnalyticsWarmupJob struct {
	Analytics *analytics.Service
	Logger    *slog.Logger
}

// NewAnalyticsWarmupJob wires dependencies for the warmup handler.
func NewAnalyticsWarmupJob(service *analytics.Service, logger *slog.Logger) *AnalyticsWarmupJob {
	return &AnalyticsWarmupJob{Analytics: service, Logger: logger}
}

// Handle processes analytics warmup tasks.
func (j *AnalyticsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Analytics == nil {
		return errors.New("analytics warmup: handler not configured")
	}
	logger := j.logger()
	logger.Info("starting analytics warmup")

	if err := j.Analytics.Invalidate(ctx); err != nil {
		logger.Error("invalidate metric cache", slog.Any("error", err))
		return err
	}
	if err := j.Analytics.Warm(ctx); err != nil {
		logger.Error("warm metric cache", slog.Any("error", err))
		return err
	}
	logger.Info("analytics warmup complete")
	return nil
}

func (j *AnalyticsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
