package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/velodash/velodash/internal/analytics"
	jobmetrics "github.com/velodash/velodash/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Refresher reloads the dataset and invalidates cached results on change.
type Refresher interface {
	Refresh(ctx context.Context) (analytics.RefreshResult, error)
}

// DatasetReloadJob reloads the rental snapshot on a schedule.
type DatasetReloadJob struct {
	Refresher Refresher
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewDatasetReloadJob wires dependencies for the reload handler.
func NewDatasetReloadJob(refresher Refresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *DatasetReloadJob {
	return &DatasetReloadJob{Refresher: refresher, Logger: logger, Metrics: metrics}
}

// Handle processes dataset reload tasks.
func (j *DatasetReloadJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Refresher == nil {
		return errors.New("dataset reload: handler not configured")
	}
	var payload DatasetReloadPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Reason == "" {
		payload.Reason = "scheduled"
	}

	metrics := pickMetrics(j.Metrics)
	tracker := metrics.Track(TaskDatasetReload)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := jobLogger(j.Logger, TaskDatasetReload).With(slog.String("reason", payload.Reason))
	result, err := j.Refresher.Refresh(ctx)
	if err != nil {
		logger.Error("reload dataset", slog.Any("error", err))
		return err
	}
	metrics.RecordReload(result.Changed)
	logger.Info("dataset reloaded",
		slog.String("snapshot", result.Current.String()),
		slog.Bool("changed", result.Changed),
		slog.Int("records", result.Records),
	)
	return nil
}

func pickMetrics(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m != nil {
		return m
	}
	return defaultJobMetrics
}

func jobLogger(logger *slog.Logger, job string) *slog.Logger {
	if logger != nil {
		return logger.With(slog.String("job", job))
	}
	return slog.Default().With(slog.String("job", job))
}
