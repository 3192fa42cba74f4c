package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/velodash/velodash/internal/analytics"
	jobmetrics "github.com/velodash/velodash/internal/jobs"
)

// WarmupService is the subset of the analytics service the warmup drives.
type WarmupService interface {
	GetComparison(ctx context.Context, date time.Time) (analytics.Comparison, error)
	GetTrend(ctx context.Context, days int) ([]analytics.DailyTotal, error)
	GetOverview(ctx context.Context, f analytics.Filter) (analytics.Overview, error)
	DefaultFilter(ctx context.Context) (analytics.Filter, error)
}

// AnalyticsWarmupJob pre-populates the result cache for the default dashboard.
type AnalyticsWarmupJob struct {
	Analytics WarmupService
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	Timeout   time.Duration
	clock     func() time.Time
}

// NewAnalyticsWarmupJob wires dependencies for the warmup handler.
func NewAnalyticsWarmupJob(svc WarmupService, logger *slog.Logger, metrics *jobmetrics.Metrics) *AnalyticsWarmupJob {
	return &AnalyticsWarmupJob{
		Analytics: svc,
		Logger:    logger,
		Metrics:   metrics,
		Timeout:   20 * time.Second,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes analytics warmup tasks.
func (j *AnalyticsWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Analytics == nil {
		return errors.New("analytics warmup: handler not configured")
	}
	var payload AnalyticsWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.TrendDays <= 0 {
		payload.TrendDays = analytics.TrendWindowDays
	}

	tracker := pickMetrics(j.Metrics).Track(TaskAnalyticsWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := jobLogger(j.Logger, TaskAnalyticsWarmup)
	start := j.now()
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	cmp, err := j.Analytics.GetComparison(ctx, time.Time{})
	if err != nil {
		if errors.Is(err, analytics.ErrNoData) {
			logger.Info("dataset empty, nothing to warm")
			return nil
		}
		logger.Error("warm comparison", slog.Any("error", err))
		return err
	}
	if _, err := j.Analytics.GetTrend(ctx, payload.TrendDays); err != nil {
		logger.Error("warm trend", slog.Any("error", err))
		return err
	}
	filter, err := j.Analytics.DefaultFilter(ctx)
	if err != nil {
		logger.Error("load default filter", slog.Any("error", err))
		return err
	}
	if _, err := j.Analytics.GetOverview(ctx, filter); err != nil {
		logger.Error("warm overview", slog.Any("error", err))
		return err
	}

	logger.Info("completed analytics warmup",
		slog.Time("reference_date", cmp.Date),
		slog.Duration("duration", j.now().Sub(start)),
	)
	return nil
}

func (j *AnalyticsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
