package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDatasetReload reloads the rental dataset and bumps the result cache.
	TaskDatasetReload = "dataset:reload"
	// TaskAnalyticsWarmup precomputes the default dashboard results.
	TaskAnalyticsWarmup = "analytics:warmup"
)

// DatasetReloadPayload describes why a reload was requested.
type DatasetReloadPayload struct {
	Reason string `json:"reason"`
}

// AnalyticsWarmupPayload selects the trend window to precompute.
type AnalyticsWarmupPayload struct {
	TrendDays int `json:"trend_days"`
}

// NewDatasetReloadTask constructs an Asynq task for a dataset reload.
func NewDatasetReloadTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(DatasetReloadPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDatasetReload, data), nil
}

// NewAnalyticsWarmupTask constructs an Asynq task for the cache warmup.
func NewAnalyticsWarmupTask(trendDays int) (*asynq.Task, error) {
	data, err := json.Marshal(AnalyticsWarmupPayload{TrendDays: trendDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsWarmup, data), nil
}
