package perf

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/velodash/velodash/internal/analytics"
	jobmetrics "github.com/velodash/velodash/internal/jobs"
	"github.com/velodash/velodash/internal/rentals"
	"github.com/velodash/velodash/jobs"
)

func TestDatasetJobsThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	source := &memSource{records: syntheticRecords(731)}
	svc := analytics.NewService(rentals.NewStore(source, nil), nil)

	reload := jobs.NewDatasetReloadJob(svc, nil, metrics)
	warmup := jobs.NewAnalyticsWarmupJob(svc, nil, metrics)
	ctx := context.Background()

	for i := 0; i < 40; i++ {
		if err := warmup.Handle(ctx, asynq.NewTask(jobs.TaskAnalyticsWarmup, nil)); err != nil {
			t.Fatalf("warmup %d: %v", i, err)
		}
	}
	for i := 0; i < 20; i++ {
		if err := reload.Handle(ctx, asynq.NewTask(jobs.TaskDatasetReload, nil)); err != nil {
			t.Fatalf("reload %d: %v", i, err)
		}
	}

	// A broken source must surface as failures without replacing the snapshot.
	source.err = errors.New("disk unavailable")
	for i := 0; i < 2; i++ {
		if err := reload.Handle(ctx, asynq.NewTask(jobs.TaskDatasetReload, nil)); err == nil {
			t.Fatal("expected error to propagate")
		}
	}
	if _, err := svc.GetComparison(ctx, analytics.PreviousDay(source.records[len(source.records)-1].Date)); err != nil {
		t.Fatalf("previous snapshot should keep serving: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "velodash_jobs_total", map[string]string{"job": jobs.TaskDatasetReload, "status": "success"})
	failure := metricValue(t, families, "velodash_jobs_total", map[string]string{"job": jobs.TaskDatasetReload, "status": "failure"})
	if success+failure == 0 {
		t.Fatal("no reload executions recorded")
	}
	ratio := success / (success + failure)
	if ratio < 0.9 {
		t.Fatalf("reload success ratio too low: %f", ratio)
	}

	unchanged := metricValue(t, families, "velodash_dataset_reloads_total", map[string]string{"changed": "false"})
	if unchanged != 20 {
		t.Fatalf("expected 20 unchanged reloads, got %f", unchanged)
	}

	reloadDuration := histogramMean(t, families, "velodash_job_duration_seconds", map[string]string{"job": jobs.TaskDatasetReload})
	if reloadDuration > 2.0 {
		t.Fatalf("reload duration above budget: %f", reloadDuration)
	}

	warmDuration := histogramMean(t, families, "velodash_job_duration_seconds", map[string]string{"job": jobs.TaskAnalyticsWarmup})
	if warmDuration > 0.5 {
		t.Fatalf("warmup duration above budget: %f", warmDuration)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	for _, lp := range metric.GetLabel() {
		if val, ok := labels[lp.GetName()]; ok {
			if lp.GetValue() != val {
				return false
			}
		}
	}
	for key := range labels {
		found := false
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == key {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
