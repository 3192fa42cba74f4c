package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, DatasetSourceCSV, cfg.DatasetSource)
	assert.Equal(t, "data/day.csv", cfg.DatasetPath)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 2, cfg.WorkerConcurrency)
	assert.Equal(t, "default", cfg.JobsQueue)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigPostgresNeedsDSN(t *testing.T) {
	t.Setenv("DATASET_SOURCE", "Postgres")
	t.Setenv("PG_DSN", "")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("PG_DSN", "postgres://velodash@localhost/velodash")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DatasetSourcePostgres, cfg.DatasetSource)
}

func TestValidateRejectsUnknownSource(t *testing.T) {
	cfg := Config{DatasetSource: "parquet", DatasetPath: "x"}
	assert.Error(t, cfg.Validate())
}

func TestValidateProductionAdminToken(t *testing.T) {
	cfg := Config{AppEnv: "production", DatasetSource: "csv", DatasetPath: "day.csv", AdminToken: "short", WorkerConcurrency: 2, JobsQueue: "default"}
	assert.Error(t, cfg.Validate())
	cfg.AdminToken = "0123456789abcdef"
	assert.NoError(t, cfg.Validate())
}

func TestValidateWorkerSettings(t *testing.T) {
	cfg := Config{DatasetSource: "csv", DatasetPath: "day.csv", WorkerConcurrency: 0, JobsQueue: "default"}
	assert.Error(t, cfg.Validate())
	cfg.WorkerConcurrency = 4
	cfg.JobsQueue = "  "
	assert.Error(t, cfg.Validate())
	cfg.JobsQueue = " reports "
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "reports", cfg.JobsQueue)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel("Warning").String())
	assert.Equal(t, "INFO", parseLevel("").String())
}
