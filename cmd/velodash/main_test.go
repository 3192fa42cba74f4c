package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velodash/velodash/internal/analytics"
	"github.com/velodash/velodash/internal/app"
	"github.com/velodash/velodash/internal/observability"
	"github.com/velodash/velodash/internal/rentals"
	_ "github.com/velodash/velodash/internal/testing/guard"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	require.True(t, app.InTestMode())
	main()
}

func TestOpenSourceDefaultsToCSV(t *testing.T) {
	src, closeFn, err := openSource(context.Background(), &app.Config{DatasetSource: app.DatasetSourceCSV, DatasetPath: "data/day.csv"})
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, "csv:data/day.csv", src.Name())
}

func TestFollowInvalidationsStopsWithoutRedis(t *testing.T) {
	store := rentals.NewStore(rentals.NewCSVSource("missing.csv"), nil)
	done := make(chan struct{})
	go func() {
		followInvalidations(context.Background(), analytics.NewCache(nil, time.Minute), store, observability.NewMetrics(), nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected follower to exit when caching is disabled")
	}
}
