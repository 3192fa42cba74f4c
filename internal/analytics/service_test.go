package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velodash/velodash/internal/rentals"
)

type fakeStore struct {
	current   rentals.Snapshot
	next      rentals.Snapshot
	reloadErr error
	reloads   int
}

func (f *fakeStore) Snapshot(context.Context) (rentals.Snapshot, error) {
	return f.current, nil
}

func (f *fakeStore) Reload(context.Context) (rentals.Snapshot, error) {
	f.reloads++
	if f.reloadErr != nil {
		return rentals.Snapshot{}, f.reloadErr
	}
	f.current = f.next
	return f.current, nil
}

func snapshotOf(t *testing.T, name string, table *rentals.Table) rentals.Snapshot {
	t.Helper()
	return rentals.Snapshot{ID: rentals.ContentID([]byte(name)), Source: "test", LoadedAt: time.Now(), Table: table}
}

func newTestService(t *testing.T, store SnapshotStore) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(store, NewCache(client, time.Minute)), mr
}

func TestGetComparisonDefaultsToLatest(t *testing.T) {
	store := &fakeStore{current: snapshotOf(t, "a", sampleTable(t))}
	svc, _ := newTestService(t, store)

	cmp, err := svc.GetComparison(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, mustDay(t, "2012-06-22"), cmp.Date)
	assert.Equal(t, int64(200), cmp.CurrentTotal)
	assert.Equal(t, int64(400), cmp.YesterdayTotal)
	assert.InDelta(t, -50.0, cmp.DailyChange, 1e-9)
}

func TestGetComparisonServesFromCache(t *testing.T) {
	store := &fakeStore{current: snapshotOf(t, "a", sampleTable(t))}
	svc, mr := newTestService(t, store)
	ctx := context.Background()
	date := mustDay(t, "2012-03-31")

	first, err := svc.GetComparison(ctx, date)
	require.NoError(t, err)
	assert.NotEmpty(t, mr.Keys())

	// Same snapshot ID over different data: a cache hit returns the stored figures.
	empty, err := rentals.NewTable(nil)
	require.NoError(t, err)
	store.current.Table = empty

	second, err := svc.GetComparison(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(120), second.CurrentTotal)
}

func TestGetOverviewCachedPerFilter(t *testing.T) {
	table := sampleTable(t)
	store := &fakeStore{current: snapshotOf(t, "a", table)}
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	all := DefaultFilter(table)
	ov, err := svc.GetOverview(ctx, all)
	require.NoError(t, err)
	assert.Equal(t, int64(1020), ov.Totals.Total)
	assert.Equal(t, all.From, ov.Filter.From)

	summer := DefaultFilter(table)
	summer.Seasons = []string{"Summer"}
	ov, err = svc.GetOverview(ctx, summer)
	require.NoError(t, err)
	assert.Equal(t, int64(600), ov.Totals.Total)
	assert.Equal(t, 2, ov.Days)
}

func TestGetTrendUsesLatestDate(t *testing.T) {
	store := &fakeStore{current: snapshotOf(t, "a", sampleTable(t))}
	svc, _ := newTestService(t, store)

	trend, err := svc.GetTrend(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, trend, 2)
	assert.Equal(t, mustDay(t, "2012-06-22"), trend[1].Date)
}

func TestServiceEmptyDataset(t *testing.T) {
	empty, err := rentals.NewTable(nil)
	require.NoError(t, err)
	svc, _ := newTestService(t, &fakeStore{current: snapshotOf(t, "empty", empty)})

	_, err = svc.GetComparison(context.Background(), time.Time{})
	assert.ErrorIs(t, err, ErrNoData)
	_, err = svc.GetTrend(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRefreshBumpsVersionWhenContentChanges(t *testing.T) {
	table := sampleTable(t)
	store := &fakeStore{current: snapshotOf(t, "a", table), next: snapshotOf(t, "a", table)}
	svc, mr := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.GetComparison(ctx, time.Time{})
	require.NoError(t, err)

	// Nothing published yet: the first refresh announces its snapshot.
	res, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	before, err := mr.Get(cacheVersionKey)
	require.NoError(t, err)
	assert.Equal(t, "2", before)

	res, err = svc.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	after, _ := mr.Get(cacheVersionKey)
	assert.Equal(t, before, after)

	store.next = snapshotOf(t, "b", table)
	res, err = svc.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, snapshotOf(t, "a", table).ID, res.Previous)
	assert.NotEqual(t, uuid.Nil, res.Current)
	assert.Equal(t, table.Len(), res.Records)
	after, _ = mr.Get(cacheVersionKey)
	assert.Equal(t, "3", after)
	assert.Equal(t, 3, store.reloads)
}

func TestRefreshComparesAgainstPublishedSnapshot(t *testing.T) {
	table := sampleTable(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	serverStore := &fakeStore{current: snapshotOf(t, "old", table), next: snapshotOf(t, "old", table)}
	server := NewService(serverStore, NewCache(client, time.Minute))
	_, err := server.Refresh(ctx)
	require.NoError(t, err)
	published, err := mr.Get(snapshotKey)
	require.NoError(t, err)
	assert.Equal(t, serverStore.current.ID.String(), published)

	// A worker started after the file changed loads the new content on its
	// first snapshot, so its own before and after IDs are equal.
	fresh := snapshotOf(t, "new", table)
	worker := NewService(&fakeStore{current: fresh, next: fresh}, NewCache(client, time.Minute))
	res, err := worker.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, serverStore.current.ID, res.Previous)
	assert.Equal(t, fresh.ID, res.Current)
	published, _ = mr.Get(snapshotKey)
	assert.Equal(t, fresh.ID.String(), published)
	ver, _ := mr.Get(cacheVersionKey)
	assert.Equal(t, "2", ver)

	res, err = worker.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestRefreshWithoutCacheComparesLocally(t *testing.T) {
	table := sampleTable(t)
	store := &fakeStore{current: snapshotOf(t, "a", table), next: snapshotOf(t, "a", table)}
	svc := NewService(store, NewCache(nil, time.Minute))

	res, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Changed)

	store.next = snapshotOf(t, "b", table)
	res, err = svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Changed)
}

func TestRefreshReturnsReloadError(t *testing.T) {
	boom := errors.New("boom")
	store := &fakeStore{current: snapshotOf(t, "a", sampleTable(t)), reloadErr: boom}
	svc, _ := newTestService(t, store)

	_, err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCacheWithoutClientCallsLoader(t *testing.T) {
	var cache *Cache
	calls := 0
	var out int
	for i := 0; i < 2; i++ {
		err := cache.FetchJSON(context.Background(), "test", "k", &out, func(context.Context) (interface{}, error) {
			calls++
			return 42, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 42, out)
	assert.Equal(t, 2, calls)
}

func TestCacheSubscribeReceivesBump(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := cache.Subscribe(ctx)

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("")) == 1
	}, time.Second, 10*time.Millisecond)
	require.NoError(t, cache.Bump(ctx))

	select {
	case ver := <-events:
		assert.Equal(t, int64(1), ver)
	case <-time.After(time.Second):
		t.Fatal("bump not delivered")
	}
}
