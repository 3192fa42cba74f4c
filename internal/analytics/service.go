package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/velodash/velodash/internal/rentals"
)

// ErrNoData is returned when the loaded dataset has no records.
var ErrNoData = errors.New("analytics: dataset has no records")

// SnapshotStore exposes the memoized dataset.
type SnapshotStore interface {
	Snapshot(ctx context.Context) (rentals.Snapshot, error)
	Reload(ctx context.Context) (rentals.Snapshot, error)
}

// Service coordinates metric computation with the cache layer.
type Service struct {
	store SnapshotStore
	cache *Cache
}

// NewService wires a SnapshotStore with a Cache helper.
func NewService(store SnapshotStore, cache *Cache) *Service {
	return &Service{store: store, cache: cache}
}

// Snapshot returns the current dataset snapshot.
func (s *Service) Snapshot(ctx context.Context) (rentals.Snapshot, error) {
	return s.store.Snapshot(ctx)
}

// GetComparison computes the daily report for date. A zero date selects the
// latest date of the dataset.
func (s *Service) GetComparison(ctx context.Context, date time.Time) (Comparison, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return Comparison{}, err
	}
	if date.IsZero() {
		latest, ok := snap.Table.Latest()
		if !ok {
			return Comparison{}, ErrNoData
		}
		date = latest
	}
	date = rentals.Day(date)
	loader := func(context.Context) (interface{}, error) {
		return ComputeComparison(snap.Table, date), nil
	}
	var out Comparison
	if err := s.fetch(ctx, "comparison", keyComparison(snap.ID.String(), date), &out, loader); err != nil {
		return Comparison{}, err
	}
	return out, nil
}

// GetTrend returns the per-day totals of the last days ending at the latest date.
func (s *Service) GetTrend(ctx context.Context, days int) ([]DailyTotal, error) {
	if days <= 0 {
		days = TrendWindowDays
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	latest, ok := snap.Table.Latest()
	if !ok {
		return nil, ErrNoData
	}
	loader := func(context.Context) (interface{}, error) {
		return RecentTrend(snap.Table, latest, days), nil
	}
	var out []DailyTotal
	if err := s.fetch(ctx, "trend", keyTrend(snap.ID.String(), latest, days), &out, loader); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOverview aggregates the records selected by f.
func (s *Service) GetOverview(ctx context.Context, f Filter) (Overview, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return Overview{}, err
	}
	loader := func(context.Context) (interface{}, error) {
		ov, err := BuildOverview(snap.Table, f)
		if err != nil {
			return nil, err
		}
		return ov, nil
	}
	var out Overview
	if err := s.fetch(ctx, "overview", keyOverview(snap.ID.String(), f), &out, loader); err != nil {
		return Overview{}, err
	}
	return out, nil
}

// FilteredRecords returns the raw records selected by f.
func (s *Service) FilteredRecords(ctx context.Context, f Filter) ([]rentals.DailyRecord, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(snap.Table, f)
}

// DefaultFilter returns the filter selecting the whole dataset.
func (s *Service) DefaultFilter(ctx context.Context) (Filter, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return Filter{}, err
	}
	return DefaultFilter(snap.Table), nil
}

// RefreshResult reports the outcome of a dataset reload.
type RefreshResult struct {
	Previous uuid.UUID `json:"previous"`
	Current  uuid.UUID `json:"current"`
	Records  int       `json:"records"`
	Changed  bool      `json:"changed"`
}

// Refresh reloads the dataset and bumps the cache version when the content
// differs from the snapshot last published to the shared cache. Without a
// published ID the comparison falls back to the snapshot held before reload,
// or reports a change when Redis is reachable but holds no record yet.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	prev, err := s.store.Snapshot(ctx)
	if err != nil {
		return RefreshResult{}, err
	}
	published, known, err := s.cache.PublishedSnapshot(ctx)
	if err != nil {
		return RefreshResult{}, err
	}
	next, err := s.store.Reload(ctx)
	if err != nil {
		return RefreshResult{}, err
	}
	result := RefreshResult{
		Previous: prev.ID,
		Current:  next.ID,
		Records:  next.Table.Len(),
	}
	switch {
	case known:
		if id, perr := uuid.Parse(published); perr == nil {
			result.Previous = id
		}
		result.Changed = published != next.ID.String()
	case s.cache.Enabled():
		result.Changed = true
	default:
		result.Changed = prev.ID != next.ID
	}
	if !result.Changed {
		return result, nil
	}
	if err := s.cache.PublishSnapshot(ctx, next.ID.String()); err != nil {
		return result, err
	}
	if err := s.cache.Bump(ctx); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Service) fetch(ctx context.Context, kind, base string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	key, err := s.cache.BuildKey(ctx, base)
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, kind, key, dest, loader)
}
