package rentals

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Source produces a dataset snapshot.
type Source interface {
	Name() string
	Load(ctx context.Context) (Snapshot, error)
}

// Store memoizes the dataset for the process lifetime.
type Store struct {
	source Source
	logger *slog.Logger

	mu      sync.RWMutex
	current *Snapshot
	group   singleflight.Group
}

// NewStore wraps a Source with process-wide memoization.
func NewStore(source Source, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{source: source, logger: logger}
}

// Snapshot returns the cached snapshot, loading it on first use.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur != nil {
		return *cur, nil
	}
	return s.load(ctx, "initial")
}

// Reload re-reads the source and swaps the snapshot. A failed reload keeps the
// previous snapshot.
func (s *Store) Reload(ctx context.Context) (Snapshot, error) {
	return s.load(ctx, "reload")
}

// Loaded reports whether a snapshot is cached.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

func (s *Store) load(ctx context.Context, reason string) (Snapshot, error) {
	ch := s.group.DoChan(reason, func() (interface{}, error) {
		if reason == "initial" {
			s.mu.RLock()
			cur := s.current
			s.mu.RUnlock()
			if cur != nil {
				return *cur, nil
			}
		}
		snap, err := s.source.Load(ctx)
		if err != nil {
			s.logger.Error("load dataset", slog.String("source", s.source.Name()), slog.String("reason", reason), slog.Any("error", err))
			return Snapshot{}, err
		}
		s.mu.Lock()
		s.current = &snap
		s.mu.Unlock()
		s.logger.Info("dataset loaded",
			slog.String("source", snap.Source),
			slog.String("snapshot", snap.ID.String()),
			slog.Int("records", snap.Table.Len()),
			slog.String("reason", reason),
		)
		return snap, nil
	})
	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot), nil
	}
}
