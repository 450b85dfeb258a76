package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/logger"
)

// Store holds the current snapshot. Reads are a single atomic load; Rebuild
// builds a new snapshot off to the side and swaps it in.
type Store struct {
	current    atomic.Pointer[Snapshot]
	generation atomic.Uint64
	mu         sync.Mutex

	cfg   *config
	build func(context.Context) (*Snapshot, error)
}

// NewStore builds the initial snapshot. It fails only when that first build
// fails.
func NewStore(ctx context.Context, opts ...Option) (*Store, error) {
	c, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	s := &Store{cfg: c, build: c.build}
	if _, err := s.Rebuild(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the current snapshot. Callers keep a consistent view for
// as long as they hold the pointer.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Generation is incremented on every successful rebuild.
func (s *Store) Generation() uint64 {
	return s.generation.Load()
}

// Rebuild loads a new snapshot and makes it current. On failure the
// previous snapshot stays current and the error is returned. Concurrent
// calls are serialized.
func (s *Store) Rebuild(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	snap, err := s.build(ctx)
	m := s.cfg.metrics
	if m != nil {
		m.RebuildDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if m != nil {
			m.RebuildFailures.Inc()
		}
		logger.G(ctx).WithError(err).Warn("registry rebuild failed, keeping previous snapshot")
		return nil, err
	}

	s.swap(snap)

	if m != nil {
		m.Rebuilds.Inc()
		m.Generation.Set(float64(snap.generation))
		for _, c := range fragments.Categories() {
			m.Fragments.WithLabelValues(string(c)).Set(float64(len(snap.fragments[c])))
		}
	}

	logger.G(ctx).WithField("generation", snap.generation).
		WithField("fragments", snap.Len()).
		Info("registry rebuilt")
	return snap, nil
}

func (s *Store) swap(snap *Snapshot) {
	snap.generation = s.generation.Add(1)
	s.current.Store(snap)
}
