package registry

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/metrics"
)

func TestStore_Rebuild(t *testing.T) {
	project := t.TempDir()
	m := metrics.New()

	store, err := NewStore(context.Background(),
		WithBuiltinFS(testBuiltin()), WithoutGlobalDir(), WithProjectDir(project), WithMetrics(m))
	require.NoError(t, err)

	first := store.Current()
	assert.Equal(t, uint64(1), store.Generation())
	assert.Equal(t, uint64(1), first.Generation())
	_, ok := first.Get(fragments.CategorySkill, "rust")
	assert.False(t, ok)

	writeDoc(t, project, "skills/rust.md", "---\ngroup: systems\n---\nRust")

	second, err := store.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), store.Generation())
	assert.Same(t, second, store.Current())

	_, ok = store.Current().Get(fragments.CategorySkill, "rust")
	assert.True(t, ok)

	// A reader holding the old snapshot keeps a consistent view.
	_, ok = first.Get(fragments.CategorySkill, "rust")
	assert.False(t, ok)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Rebuilds))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.Fragments.WithLabelValues("skill")))
}

func TestStore_FailedRebuildKeepsSnapshot(t *testing.T) {
	m := metrics.New()
	store, err := NewStore(context.Background(),
		WithBuiltinFS(testBuiltin()), WithoutGlobalDir(), WithoutProjectDir(), WithMetrics(m))
	require.NoError(t, err)

	before := store.Current()
	store.build = func(context.Context) (*Snapshot, error) {
		return nil, errors.New("disk on fire")
	}

	_, err = store.Rebuild(context.Background())
	require.Error(t, err)
	assert.Same(t, before, store.Current())
	assert.Equal(t, uint64(1), store.Generation())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RebuildFailures))
}

func TestStore_ConcurrentReadsDuringRebuild(t *testing.T) {
	store, err := NewStore(context.Background(),
		WithBuiltinFS(testBuiltin()), WithoutGlobalDir(), WithoutProjectDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				snap := store.Current()
				assert.Equal(t, 4, snap.Len())
				assert.Len(t, snap.List(Filter{}), 4)
			}
		}()
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Rebuild(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(6), store.Generation())
}

func TestNewStore_InvalidOption(t *testing.T) {
	bad := func(*config) error { return errors.New("bad option") }
	_, err := NewStore(context.Background(), bad)
	require.Error(t, err)
}
