package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/registry"
)

func newStore(t *testing.T, dir string) *registry.Store {
	t.Helper()
	store, err := registry.NewStore(context.Background(),
		registry.WithBuiltinFS(fstest.MapFS{}),
		registry.WithGlobalDir(dir),
		registry.WithoutProjectDir(),
	)
	require.NoError(t, err)
	return store
}

func write(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, NewConfig().Validate())
	assert.Error(t, (&Config{Debounce: -time.Second}).Validate())
	assert.Error(t, (&Config{Ignore: []string{"[unclosed"}}).Validate())
}

func TestRelevant(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "skills"), 0o755))

	w := &Watcher{roots: []string{root}, config: &Config{Ignore: []string{"**/drafts/**", "**/.*"}}}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"document write", fsnotify.Event{Name: filepath.Join(root, "skills", "go.md"), Op: fsnotify.Write}, true},
		{"document remove", fsnotify.Event{Name: filepath.Join(root, "skills", "go.md"), Op: fsnotify.Remove}, true},
		{"chmod", fsnotify.Event{Name: filepath.Join(root, "skills", "go.md"), Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: filepath.Join(root, "skills", "notes.txt"), Op: fsnotify.Write}, false},
		{"directory created", fsnotify.Event{Name: filepath.Join(root, "skills"), Op: fsnotify.Create}, true},
		{"directory removed", fsnotify.Event{Name: filepath.Join(root, "tones"), Op: fsnotify.Remove}, true},
		{"ignored pattern", fsnotify.Event{Name: filepath.Join(root, "skills", "drafts", "wip.md"), Op: fsnotify.Write}, false},
		{"hidden editor file", fsnotify.Event{Name: filepath.Join(root, "skills", ".go.md"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.event))
		})
	}
}

func TestWatcher_CoalescesBurstIntoOneRebuild(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir)
	require.Equal(t, uint64(1), store.Generation())

	var callbacks atomic.Int32
	w, err := New(context.Background(), store, []string{dir}, &Config{Debounce: 100 * time.Millisecond},
		WithOnRebuild(func(*registry.Snapshot) { callbacks.Add(1) }))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for i, name := range []string{"go", "rust", "zig", "python", "ruby"} {
		write(t, filepath.Join(dir, "skills", name+".md"), "skill "+name)
		if i%2 == 0 {
			time.Sleep(10 * time.Millisecond)
		}
	}

	require.Eventually(t, func() bool { return store.Generation() == 2 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, uint64(2), store.Generation())
	assert.Equal(t, int32(1), callbacks.Load())
	assert.Len(t, store.Current().NamesForCategory(fragments.CategorySkill), 5)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir)

	w, err := New(context.Background(), store, []string{dir}, &Config{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	nested := filepath.Join(dir, "skills", "lang")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.Eventually(t, func() bool { return store.Generation() >= 2 }, 5*time.Second, 20*time.Millisecond)

	write(t, filepath.Join(dir, "go.md"), "---\ncategory: skill\n---\nRoot Go")
	require.Eventually(t, func() bool {
		_, ok := store.Current().Get(fragments.CategorySkill, "go")
		return ok
	}, 5*time.Second, 20*time.Millisecond)
}

func TestNew_SkipsMissingRoots(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir)

	w, err := New(context.Background(), store, []string{filepath.Join(dir, "missing"), dir}, nil)
	require.NoError(t, err)
	assert.Len(t, w.roots, 2)
	require.NoError(t, w.fsw.Close())
}
