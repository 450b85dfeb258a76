// Package watch rebuilds the registry when fragment documents change on
// disk. Bursts of filesystem events are coalesced: a rebuild runs once the
// watched directories have been quiet for the debounce interval.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/logger"
	"github.com/mimic-ai/mimic/pkg/registry"
)

// Rebuilder is the write side of a registry store.
type Rebuilder interface {
	Rebuild(ctx context.Context) (*registry.Snapshot, error)
}

// Config controls what is watched and how events are coalesced.
type Config struct {
	// Debounce is the quiet interval that must pass before a rebuild.
	Debounce time.Duration
	// Ignore holds doublestar patterns matched against paths relative to
	// each watched directory.
	Ignore []string
}

// NewConfig returns the default watcher configuration.
func NewConfig() *Config {
	return &Config{
		Debounce: 500 * time.Millisecond,
		Ignore:   []string{".git/**", "**/.*"},
	}
}

// Validate validates the watcher configuration
func (c *Config) Validate() error {
	if c.Debounce < 0 {
		return errors.Errorf("debounce cannot be negative: %s", c.Debounce)
	}
	for _, p := range c.Ignore {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("invalid ignore pattern '%s'", p)
		}
	}
	return nil
}

// Watcher triggers registry rebuilds from filesystem events.
type Watcher struct {
	store     Rebuilder
	roots     []string
	config    *Config
	onRebuild func(*registry.Snapshot)

	fsw     *fsnotify.Watcher
	trigger chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithOnRebuild registers a callback run after every successful rebuild.
func WithOnRebuild(fn func(*registry.Snapshot)) Option {
	return func(w *Watcher) {
		w.onRebuild = fn
	}
}

// New creates a watcher over roots and every directory below them. Roots
// that do not exist are skipped.
func New(ctx context.Context, store Rebuilder, roots []string, config *Config, opts ...Option) (*Watcher, error) {
	if config == nil {
		config = NewConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid watch configuration")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}

	w := &Watcher{
		store:   store,
		config:  config,
		fsw:     fsw,
		trigger: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			fsw.Close()
			return nil, errors.Wrapf(err, "failed to resolve '%s'", root)
		}
		if err := w.addTree(ctx, abs, abs); err != nil {
			fsw.Close()
			return nil, err
		}
		w.roots = append(w.roots, abs)
	}

	return w, nil
}

// addTree watches dir and its subdirectories. root is the watched root dir
// belongs to, used to evaluate ignore patterns.
func (w *Watcher) addTree(ctx context.Context, root, dir string) error {
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.G(ctx).WithField("directory", p).Debug("skipping missing directory")
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.ignored(root, p) {
			return filepath.SkipDir
		}
		logger.G(ctx).WithField("directory", p).Debug("adding directory to watcher")
		return w.fsw.Add(p)
	})
	return errors.Wrapf(err, "failed to watch '%s'", dir)
}

// rootOf returns the watched root containing p.
func (w *Watcher) rootOf(p string) string {
	best := ""
	for _, r := range w.roots {
		if rel, err := filepath.Rel(r, p); err == nil && !filepath.IsAbs(rel) && rel != ".." && !hasParentPrefix(rel) {
			if len(r) > len(best) {
				best = r
			}
		}
	}
	return best
}

func hasParentPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}

func (w *Watcher) ignored(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.config.Ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// relevant reports whether an event can change the registry contents.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if root := w.rootOf(event.Name); root != "" && w.ignored(root, event.Name) {
		return false
	}
	if fragments.IsDocument(event.Name) {
		return true
	}
	// A removed or renamed directory takes its documents with it.
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		return filepath.Ext(event.Name) == ""
	}
	info, err := os.Stat(event.Name)
	return err == nil && info.IsDir()
}

// schedule (re)starts the quiet-interval timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.Debounce, func() {
		select {
		case w.trigger <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Run processes events until ctx is cancelled. Rebuild failures are logged
// and leave the previous snapshot in place.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	defer w.stopTimer()

	logger.G(ctx).WithField("directories", w.roots).
		WithField("debounce", w.config.Debounce).
		Info("watching fragment directories")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			logger.G(ctx).WithFields(map[string]interface{}{
				"file":      event.Name,
				"operation": event.Op.String(),
			}).Debug("fragment change detected")

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(ctx, w.rootOf(event.Name), event.Name); err != nil {
						logger.G(ctx).WithError(err).Warn("failed to watch new directory")
					}
				}
			}
			w.schedule()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Error("error watching fragment directories")

		case <-w.trigger:
			snap, err := w.store.Rebuild(ctx)
			if err != nil {
				continue
			}
			if w.onRebuild != nil {
				w.onRebuild(snap)
			}
		}
	}
}
