package registry

import (
	"io/fs"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/metrics"
	"github.com/mimic-ai/mimic/pkg/osutil"
)

type config struct {
	builtin    fs.FS
	globalDir  string
	noGlobal   bool
	projectDir string
	noProject  bool
	noCreate   bool
	metrics    *metrics.Metrics
}

// Option configures where a registry loads its layers from.
type Option func(*config) error

// WithBuiltinFS replaces the embedded built-in fragments.
func WithBuiltinFS(fsys fs.FS) Option {
	return func(c *config) error {
		c.builtin = fsys
		return nil
	}
}

// WithGlobalDir sets the per-user fragment directory. Defaults to ~/.mimic.
func WithGlobalDir(dir string) Option {
	return func(c *config) error {
		c.globalDir = dir
		c.noGlobal = false
		return nil
	}
}

// WithoutGlobalDir disables the global layer.
func WithoutGlobalDir() Option {
	return func(c *config) error {
		c.globalDir = ""
		c.noGlobal = true
		return nil
	}
}

// WithProjectDir sets the project fragment directory. By default it is
// discovered by walking upward from the working directory.
func WithProjectDir(dir string) Option {
	return func(c *config) error {
		c.projectDir = dir
		c.noProject = false
		return nil
	}
}

// WithoutProjectDir disables the project layer.
func WithoutProjectDir() Option {
	return func(c *config) error {
		c.projectDir = ""
		c.noProject = true
		return nil
	}
}

// WithoutDirCreation stops the registry from creating missing category
// directories under the global and project dirs.
func WithoutDirCreation() Option {
	return func(c *config) error {
		c.noCreate = true
		return nil
	}
}

// WithMetrics records rebuild metrics on a Store.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) error {
		c.metrics = m
		return nil
	}
}

func newConfig(opts ...Option) (*config, error) {
	c := &config{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.builtin == nil {
		c.builtin = fragments.NewBuiltinFS()
	}
	if !c.noGlobal && c.globalDir == "" {
		dir, err := osutil.DefaultGlobalDir()
		if err != nil {
			return nil, err
		}
		c.globalDir = dir
	}
	if !c.noProject && c.projectDir == "" {
		if dir, ok := osutil.FindProjectDirFromCwd(); ok {
			c.projectDir = dir
		}
	}

	return c, nil
}
