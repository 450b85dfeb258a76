// Package osutil holds the filesystem helpers shared by the registry and the
// linter.
package osutil

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/mimic-ai/mimic/pkg/fragments"
)

// ProjectMarker is the directory that marks a project root.
const ProjectMarker = ".mimic"

// FindProjectDir walks upward from start looking for a ProjectMarker
// directory and returns its path. A regular file with the marker name does
// not count. ok is false when the filesystem root is reached.
func FindProjectDir(start string) (dir string, ok bool) {
	current, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}

	for {
		candidate := filepath.Join(current, ProjectMarker)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

// FindProjectDirFromCwd is FindProjectDir starting at the working directory.
func FindProjectDirFromCwd() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return FindProjectDir(cwd)
}

// DefaultGlobalDir returns ~/.mimic.
func DefaultGlobalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(home, ProjectMarker), nil
}

// EnsureCategoryDirs creates base and one subdirectory per category.
func EnsureCategoryDirs(base string) error {
	for _, c := range fragments.Categories() {
		if err := os.MkdirAll(filepath.Join(base, c.DirName()), 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s directory", c.DirName())
		}
	}
	return nil
}

// IsDir reports whether p exists and is a directory.
func IsDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
