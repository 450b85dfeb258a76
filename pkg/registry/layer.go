package registry

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/logger"
	"github.com/mimic-ai/mimic/pkg/osutil"
)

// Layer is one origin directory, in load order.
type Layer struct {
	Origin fragments.Origin
	// Dir is the on-disk path; empty for the built-in layer.
	Dir   string
	FS    fs.FS
	Label string
}

// ResolveLayers returns the layers a registry built with opts would load,
// lowest priority first. Missing global and project directories are created
// with their category subdirectories unless WithoutDirCreation is given.
func ResolveLayers(ctx context.Context, opts ...Option) ([]Layer, error) {
	c, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return c.layers(ctx), nil
}

func (c *config) layers(ctx context.Context) []Layer {
	layers := []Layer{{
		Origin: fragments.OriginBuiltin,
		FS:     c.builtin,
		Label:  "built-in",
	}}

	add := func(origin fragments.Origin, dir string) {
		if dir == "" {
			return
		}
		if !c.noCreate {
			if err := osutil.EnsureCategoryDirs(dir); err != nil {
				logger.G(ctx).WithError(err).WithField("dir", dir).Warn("failed to create fragment directories")
			}
		}
		layers = append(layers, Layer{
			Origin: origin,
			Dir:    dir,
			FS:     os.DirFS(dir),
			Label:  dir,
		})
	}

	add(fragments.OriginGlobal, c.globalDir)
	add(fragments.OriginProject, c.projectDir)

	return layers
}

// Documents lists the fragment documents of a layer in load order: every
// category directory in canonical order, then the root-level documents.
// Category is empty for root-level documents. Missing directories are
// skipped; unreadable ones are reported through onError.
func (l Layer) Documents(onError func(path string, err error)) []DocumentRef {
	var refs []DocumentRef

	for _, c := range fragments.Categories() {
		entries, err := fs.ReadDir(l.FS, c.DirName())
		if err != nil {
			if !isNotExist(err) {
				onError(c.DirName(), err)
			}
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !fragments.IsDocument(e.Name()) {
				continue
			}
			refs = append(refs, DocumentRef{Path: c.DirName() + "/" + e.Name(), Category: c})
		}
	}

	entries, err := fs.ReadDir(l.FS, ".")
	if err != nil {
		if !isNotExist(err) {
			onError(".", err)
		}
		return refs
	}
	for _, e := range entries {
		if e.IsDir() || !fragments.IsDocument(e.Name()) {
			continue
		}
		refs = append(refs, DocumentRef{Path: e.Name()})
	}

	return refs
}

// DocumentRef locates one document inside a layer.
type DocumentRef struct {
	Path string
	// Category is set for documents inside a category directory.
	Category fragments.Category
}

// RootLevel reports whether the document sits outside a category directory.
func (d DocumentRef) RootLevel() bool {
	return d.Category == ""
}

// DisplayPath joins the layer location and the document path for messages.
func (l Layer) DisplayPath(p string) string {
	if l.Dir == "" {
		return "<built-in>/" + p
	}
	return filepath.Join(l.Dir, filepath.FromSlash(p))
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
