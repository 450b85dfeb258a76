package registry

import (
	"context"
	"io/fs"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/logger"
	"github.com/mimic-ai/mimic/pkg/telemetry"
)

// Build loads every layer and returns a fresh snapshot. Problems with single
// documents are logged and collected in Snapshot.Problems; Build itself only
// fails on invalid options or a cancelled context.
func Build(ctx context.Context, opts ...Option) (*Snapshot, error) {
	c, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return c.build(ctx)
}

func (c *config) build(ctx context.Context) (*Snapshot, error) {
	var snap *Snapshot
	err := telemetry.WithSpan(ctx, "registry.build", func(ctx context.Context) error {
		snap = newSnapshot()
		snap.layers = c.layers(ctx)

		for _, layer := range snap.layers {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "registry build cancelled")
			}
			snap.loadLayer(ctx, layer)
		}

		snap.index()
		if c.projectDir != "" {
			snap.watched = append(snap.watched, c.projectDir)
		}
		if c.globalDir != "" {
			snap.watched = append(snap.watched, c.globalDir)
		}

		telemetry.SetAttributes(ctx,
			attribute.Int("registry.fragments", snap.Len()),
			attribute.Int("registry.layers", len(snap.layers)),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// loadLayer applies one layer. The built-in layer keeps the first record for
// a name; later layers replace whatever is already there.
func (s *Snapshot) loadLayer(ctx context.Context, layer Layer) {
	log := logger.G(ctx).WithField("origin", layer.Origin)
	replace := layer.Origin != fragments.OriginBuiltin

	refs := layer.Documents(func(p string, err error) {
		s.problem(ctx, layer, p, errors.Wrap(err, "failed to read directory"))
	})

	loaded := 0
	for _, ref := range refs {
		f, err := s.loadDocument(layer, ref)
		if err != nil {
			s.problem(ctx, layer, ref.Path, err)
			continue
		}
		if s.insert(f, replace) {
			loaded++
		} else {
			log.WithField("fragment", f.ID()).Debug("duplicate built-in fragment ignored")
		}
	}

	log.WithField("source", layer.Label).WithField("fragments", loaded).Debug("loaded fragment layer")
}

func (s *Snapshot) loadDocument(layer Layer, ref DocumentRef) (*fragments.Fragment, error) {
	data, err := fs.ReadFile(layer.FS, ref.Path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read fragment")
	}

	doc := fragments.Parse(string(data))
	category := ref.Category
	if ref.RootLevel() {
		if doc.Metadata.Category == "" {
			return nil, errors.New("missing `category` in metadata")
		}
		c, ok := fragments.ParseCategory(doc.Metadata.Category)
		if !ok {
			return nil, errors.Errorf("unknown category `%s`", doc.Metadata.Category)
		}
		category = c
	}

	f := fragments.FromDocument(doc, fragments.NameFromFile(ref.Path), category, layer.Origin)
	f.Path = layer.DisplayPath(ref.Path)
	return f, nil
}

func (s *Snapshot) problem(ctx context.Context, layer Layer, p string, err error) {
	display := layer.DisplayPath(p)
	logger.G(ctx).WithError(err).WithField("path", display).Warn("skipping fragment document")
	s.problems = multierror.Append(s.problems, errors.Wrapf(err, "%s", display))
}
