package lint

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/logger"
	"github.com/mimic-ai/mimic/pkg/registry"
)

// Linter runs an ordered list of rules.
type Linter struct {
	rules []Rule
}

// New returns a linter with DefaultRules, or with rules when given.
func New(rules ...Rule) *Linter {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Linter{rules: rules}
}

// Check runs every rule against ctx in order.
func (l *Linter) Check(ctx *Context) []Diagnostic {
	var out []Diagnostic
	for _, r := range l.rules {
		for _, msg := range r.Check(ctx) {
			out = append(out, Diagnostic{
				Severity: r.Severity,
				Rule:     r.Name,
				Path:     ctx.Path,
				Message:  msg,
			})
		}
	}
	return out
}

// CheckLayers lints every document of every layer, including documents the
// registry would skip. Root-level documents whose category cannot be
// determined are checked as skills.
func (l *Linter) CheckLayers(ctx context.Context, layers []registry.Layer) []Diagnostic {
	var out []Diagnostic

	for _, layer := range layers {
		refs := layer.Documents(func(p string, err error) {
			logger.G(ctx).WithError(err).WithField("path", layer.DisplayPath(p)).Warn("failed to read directory")
		})

		for _, ref := range refs {
			display := layer.DisplayPath(ref.Path)
			data, err := fs.ReadFile(layer.FS, ref.Path)
			if err != nil {
				logger.G(ctx).WithError(err).WithField("path", display).Warn("failed to read fragment")
				continue
			}

			raw := string(data)
			category := ref.Category
			if ref.RootLevel() {
				category = rootCategory(raw)
			}
			out = append(out, l.Check(NewContext(raw, display, category, layer.Origin, ref.RootLevel()))...)
		}
	}

	return out
}

func rootCategory(raw string) fragments.Category {
	doc, err := fragments.ParseStrict(raw)
	if err != nil {
		return fragments.CategorySkill
	}
	if c, ok := fragments.ParseCategory(doc.Metadata.Category); ok {
		return c
	}
	return fragments.CategorySkill
}

// Run resolves the layers for opts and lints them.
func Run(ctx context.Context, opts ...registry.Option) ([]Diagnostic, error) {
	opts = append(opts, registry.WithoutDirCreation())
	layers, err := registry.ResolveLayers(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve fragment directories")
	}
	return New().CheckLayers(ctx, layers), nil
}

// Summary counts diagnostics by severity.
type Summary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// Report writes one line per diagnostic, hiding warnings unless
// showWarnings, followed by a summary line, and returns the counts.
func Report(w io.Writer, diags []Diagnostic, showWarnings bool) Summary {
	var s Summary
	errColor := color.New(color.FgRed, color.Bold)
	warnColor := color.New(color.FgYellow)

	for _, d := range diags {
		c := errColor
		if d.Severity == SeverityWarning {
			s.Warnings++
			if !showWarnings {
				continue
			}
			c = warnColor
		} else {
			s.Errors++
		}
		fmt.Fprintf(w, "  %s [%s] %s: %s\n", c.Sprint(d.Severity), d.Rule, d.Path, d.Message)
	}

	switch {
	case s.Errors == 0 && s.Warnings == 0:
		fmt.Fprintln(w, "All fragments OK.")
	case s.Errors == 0 && showWarnings:
		fmt.Fprintf(w, "\n%d warning(s), 0 errors.\n", s.Warnings)
	case s.Errors == 0:
		fmt.Fprintf(w, "All fragments OK (%d warning(s) hidden, use --warnings to show).\n", s.Warnings)
	default:
		fmt.Fprintf(w, "\n%d error(s), %d warning(s).\n", s.Errors, s.Warnings)
	}

	return s
}

// Failed reports whether the run should exit non-zero.
func (s Summary) Failed() bool {
	return s.Errors > 0
}
