package fragments

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format renders f as a document: a metadata block followed by the body.
// Parsing the result yields the same metadata and body. Root-level documents
// also need WithCategory so the registry can place them.
func Format(f *Fragment, opts ...FormatOption) (string, error) {
	var o formatOptions
	for _, opt := range opts {
		opt(&o)
	}

	meta := Metadata{
		Tags:        f.Tags,
		Group:       f.Group,
		Level:       f.Level,
		SkillGroups: f.SkillGroups,
	}
	if f.Description != "" {
		d := f.Description
		meta.Description = &d
	}
	if o.category {
		meta.Category = string(f.Category)
	}

	out, err := yaml.Marshal(meta)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode metadata")
	}

	var b strings.Builder
	b.WriteString(fenceMarker + "\n")
	if s := string(out); s != "{}\n" {
		b.WriteString(s)
	}
	b.WriteString(fenceMarker + "\n\n")
	b.WriteString(f.Body)
	b.WriteString("\n")
	return b.String(), nil
}

type formatOptions struct {
	category bool
}

// FormatOption adjusts Format.
type FormatOption func(*formatOptions)

// WithCategory writes the category key into the metadata block.
func WithCategory() FormatOption {
	return func(o *formatOptions) {
		o.category = true
	}
}
