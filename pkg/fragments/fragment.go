// Package fragments defines the fragment document model: the fixed set of
// categories, the metadata block, and the parsers that turn a markdown
// document into a Fragment. Built-in fragments ship embedded in the binary.
package fragments

import (
	"io/fs"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// Extension is the only file extension recognised as a fragment document.
const Extension = ".md"

// Origin records which layer a fragment was loaded from.
type Origin string

const (
	OriginBuiltin Origin = "builtin"
	OriginGlobal  Origin = "global"
	OriginProject Origin = "project"
)

// Priority orders origins from lowest (built-in) to highest (project).
func (o Origin) Priority() int {
	switch o {
	case OriginBuiltin:
		return 0
	case OriginGlobal:
		return 1
	case OriginProject:
		return 2
	default:
		return -1
	}
}

func (o Origin) String() string {
	return string(o)
}

// Fragment is a named, categorised block of reusable prompt text.
type Fragment struct {
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Group       string   `json:"group,omitempty"`
	Level       string   `json:"level,omitempty"`
	SkillGroups []string `json:"skill_groups,omitempty"`
	Body        string   `json:"body"`
	Origin      Origin   `json:"origin"`
	// Path locates the source document in diagnostics.
	Path string `json:"-"`
}

// New builds a Fragment from raw document text using the lenient parser.
func New(raw, name string, category Category, origin Origin) *Fragment {
	return FromDocument(Parse(raw), name, category, origin)
}

// FromDocument builds a Fragment from an already parsed document.
func FromDocument(doc Document, name string, category Category, origin Origin) *Fragment {
	description := firstLine(doc.Body)
	if doc.Metadata.Description != nil {
		description = *doc.Metadata.Description
	}

	tags := doc.Metadata.Tags
	if tags == nil {
		tags = []string{}
	}

	return &Fragment{
		Name:        name,
		Category:    category,
		Description: description,
		Tags:        tags,
		Group:       doc.Metadata.Group,
		Level:       doc.Metadata.Level,
		SkillGroups: doc.Metadata.SkillGroups,
		Body:        doc.Body,
		Origin:      origin,
	}
}

// Load reads the document at p from fsys and builds a Fragment named after
// the file.
func Load(fsys fs.FS, p string, category Category, origin Origin) (*Fragment, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read fragment '%s'", p)
	}

	f := New(string(data), NameFromFile(p), category, origin)
	f.Path = p
	return f, nil
}

// NameFromFile derives a fragment name from a file path by dropping the
// directory and the final extension, so "my.dotted.name.md" is "my.dotted.name".
func NameFromFile(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// IsDocument reports whether a file name carries the fragment extension.
func IsDocument(name string) bool {
	return path.Ext(name) == Extension
}

// HasTag reports whether the fragment declares tag.
func (f *Fragment) HasTag(tag string) bool {
	for _, t := range f.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SharesTag reports whether the fragment declares at least one of tags.
func (f *Fragment) SharesTag(tags []string) bool {
	for _, t := range tags {
		if f.HasTag(t) {
			return true
		}
	}
	return false
}

// ID is the "<category>:<name>" identifier used by graph nodes.
func (f *Fragment) ID() string {
	return ID(f.Category, f.Name)
}

// ID formats a graph node identifier.
func ID(category Category, name string) string {
	return string(category) + ":" + name
}
