// Package compose assembles a system prompt from a persona and the selected
// fragments of the other categories.
package compose

import (
	"bytes"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/mimic-ai/mimic/pkg/fragments"
)

// Getter looks up a single fragment.
type Getter interface {
	Get(category fragments.Category, name string) (*fragments.Fragment, bool)
}

// Request names the fragments to assemble, in output order.
type Request struct {
	Persona     string   `json:"persona" mapstructure:"persona" jsonschema:"required,description=Persona name (e.g. backend-engineer)"`
	Skills      []string `json:"skills,omitempty" mapstructure:"skills" jsonschema:"description=Skill fragments to include"`
	Contexts    []string `json:"contexts,omitempty" mapstructure:"contexts" jsonschema:"description=Context fragments to include"`
	Tones       []string `json:"tones,omitempty" mapstructure:"tones" jsonschema:"description=Tone fragments to include"`
	Constraints []string `json:"constraints,omitempty" mapstructure:"constraints" jsonschema:"description=Constraint fragments to include"`
}

type section struct {
	heading  string
	category fragments.Category
	names    []string
}

func (r Request) sections() []section {
	return []section{
		{"Expertise", fragments.CategorySkill, r.Skills},
		{"Context", fragments.CategoryContext, r.Contexts},
		{"Communication Style", fragments.CategoryTone, r.Tones},
		{"Constraints", fragments.CategoryConstraint, r.Constraints},
	}
}

// Compose returns the persona body followed by one "## <heading>" section per
// non-empty category, bodies separated by blank lines. Any unknown name is a
// NotFoundError.
func Compose(src Getter, req Request) (string, error) {
	persona, ok := src.Get(fragments.CategoryPersona, req.Persona)
	if !ok {
		return "", fragments.NewNotFoundError(fragments.CategoryPersona, req.Persona)
	}

	var b strings.Builder
	b.WriteString(persona.Body)

	for _, s := range req.sections() {
		if len(s.names) == 0 {
			continue
		}

		bodies := make([]string, 0, len(s.names))
		for _, name := range s.names {
			f, ok := src.Get(s.category, name)
			if !ok {
				return "", fragments.NewNotFoundError(s.category, name)
			}
			bodies = append(bodies, f.Body)
		}

		b.WriteString("\n\n## ")
		b.WriteString(s.heading)
		b.WriteString("\n\n")
		b.WriteString(strings.Join(bodies, "\n\n"))
	}

	return b.String(), nil
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts an assembled prompt to HTML.
func RenderHTML(prompt string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(prompt), &buf); err != nil {
		return "", errors.Wrap(err, "failed to render markdown")
	}
	return buf.String(), nil
}

// RenderTerminal styles an assembled prompt for display in a terminal,
// wrapping at width columns.
func RenderTerminal(prompt string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to create terminal renderer")
	}
	out, err := r.Render(prompt)
	if err != nil {
		return "", errors.Wrap(err, "failed to render markdown")
	}
	return out, nil
}
