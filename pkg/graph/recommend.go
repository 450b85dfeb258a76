package graph

import (
	"github.com/pkg/errors"

	"github.com/mimic-ai/mimic/pkg/fragments"
)

// RecommendQuery asks for the fragments that suit a persona.
type RecommendQuery struct {
	Persona string   `json:"persona" mapstructure:"persona" jsonschema:"required,description=The persona to get recommendations for (e.g. backend-engineer)"`
	Groups  []string `json:"groups,omitempty" mapstructure:"groups" jsonschema:"description=Override the persona's skill_groups"`
	Tags    []string `json:"tags,omitempty" mapstructure:"tags" jsonschema:"description=Filter recommendations by tags"`
}

// PersonaSummary describes the persona a recommendation was made for.
type PersonaSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Level       string   `json:"level,omitempty"`
	SkillGroups []string `json:"skill_groups"`
}

// Recommendation is one suggested fragment.
type Recommendation struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Group       string `json:"group,omitempty"`
}

// Recommendations is the flat, per-category output of Recommend.
type Recommendations struct {
	Persona     PersonaSummary   `json:"persona"`
	Skills      []Recommendation `json:"skills"`
	Contexts    []Recommendation `json:"contexts"`
	Tones       []Recommendation `json:"tones"`
	Constraints []Recommendation `json:"constraints"`
}

// Recommend lists the skills, contexts, tones and constraints that match a
// persona, using the same group and tag rules as Resolve but without edges.
func Recommend(src Source, q RecommendQuery) (*Recommendations, error) {
	if q.Persona == "" {
		return nil, errors.New("persona is required")
	}
	sel, err := newSelection(src, q.Persona, q.Groups, q.Tags)
	if err != nil {
		return nil, err
	}

	collect := func(c fragments.Category) []Recommendation {
		out := make([]Recommendation, 0)
		sel.each(src, c, func(f *fragments.Fragment) {
			r := Recommendation{Name: f.Name, Description: f.Description}
			if c == fragments.CategorySkill {
				r.Group = f.Group
			}
			out = append(out, r)
		})
		return out
	}

	return &Recommendations{
		Persona: PersonaSummary{
			Name:        sel.persona.Name,
			Description: sel.persona.Description,
			Level:       sel.persona.Level,
			SkillGroups: nonNil(sel.persona.SkillGroups),
		},
		Skills:      collect(fragments.CategorySkill),
		Contexts:    collect(fragments.CategoryContext),
		Tones:       collect(fragments.CategoryTone),
		Constraints: collect(fragments.CategoryConstraint),
	}, nil
}
