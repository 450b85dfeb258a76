// Package graph selects fragments around a seed persona and tag/group
// filters, and derives the relationships between them.
package graph

import (
	"slices"

	"github.com/mimic-ai/mimic/pkg/fragments"
)

// Relation kinds of an Edge.
const (
	RelationSkillGroup = "skill_group"
	RelationGroup      = "group"
	RelationTag        = "tag"
)

// Source is the read side of a registry snapshot.
type Source interface {
	Get(category fragments.Category, name string) (*fragments.Fragment, bool)
	NamesForCategory(category fragments.Category) []string
}

// Query seeds a resolution. IncludeEdges defaults to true when nil.
type Query struct {
	Persona      string   `json:"persona,omitempty" mapstructure:"persona" jsonschema:"description=Persona to seed the graph with"`
	Tags         []string `json:"tags,omitempty" mapstructure:"tags" jsonschema:"description=Only include fragments sharing at least one of these tags (tones are always included)"`
	Groups       []string `json:"groups,omitempty" mapstructure:"groups" jsonschema:"description=Skill groups to include; defaults to the persona's skill_groups"`
	IncludeEdges *bool    `json:"include_edges,omitempty" mapstructure:"include_edges" jsonschema:"description=Compute edges (default true)"`
}

func (q Query) includeEdges() bool {
	return q.IncludeEdges == nil || *q.IncludeEdges
}

// Node is a fragment projected into a graph result.
type Node struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Level       string   `json:"level,omitempty"`
	SkillGroups []string `json:"skill_groups,omitempty"`
	Group       string   `json:"group,omitempty"`
	Origin      string   `json:"origin"`
}

// Edge connects two nodes. For skill_group edges From is the persona.
type Edge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
	Label    string `json:"label"`
}

// Meta describes how a result was produced.
type Meta struct {
	Seed           *string  `json:"seed,omitempty"`
	ResolvedGroups []string `json:"resolved_groups"`
	ResolvedTags   []string `json:"resolved_tags"`
	NodeCount      int      `json:"node_count"`
	EdgeCount      int      `json:"edge_count"`
}

// Result is the output of Resolve.
type Result struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Meta  Meta   `json:"meta"`
}

// newNode copies the fragment's slices so a Result never aliases the snapshot.
func newNode(f *fragments.Fragment) Node {
	return Node{
		ID:          f.ID(),
		Category:    string(f.Category),
		Name:        f.Name,
		Description: f.Description,
		Tags:        nonNil(f.Tags),
		Level:       f.Level,
		SkillGroups: slices.Clone(f.SkillGroups),
		Group:       f.Group,
		Origin:      string(f.Origin),
	}
}
