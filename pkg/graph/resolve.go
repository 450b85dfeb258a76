package graph

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/telemetry"
)

// selection holds the effective filters shared by Resolve and Recommend.
type selection struct {
	persona *fragments.Fragment
	groups  []string
	tags    []string
}

func newSelection(src Source, persona string, groups, tags []string) (*selection, error) {
	sel := &selection{tags: tags}

	if persona != "" {
		f, ok := src.Get(fragments.CategoryPersona, persona)
		if !ok {
			return nil, fragments.NewNotFoundError(fragments.CategoryPersona, persona)
		}
		sel.persona = f
	}

	switch {
	case len(groups) > 0:
		sel.groups = groups
	case sel.persona != nil:
		sel.groups = sel.persona.SkillGroups
	}

	return sel, nil
}

func (s *selection) acceptsGroup(f *fragments.Fragment) bool {
	if len(s.groups) == 0 {
		return true
	}
	if f.Group == "" {
		return false
	}
	for _, g := range s.groups {
		if g == f.Group {
			return true
		}
	}
	return false
}

func (s *selection) acceptsTags(f *fragments.Fragment) bool {
	return len(s.tags) == 0 || f.SharesTag(s.tags)
}

// accepts applies the per-category rules: skills need a matching group and
// tag, contexts and constraints a matching tag, tones are always in.
func (s *selection) accepts(f *fragments.Fragment) bool {
	switch f.Category {
	case fragments.CategorySkill:
		return s.acceptsGroup(f) && s.acceptsTags(f)
	case fragments.CategoryTone:
		return true
	case fragments.CategoryContext, fragments.CategoryConstraint:
		return s.acceptsTags(f)
	default:
		return false
	}
}

// selectedCategories are visited in this order after the persona.
var selectedCategories = []fragments.Category{
	fragments.CategorySkill,
	fragments.CategoryContext,
	fragments.CategoryTone,
	fragments.CategoryConstraint,
}

func (s *selection) each(src Source, category fragments.Category, fn func(*fragments.Fragment)) {
	for _, name := range src.NamesForCategory(category) {
		f, ok := src.Get(category, name)
		if !ok || !s.accepts(f) {
			continue
		}
		fn(f)
	}
}

// Resolve selects the nodes for q and, unless disabled, the edges between
// them. The only error is a NotFoundError for an unknown persona.
func Resolve(ctx context.Context, src Source, q Query) (*Result, error) {
	var result *Result
	err := telemetry.WithSpan(ctx, "graph.resolve", func(ctx context.Context) error {
		sel, err := newSelection(src, q.Persona, q.Groups, q.Tags)
		if err != nil {
			return err
		}

		nodes := make([]Node, 0)
		seen := map[string]struct{}{}
		add := func(f *fragments.Fragment) {
			id := f.ID()
			if _, dup := seen[id]; dup {
				return
			}
			seen[id] = struct{}{}
			nodes = append(nodes, newNode(f))
		}

		if sel.persona != nil {
			add(sel.persona)
		}
		for _, c := range selectedCategories {
			sel.each(src, c, add)
		}

		edges := make([]Edge, 0)
		if q.includeEdges() {
			edges = buildEdges(nodes)
		}

		meta := Meta{
			ResolvedGroups: nonNil(sel.groups),
			ResolvedTags:   nonNil(q.Tags),
			NodeCount:      len(nodes),
			EdgeCount:      len(edges),
		}
		if q.Persona != "" {
			seed := fragments.ID(fragments.CategoryPersona, q.Persona)
			meta.Seed = &seed
		}

		telemetry.SetAttributes(ctx,
			attribute.Int("graph.nodes", meta.NodeCount),
			attribute.Int("graph.edges", meta.EdgeCount),
		)

		result = &Result{Nodes: nodes, Edges: edges, Meta: meta}
		return nil
	}, attribute.String("graph.persona", q.Persona))
	if err != nil {
		return nil, err
	}
	return result, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string{}, s...)
}
