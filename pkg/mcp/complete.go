package mcp

import (
	"strings"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/registry"
)

// MaxCompletions caps the number of values Complete returns.
const MaxCompletions = 100

// Complete suggests values for a tool argument from the snapshot, keeping
// those that start with prefix. Unknown arguments have no suggestions.
func Complete(snap *registry.Snapshot, argument, prefix string) []string {
	var candidates []string
	switch argument {
	case "persona":
		candidates = snap.NamesForCategory(fragments.CategoryPersona)
	case "skills":
		candidates = snap.NamesForCategory(fragments.CategorySkill)
	case "context", "contexts":
		candidates = snap.NamesForCategory(fragments.CategoryContext)
	case "tone", "tones":
		candidates = snap.NamesForCategory(fragments.CategoryTone)
	case "constraints":
		candidates = snap.NamesForCategory(fragments.CategoryConstraint)
	case "groups":
		candidates = snap.AllGroups()
	case "tags":
		candidates = snap.AllTags()
	default:
		return nil
	}

	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
			if len(out) == MaxCompletions {
				break
			}
		}
	}
	return out
}
