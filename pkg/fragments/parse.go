package fragments

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	fenceMarker = "---"
	closeFence  = "\n---"
)

// KnownMetadataKeys lists every key the metadata block may declare.
var KnownMetadataKeys = []string{
	"description",
	"tags",
	"group",
	"level",
	"skill_groups",
	"category",
}

// Metadata is the decoded frontmatter block of a fragment document.
type Metadata struct {
	Description *string  `yaml:"description,omitempty" json:"description,omitempty" jsonschema:"description=Short summary; defaults to the first line of the body"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty" jsonschema:"description=Free-form labels used for filtering and tag edges"`
	Group       string   `yaml:"group,omitempty" json:"group,omitempty" jsonschema:"description=Skill group this fragment belongs to"`
	Level       string   `yaml:"level,omitempty" json:"level,omitempty" jsonschema:"description=Seniority level of a persona"`
	SkillGroups []string `yaml:"skill_groups,omitempty" json:"skill_groups,omitempty" jsonschema:"description=Skill groups a persona draws from"`
	Category    string   `yaml:"category,omitempty" json:"category,omitempty" jsonschema:"enum=persona,enum=personas,enum=skill,enum=skills,enum=context,enum=contexts,enum=tone,enum=tones,enum=constraint,enum=constraints,description=Required for documents outside a category directory"`
}

// Document is a parsed fragment document.
type Document struct {
	Metadata Metadata
	// HasMetadata is true when a terminated metadata block was found.
	HasMetadata bool
	Body        string
}

// StrictDocument is the result of ParseStrict.
type StrictDocument struct {
	Document
	UnknownKeys []string
}

// splitFrontmatter returns the raw metadata block and the text after the
// closing fence. ok is false when there is no terminated block.
func splitFrontmatter(raw string) (block, rest string, ok bool) {
	trimmed := strings.TrimLeft(raw, " \t\r\n")
	if !strings.HasPrefix(trimmed, fenceMarker) {
		return "", raw, false
	}

	afterOpen := trimmed[len(fenceMarker):]
	end := strings.Index(afterOpen, closeFence)
	if end < 0 {
		return "", raw, false
	}

	return afterOpen[:end], afterOpen[end+len(closeFence):], true
}

// Parse splits raw into metadata and body. It never fails: a missing or
// unterminated block yields the whole input as body, and a block that does
// not decode is treated as empty metadata.
func Parse(raw string) Document {
	block, rest, ok := splitFrontmatter(raw)
	if !ok {
		return Document{Body: strings.TrimSpace(raw)}
	}

	var meta Metadata
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		meta = Metadata{}
	}

	return Document{
		Metadata:    meta,
		HasMetadata: true,
		Body:        strings.TrimSpace(rest),
	}
}

// ParseStrict is like Parse but reports a metadata block that fails to decode
// as an error, and collects top-level keys that are not in KnownMetadataKeys.
func ParseStrict(raw string) (StrictDocument, error) {
	block, rest, ok := splitFrontmatter(raw)
	if !ok {
		return StrictDocument{Document: Document{Body: strings.TrimSpace(raw)}}, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(block), &root); err != nil {
		return StrictDocument{}, errors.Wrap(err, "invalid metadata block")
	}

	var meta Metadata
	var unknown []string
	if len(root.Content) > 0 {
		node := root.Content[0]
		if node.Kind == yaml.MappingNode {
			for i := 0; i+1 < len(node.Content); i += 2 {
				key := node.Content[i]
				if key.Kind == yaml.ScalarNode && !isKnownKey(key.Value) {
					unknown = append(unknown, key.Value)
				}
			}
		}
		if err := node.Decode(&meta); err != nil {
			return StrictDocument{}, errors.Wrap(err, "invalid metadata block")
		}
	}

	return StrictDocument{
		Document: Document{
			Metadata:    meta,
			HasMetadata: true,
			Body:        strings.TrimSpace(rest),
		},
		UnknownKeys: unknown,
	}, nil
}

func isKnownKey(key string) bool {
	for _, k := range KnownMetadataKeys {
		if k == key {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSuffix(s[:i], "\r")
	}
	return s
}
