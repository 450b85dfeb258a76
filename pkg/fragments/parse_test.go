package fragments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		hasMetadata bool
		description *string
		tags        []string
		group       string
		body        string
	}{
		{
			name:        "full metadata block",
			raw:         "---\ndescription: Go expert\ntags: [backend, go]\ngroup: backend\n---\n\nWrite Go.\n",
			hasMetadata: true,
			description: strPtr("Go expert"),
			tags:        []string{"backend", "go"},
			group:       "backend",
			body:        "Write Go.",
		},
		{
			name: "no fence",
			raw:  "  Plain body\nsecond line  \n",
			body: "Plain body\nsecond line",
		},
		{
			name: "unterminated fence falls back to body",
			raw:  "---\ntags: [a]\nno closing fence",
			body: "---\ntags: [a]\nno closing fence",
		},
		{
			name:        "leading whitespace before fence",
			raw:         "\n\n  ---\ngroup: data\n---\nbody",
			hasMetadata: true,
			group:       "data",
			body:        "body",
		},
		{
			name:        "malformed metadata is treated as empty",
			raw:         "---\ntags: [a\n---\nbody text",
			hasMetadata: true,
			body:        "body text",
		},
		{
			name:        "wrong value type is treated as empty",
			raw:         "---\ntags: {a: b}\ngroup: x\n---\nbody",
			hasMetadata: true,
			body:        "body",
		},
		{
			name:        "empty metadata block",
			raw:         "---\n---\nbody",
			hasMetadata: true,
			body:        "body",
		},
		{
			name:        "tags keep declaration order and duplicates",
			raw:         "---\ntags: [b, a, b]\n---\nx",
			hasMetadata: true,
			tags:        []string{"b", "a", "b"},
			body:        "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Parse(tt.raw)
			assert.Equal(t, tt.hasMetadata, doc.HasMetadata)
			assert.Equal(t, tt.description, doc.Metadata.Description)
			assert.Equal(t, tt.tags, doc.Metadata.Tags)
			assert.Equal(t, tt.group, doc.Metadata.Group)
			assert.Equal(t, tt.body, doc.Body)
		})
	}
}

func TestParseStrict(t *testing.T) {
	t.Run("decode failure is an error", func(t *testing.T) {
		_, err := ParseStrict("---\ntags: [a\n---\nbody")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid metadata block")
	})

	t.Run("missing block is not an error", func(t *testing.T) {
		doc, err := ParseStrict("just a body")
		require.NoError(t, err)
		assert.False(t, doc.HasMetadata)
		assert.Equal(t, "just a body", doc.Body)
		assert.Empty(t, doc.UnknownKeys)
	})

	t.Run("unknown keys collected in declaration order", func(t *testing.T) {
		doc, err := ParseStrict("---\nauthor: me\ndescription: d\nversion: 2\ntags: [x]\n---\nbody")
		require.NoError(t, err)
		assert.Equal(t, []string{"author", "version"}, doc.UnknownKeys)
		require.NotNil(t, doc.Metadata.Description)
		assert.Equal(t, "d", *doc.Metadata.Description)
		assert.Equal(t, []string{"x"}, doc.Metadata.Tags)
	})

	t.Run("all known keys", func(t *testing.T) {
		raw := "---\ndescription: d\ntags: [t]\ngroup: g\nlevel: senior\nskill_groups: [a, b]\ncategory: skill\n---\nbody"
		doc, err := ParseStrict(raw)
		require.NoError(t, err)
		assert.Empty(t, doc.UnknownKeys)
		assert.Equal(t, "g", doc.Metadata.Group)
		assert.Equal(t, "senior", doc.Metadata.Level)
		assert.Equal(t, []string{"a", "b"}, doc.Metadata.SkillGroups)
		assert.Equal(t, "skill", doc.Metadata.Category)
	})

	t.Run("scalar block is an error", func(t *testing.T) {
		_, err := ParseStrict("---\njust text\n---\nbody")
		require.Error(t, err)
	})

	t.Run("lenient and strict agree on valid input", func(t *testing.T) {
		raw := "---\ndescription: d\ntags: [t]\n---\n  body  "
		strict, err := ParseStrict(raw)
		require.NoError(t, err)
		assert.Equal(t, Parse(raw), strict.Document)
	})
}

func strPtr(s string) *string {
	return &s
}
