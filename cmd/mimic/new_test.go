package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimic-ai/mimic/pkg/fragments"
)

func TestScaffoldConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  ScaffoldConfig
		wantErr string
	}{
		{"valid", ScaffoldConfig{Category: fragments.CategorySkill, Name: "terraform"}, ""},
		{"dotted name", ScaffoldConfig{Category: fragments.CategorySkill, Name: "node.js"}, ""},
		{"missing category", ScaffoldConfig{Name: "terraform"}, "valid category"},
		{"empty name", ScaffoldConfig{Category: fragments.CategorySkill}, "name cannot be empty"},
		{"path separator", ScaffoldConfig{Category: fragments.CategorySkill, Name: "a/b"}, "invalid fragment name"},
		{"hidden", ScaffoldConfig{Category: fragments.CategorySkill, Name: ".secret"}, "invalid fragment name"},
		{"extension", ScaffoldConfig{Category: fragments.CategorySkill, Name: "go.md"}, "extension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScaffold(t *testing.T) {
	dir := t.TempDir()
	config := &ScaffoldConfig{
		Category:    fragments.CategoryPersona,
		Name:        "sre",
		Description: "Site reliability engineer",
		Tags:        []string{"ops"},
		Level:       "senior",
		SkillGroups: []string{"infra"},
	}

	path, err := scaffold(dir, config.Fragment(), false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "personas", "sre.md"), path)
	for _, c := range fragments.Categories() {
		assert.DirExists(t, filepath.Join(dir, c.DirName()))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc, err := fragments.ParseStrict(string(data))
	require.NoError(t, err)
	assert.Empty(t, doc.UnknownKeys)

	f := fragments.FromDocument(doc.Document, "sre", fragments.CategoryPersona, fragments.OriginProject)
	assert.Equal(t, "Site reliability engineer", f.Description)
	assert.Equal(t, []string{"ops"}, f.Tags)
	assert.Equal(t, "senior", f.Level)
	assert.Equal(t, []string{"infra"}, f.SkillGroups)
	assert.Equal(t, `Describe the persona "sre" here.`, f.Body)

	_, err = scaffold(dir, config.Fragment(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	config.Description = "Updated"
	_, err = scaffold(dir, config.Fragment(), true)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "description: Updated")
}

func TestScaffoldConfigFragmentDefaults(t *testing.T) {
	f := (&ScaffoldConfig{Category: fragments.CategorySkill, Name: "terraform"}).Fragment()
	assert.Equal(t, "TODO: describe terraform", f.Description)
	assert.Equal(t, fragments.CategorySkill, f.Category)
	assert.Empty(t, f.Group)
}
