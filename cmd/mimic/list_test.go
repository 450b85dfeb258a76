package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/registry"
)

func TestListConfigFilter(t *testing.T) {
	config := &ListConfig{Category: "skills", Tag: "go", Group: "backend"}
	filter, err := config.Filter()
	require.NoError(t, err)
	assert.Equal(t, registry.Filter{Category: fragments.CategorySkill, Tag: "go", Group: "backend"}, filter)

	filter, err = NewListConfig().Filter()
	require.NoError(t, err)
	assert.Equal(t, registry.Filter{}, filter)

	_, err = (&ListConfig{Category: "Skills"}).Filter()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category 'Skills'")
}

func TestMatchNames(t *testing.T) {
	frags := []*fragments.Fragment{
		{Name: "react", Category: fragments.CategorySkill},
		{Name: "react-native", Category: fragments.CategorySkill},
		{Name: "go", Category: fragments.CategorySkill},
	}

	names := func(fs []*fragments.Fragment) []string {
		out := []string{}
		for _, f := range fs {
			out = append(out, f.Name)
		}
		return out
	}

	tests := []struct {
		pattern string
		want    []string
	}{
		{"", []string{"react", "react-native", "go"}},
		{"react*", []string{"react", "react-native"}},
		{"?o", []string{"go"}},
		{"{go,react}", []string{"react", "go"}},
		{"python", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := matchNames(frags, tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}

	_, err := matchNames(frags, "[")
	assert.Error(t, err)
}

func TestFragmentRows(t *testing.T) {
	long := "A description that is definitely longer than sixty characters in total length"
	rows := fragmentRows([]*fragments.Fragment{{
		Name:        "go",
		Category:    fragments.CategorySkill,
		Origin:      fragments.OriginProject,
		Group:       "backend",
		Tags:        []string{"lang", "server"},
		Description: long,
	}})

	require.Len(t, rows, 1)
	assert.Equal(t, []string{"skill", "go", "project", "backend", "lang,server"}, rows[0][:5])
	assert.Len(t, []rune(rows[0][5]), 60)
	assert.True(t, len(rows[0][5]) < len(long))
	assert.Equal(t, "short", truncate("short", 60))
}
