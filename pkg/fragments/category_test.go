package fragments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryDirRoundTrip(t *testing.T) {
	for _, c := range Categories() {
		got, ok := CategoryFromDir(c.DirName())
		assert.True(t, ok, c)
		assert.Equal(t, c, got)
	}
}

func TestCategoriesOrder(t *testing.T) {
	assert.Equal(t, []Category{
		CategoryPersona,
		CategorySkill,
		CategoryContext,
		CategoryTone,
		CategoryConstraint,
	}, Categories())

	// Callers must not be able to reorder the canonical list.
	cats := Categories()
	cats[0] = CategoryTone
	assert.Equal(t, CategoryPersona, Categories()[0])
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected Category
		ok       bool
	}{
		{"persona", CategoryPersona, true},
		{"personas", CategoryPersona, true},
		{"skill", CategorySkill, true},
		{"skills", CategorySkill, true},
		{"context", CategoryContext, true},
		{"contexts", CategoryContext, true},
		{"tone", CategoryTone, true},
		{"tones", CategoryTone, true},
		{"constraint", CategoryConstraint, true},
		{"constraints", CategoryConstraint, true},
		{"Skill", "", false},
		{"recipe", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseCategory(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, CategoryTone.Valid())
	assert.False(t, Category("recipes").Valid())
	_, ok := CategoryFromDir("persona")
	assert.False(t, ok)
}
