package fragments

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("description defaults to first body line", func(t *testing.T) {
		f := New("---\ntags: [go]\n---\n\nFirst line\nSecond line", "go", CategorySkill, OriginBuiltin)
		assert.Equal(t, "First line", f.Description)
		assert.Equal(t, "go", f.Name)
		assert.Equal(t, CategorySkill, f.Category)
		assert.Equal(t, OriginBuiltin, f.Origin)
		assert.Equal(t, []string{"go"}, f.Tags)
	})

	t.Run("explicit empty description is kept", func(t *testing.T) {
		f := New("---\ndescription: \"\"\n---\nBody", "x", CategoryTone, OriginGlobal)
		assert.Equal(t, "", f.Description)
	})

	t.Run("persona fields", func(t *testing.T) {
		f := New("---\nlevel: senior\nskill_groups: [backend, data]\n---\nYou are.", "be", CategoryPersona, OriginProject)
		assert.Equal(t, "senior", f.Level)
		assert.Equal(t, []string{"backend", "data"}, f.SkillGroups)
	})

	t.Run("tags never nil", func(t *testing.T) {
		f := New("body only", "x", CategoryContext, OriginBuiltin)
		assert.NotNil(t, f.Tags)
		assert.Empty(t, f.Tags)
		assert.Equal(t, "body only", f.Description)
	})
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"skills/my.dotted.name.md": {Data: []byte("---\ngroup: g\n---\nbody")},
	}

	f, err := Load(fsys, "skills/my.dotted.name.md", CategorySkill, OriginProject)
	require.NoError(t, err)
	assert.Equal(t, "my.dotted.name", f.Name)
	assert.Equal(t, "g", f.Group)
	assert.Equal(t, "skills/my.dotted.name.md", f.Path)

	_, err = Load(fsys, "skills/missing.md", CategorySkill, OriginProject)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestNameFromFile(t *testing.T) {
	assert.Equal(t, "go", NameFromFile("skills/go.md"))
	assert.Equal(t, "a.b", NameFromFile("a.b.md"))
	assert.True(t, IsDocument("x.md"))
	assert.False(t, IsDocument("x.markdown"))
	assert.False(t, IsDocument("README"))
}

func TestTagHelpers(t *testing.T) {
	f := &Fragment{Tags: []string{"a", "b"}}
	assert.True(t, f.HasTag("a"))
	assert.False(t, f.HasTag("c"))
	assert.True(t, f.SharesTag([]string{"c", "b"}))
	assert.False(t, f.SharesTag(nil))
	assert.Equal(t, "skill:go", (&Fragment{Name: "go", Category: CategorySkill}).ID())
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError(CategoryPersona, "ghost")
	assert.Equal(t, "persona 'ghost' not found", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(errors.Wrap(err, "resolve"), ErrNotFound))

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "ghost", nf.Name)
}

func TestOriginPriority(t *testing.T) {
	assert.Less(t, OriginBuiltin.Priority(), OriginGlobal.Priority())
	assert.Less(t, OriginGlobal.Priority(), OriginProject.Priority())
}
