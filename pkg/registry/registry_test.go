package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimic-ai/mimic/pkg/fragments"
)

func writeDoc(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func doc(t string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(t)}
}

func testBuiltin() fstest.MapFS {
	return fstest.MapFS{
		"personas/backend.md":   doc("---\nlevel: senior\nskill_groups: [backend]\ntags: [backend]\n---\nBuiltin backend persona"),
		"skills/go.md":          doc("---\ngroup: backend\ntags: [backend, go]\n---\nBuiltin Go"),
		"skills/react.md":       doc("---\ngroup: frontend\ntags: [frontend]\n---\nBuiltin React"),
		"tones/concise.md":      doc("---\ntags: [style]\n---\nBe concise."),
		"constraints/notes.txt": doc("not a fragment"),
	}
}

func build(t *testing.T, opts ...Option) *Snapshot {
	t.Helper()
	snap, err := Build(context.Background(), opts...)
	require.NoError(t, err)
	return snap
}

func TestBuild_BuiltinOnly(t *testing.T) {
	snap := build(t, WithBuiltinFS(testBuiltin()), WithoutGlobalDir(), WithoutProjectDir())

	assert.Equal(t, 4, snap.Len())
	f, ok := snap.Get(fragments.CategorySkill, "go")
	require.True(t, ok)
	assert.Equal(t, fragments.OriginBuiltin, f.Origin)
	assert.Equal(t, "Builtin Go", f.Body)
	assert.Equal(t, "backend", f.Group)

	_, ok = snap.Get(fragments.CategoryConstraint, "notes")
	assert.False(t, ok)
	assert.Empty(t, snap.WatchedDirectories())
	assert.NoError(t, snap.Problems())
}

func TestBuild_EmbeddedDefaults(t *testing.T) {
	snap := build(t, WithoutGlobalDir(), WithoutProjectDir())
	for _, c := range fragments.Categories() {
		assert.NotEmpty(t, snap.NamesForCategory(c), c)
	}
}

func TestBuild_BuiltinFirstWriteWins(t *testing.T) {
	builtin := testBuiltin()
	builtin["go.md"] = doc("---\ncategory: skill\n---\nDuplicate Go")

	snap := build(t, WithBuiltinFS(builtin), WithoutGlobalDir(), WithoutProjectDir())

	f, ok := snap.Get(fragments.CategorySkill, "go")
	require.True(t, ok)
	assert.Equal(t, "Builtin Go", f.Body)
	assert.Empty(t, snap.Shadowed(fragments.CategorySkill, "go"))
}

func TestBuild_OriginPriority(t *testing.T) {
	global := t.TempDir()
	project := t.TempDir()
	writeDoc(t, global, "skills/go.md", "Global Go")
	writeDoc(t, global, "skills/react.md", "Global React")
	writeDoc(t, project, "skills/go.md", "Project Go")

	snap := build(t, WithBuiltinFS(testBuiltin()), WithGlobalDir(global), WithProjectDir(project))

	goFrag, _ := snap.Get(fragments.CategorySkill, "go")
	assert.Equal(t, fragments.OriginProject, goFrag.Origin)
	assert.Equal(t, "Project Go", goFrag.Body)
	// Whole-record replacement: the builtin group is not merged in.
	assert.Empty(t, goFrag.Group)

	react, _ := snap.Get(fragments.CategorySkill, "react")
	assert.Equal(t, fragments.OriginGlobal, react.Origin)

	tone, _ := snap.Get(fragments.CategoryTone, "concise")
	assert.Equal(t, fragments.OriginBuiltin, tone.Origin)

	shadowed := snap.Shadowed(fragments.CategorySkill, "go")
	require.Len(t, shadowed, 2)
	assert.Equal(t, fragments.OriginBuiltin, shadowed[0].Origin)
	assert.Equal(t, fragments.OriginGlobal, shadowed[1].Origin)

	assert.Equal(t, []string{project, global}, snap.WatchedDirectories())
}

func TestBuild_CreatesCategoryDirs(t *testing.T) {
	global := filepath.Join(t.TempDir(), "global")
	build(t, WithBuiltinFS(testBuiltin()), WithGlobalDir(global), WithoutProjectDir())

	for _, c := range fragments.Categories() {
		info, err := os.Stat(filepath.Join(global, c.DirName()))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestBuild_WithoutDirCreation(t *testing.T) {
	global := filepath.Join(t.TempDir(), "missing")
	snap := build(t, WithBuiltinFS(testBuiltin()), WithGlobalDir(global), WithoutProjectDir(), WithoutDirCreation())

	_, err := os.Stat(global)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, snap.Problems())
	assert.Equal(t, 4, snap.Len())
}

func TestBuild_RootLevelDocuments(t *testing.T) {
	global := t.TempDir()
	writeDoc(t, global, "reviewer.md", "---\ncategory: persona\nlevel: staff\n---\nA reviewer")
	writeDoc(t, global, "calm.md", "---\ncategory: tones\n---\nStay calm")
	writeDoc(t, global, "orphan.md", "---\ntags: [x]\n---\nNo category")
	writeDoc(t, global, "weird.md", "---\ncategory: recipe\n---\nUnknown category")
	writeDoc(t, global, "README.txt", "ignored")

	snap := build(t, WithBuiltinFS(testBuiltin()), WithGlobalDir(global), WithoutProjectDir())

	persona, ok := snap.Get(fragments.CategoryPersona, "reviewer")
	require.True(t, ok)
	assert.Equal(t, "staff", persona.Level)
	assert.Equal(t, fragments.OriginGlobal, persona.Origin)

	_, ok = snap.Get(fragments.CategoryTone, "calm")
	assert.True(t, ok)

	for _, c := range fragments.Categories() {
		assert.NotContains(t, snap.NamesForCategory(c), "orphan")
		assert.NotContains(t, snap.NamesForCategory(c), "weird")
	}

	problems := snap.Problems()
	require.Error(t, problems)
	assert.Contains(t, problems.Error(), "orphan.md")
	assert.Contains(t, problems.Error(), "missing `category`")
	assert.Contains(t, problems.Error(), "unknown category `recipe`")
}

func TestBuild_RootLevelOverridesSubdirectory(t *testing.T) {
	project := t.TempDir()
	writeDoc(t, project, "skills/go.md", "Subdirectory Go")
	writeDoc(t, project, "go.md", "---\ncategory: skill\n---\nRoot Go")

	snap := build(t, WithBuiltinFS(testBuiltin()), WithoutGlobalDir(), WithProjectDir(project))

	f, _ := snap.Get(fragments.CategorySkill, "go")
	assert.Equal(t, "Root Go", f.Body)
	assert.Len(t, snap.Shadowed(fragments.CategorySkill, "go"), 2)
}

func TestBuild_MalformedMetadataIsEmpty(t *testing.T) {
	project := t.TempDir()
	writeDoc(t, project, "skills/broken.md", "---\ntags: [a\n---\nStill a body")
	writeDoc(t, project, "skills/extra.md", "---\nauthor: me\ngroup: g\n---\nUnknown keys ignored")
	writeDoc(t, project, "skills/dir.md/nested.md", "directories named like documents are ignored")

	snap := build(t, WithBuiltinFS(testBuiltin()), WithoutGlobalDir(), WithProjectDir(project))

	broken, ok := snap.Get(fragments.CategorySkill, "broken")
	require.True(t, ok)
	assert.Empty(t, broken.Tags)
	assert.Equal(t, "Still a body", broken.Body)
	assert.Equal(t, "Still a body", broken.Description)

	extra, ok := snap.Get(fragments.CategorySkill, "extra")
	require.True(t, ok)
	assert.Equal(t, "g", extra.Group)

	_, ok = snap.Get(fragments.CategorySkill, "dir")
	assert.False(t, ok)
	assert.NoError(t, snap.Problems())
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, WithBuiltinFS(testBuiltin()), WithoutGlobalDir(), WithoutProjectDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveLayers(t *testing.T) {
	global := t.TempDir()
	project := t.TempDir()

	layers, err := ResolveLayers(context.Background(), WithBuiltinFS(testBuiltin()), WithGlobalDir(global), WithProjectDir(project))
	require.NoError(t, err)
	require.Len(t, layers, 3)
	assert.Equal(t, fragments.OriginBuiltin, layers[0].Origin)
	assert.Equal(t, fragments.OriginGlobal, layers[1].Origin)
	assert.Equal(t, global, layers[1].Dir)
	assert.Equal(t, fragments.OriginProject, layers[2].Origin)
	assert.Equal(t, "<built-in>/skills/go.md", layers[0].DisplayPath("skills/go.md"))
}

func TestLayerDocuments_Order(t *testing.T) {
	layer := Layer{FS: fstest.MapFS{
		"tones/b.md":    doc("b"),
		"personas/a.md": doc("a"),
		"root.md":       doc("---\ncategory: skill\n---\nr"),
		"skills/z.md":   doc("z"),
		"skills/a.md":   doc("a"),
	}}

	refs := layer.Documents(func(string, error) { t.Fatal("unexpected error") })
	var paths []string
	for _, r := range refs {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"personas/a.md", "skills/a.md", "skills/z.md", "tones/b.md", "root.md"}, paths)
	assert.True(t, refs[4].RootLevel())
	assert.False(t, refs[0].RootLevel())
}
