package picker

import (
	"sort"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimic-ai/mimic/pkg/compose"
	"github.com/mimic-ai/mimic/pkg/fragments"
)

type fakeSource map[fragments.Category]map[string]*fragments.Fragment

func (s fakeSource) Get(c fragments.Category, name string) (*fragments.Fragment, bool) {
	f, ok := s[c][name]
	return f, ok
}

func (s fakeSource) NamesForCategory(c fragments.Category) []string {
	names := make([]string, 0, len(s[c]))
	for n := range s[c] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func testSource() fakeSource {
	s := fakeSource{}
	add := func(f *fragments.Fragment) {
		if s[f.Category] == nil {
			s[f.Category] = map[string]*fragments.Fragment{}
		}
		s[f.Category][f.Name] = f
	}
	add(&fragments.Fragment{Name: "backend", Category: fragments.CategoryPersona, SkillGroups: []string{"server"}, Body: "You build services.", Description: "Backend engineer"})
	add(&fragments.Fragment{Name: "designer", Category: fragments.CategoryPersona, Body: "You design interfaces."})
	add(&fragments.Fragment{Name: "go", Category: fragments.CategorySkill, Group: "server", Body: "Go."})
	add(&fragments.Fragment{Name: "css", Category: fragments.CategorySkill, Group: "web", Body: "CSS."})
	add(&fragments.Fragment{Name: "review", Category: fragments.CategoryContext, Body: "Reviewing."})
	add(&fragments.Fragment{Name: "concise", Category: fragments.CategoryTone, Body: "Be brief."})
	add(&fragments.Fragment{Name: "formal", Category: fragments.CategoryTone, Body: "Be formal."})
	add(&fragments.Fragment{Name: "no-secrets", Category: fragments.CategoryConstraint, Body: "No secrets."})
	return s
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyBack  = tea.KeyMsg{Type: tea.KeyBackspace}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func send(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestPicker_SuggestedSelection(t *testing.T) {
	m := NewModel(testSource())
	assert.Equal(t, StagePersona, m.Stage())

	// backend is first; confirm it and accept every suggestion.
	m, cmd := send(t, m, keyEnter)
	assert.Equal(t, StageSkills, m.Stage())
	assert.False(t, isQuit(cmd))

	m, cmd = send(t, m, keyEnter, keyEnter, keyEnter, keyEnter)
	assert.Equal(t, StageDone, m.Stage())
	assert.True(t, isQuit(cmd))
	require.NoError(t, m.Err())

	assert.Equal(t, compose.Request{
		Persona: "backend",
		Skills:  []string{"go"},
		Tones:   []string{"concise"},
	}, m.Request())
	assert.Equal(t, "You build services.\n\n## Expertise\n\nGo.\n\n## Communication Style\n\nBe brief.", m.Prompt())
}

func TestPicker_ToggleAndNavigate(t *testing.T) {
	m := NewModel(testSource())

	m, _ = send(t, m, keyDown, keyEnter)
	assert.Equal(t, "designer", m.Request().Persona)
	assert.Empty(t, m.Request().Skills)

	// skills: css, go
	m, _ = send(t, m, keySpace, keyEnter)
	// contexts: review
	m, _ = send(t, m, keySpace, keyEnter)
	// tones: concise (preselected), formal
	m, _ = send(t, m, keySpace, keyDown, keySpace, keyEnter)
	// constraints: skip
	m, cmd := send(t, m, keyEnter)

	assert.True(t, isQuit(cmd))
	assert.Equal(t, compose.Request{
		Persona:  "designer",
		Skills:   []string{"css"},
		Contexts: []string{"review"},
		Tones:    []string{"formal"},
	}, m.Request())
}

func TestPicker_Back(t *testing.T) {
	m := NewModel(testSource())

	m, _ = send(t, m, keyEnter, keySpace, keyEnter)
	assert.Equal(t, StageContexts, m.Stage())

	m, _ = send(t, m, keyBack)
	assert.Equal(t, StageSkills, m.Stage())
	assert.Equal(t, []string{"css", "go"}, m.Request().Skills)

	m, _ = send(t, m, keyBack, keyBack)
	assert.Equal(t, StagePersona, m.Stage())
}

func TestPicker_CursorBounds(t *testing.T) {
	m := NewModel(testSource())

	m, _ = send(t, m, keyUp, keyUp)
	assert.Equal(t, 0, m.cursor)

	m, _ = send(t, m, keyDown, keyDown, keyDown)
	assert.Equal(t, 1, m.cursor)
}

func TestPicker_Cancel(t *testing.T) {
	m := NewModel(testSource())

	m, cmd := send(t, m, keyEnter, keyEsc)
	assert.True(t, isQuit(cmd))
	assert.True(t, m.Cancelled())
	assert.Empty(t, m.Prompt())
	assert.Empty(t, m.View())
}

func TestPicker_View(t *testing.T) {
	m := NewModel(testSource())
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 20})

	view := m.View()
	assert.Contains(t, view, "Select personas (1/5)")
	assert.Contains(t, view, "backend")
	assert.Contains(t, view, "Backend engineer")
	assert.Contains(t, view, "enter confirm")
	assert.NotContains(t, view, "space toggle")

	m, _ = send(t, m, keyEnter)
	view = m.View()
	assert.Contains(t, view, "Select skills (2/5)")
	assert.Contains(t, view, "persona: backend")
	assert.Contains(t, view, "space toggle")
	assert.Contains(t, view, "* suggested")
}

func TestPicker_EmptyStage(t *testing.T) {
	src := testSource()
	delete(src, fragments.CategoryContext)

	m := NewModel(src)
	m, _ = send(t, m, keyEnter, keyEnter)
	assert.Equal(t, StageContexts, m.Stage())
	assert.Contains(t, m.View(), "(none available)")

	m, _ = send(t, m, keySpace, keyEnter)
	assert.Equal(t, StageTones, m.Stage())
}
