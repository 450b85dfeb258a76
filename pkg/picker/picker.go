// Package picker is the interactive fragment picker behind "mimic pick": choose
// a persona, adjust the suggested fragments for each category, and get the
// composed prompt back.
package picker

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/mimic-ai/mimic/pkg/compose"
	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/graph"
)

// ErrCancelled is returned by Run when the user quits without confirming.
var ErrCancelled = errors.New("selection cancelled")

// DefaultTone is preselected when it exists.
const DefaultTone = "concise"

// Stage is a step of the picker.
type Stage int

const (
	StagePersona Stage = iota
	StageSkills
	StageContexts
	StageTones
	StageConstraints
	StageDone
)

var stageCategories = map[Stage]fragments.Category{
	StagePersona:     fragments.CategoryPersona,
	StageSkills:      fragments.CategorySkill,
	StageContexts:    fragments.CategoryContext,
	StageTones:       fragments.CategoryTone,
	StageConstraints: fragments.CategoryConstraint,
}

// Category returns the fragment category chosen at this stage.
func (s Stage) Category() fragments.Category {
	return stageCategories[s]
}

type item struct {
	name        string
	description string
	suggested   bool
	selected    bool
}

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Confirm key.Binding
	Back    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		Back:    key.NewBinding(key.WithKeys("shift+tab", "backspace"), key.WithHelp("backspace", "back")),
		Quit:    key.NewBinding(key.WithKeys("esc", "ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

// Model is the bubbletea model of the picker.
type Model struct {
	src       graph.Source
	stage     Stage
	items     map[Stage][]item
	cursor    int
	keys      keyMap
	width     int
	prompt    string
	err       error
	cancelled bool

	titleStyle     lipgloss.Style
	cursorStyle    lipgloss.Style
	selectedStyle  lipgloss.Style
	suggestedStyle lipgloss.Style
	dimStyle       lipgloss.Style
}

// NewModel creates a picker over src starting at the persona stage.
func NewModel(src graph.Source) Model {
	m := Model{
		src:            src,
		stage:          StagePersona,
		items:          map[Stage][]item{},
		keys:           defaultKeyMap(),
		titleStyle:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#7aa2f7", Dark: "#7aa2f7"}),
		cursorStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		selectedStyle:  lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9ece6a", Dark: "#9ece6a"}),
		suggestedStyle: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#e0af68", Dark: "#e0af68"}),
		dimStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
	m.items[StagePersona] = m.itemsFor(fragments.CategoryPersona, nil)
	return m
}

func (m Model) itemsFor(category fragments.Category, suggested map[string]bool) []item {
	names := m.src.NamesForCategory(category)
	items := make([]item, 0, len(names))
	for _, name := range names {
		it := item{name: name, suggested: suggested[name], selected: suggested[name]}
		if f, ok := m.src.Get(category, name); ok {
			it.description = f.Description
		}
		items = append(items, it)
	}
	return items
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.items[m.stage]

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if m.stage != StagePersona && len(items) > 0 {
			items[m.cursor].selected = !items[m.cursor].selected
		}
	case key.Matches(msg, m.keys.Back):
		if m.stage > StagePersona {
			m.stage--
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.Confirm):
		return m.confirm()
	}
	return m, nil
}

func (m Model) confirm() (tea.Model, tea.Cmd) {
	if m.stage == StagePersona {
		items := m.items[StagePersona]
		if len(items) == 0 {
			return m, nil
		}
		persona := items[m.cursor].name
		if persona != m.selectedPersona() {
			if err := m.suggest(persona); err != nil {
				m.err = err
				return m, tea.Quit
			}
		}
		for i := range items {
			items[i].selected = i == m.cursor
		}
	}

	m.stage++
	m.cursor = 0
	if m.stage < StageDone {
		return m, nil
	}

	prompt, err := compose.Compose(m.src, m.Request())
	m.prompt = prompt
	m.err = err
	return m, tea.Quit
}

// suggest fills the remaining stages for persona. Skills in the persona's
// skill groups and the default tone start selected; everything else is
// opt-in, including every skill of a persona without skill groups.
func (m Model) suggest(persona string) error {
	rec, err := graph.Recommend(m.src, graph.RecommendQuery{Persona: persona})
	if err != nil {
		return err
	}

	var skills map[string]bool
	if len(rec.Persona.SkillGroups) > 0 {
		skills = names(rec.Skills)
	}
	m.items[StageSkills] = m.itemsFor(fragments.CategorySkill, skills)
	m.items[StageContexts] = m.itemsFor(fragments.CategoryContext, nil)
	tones := map[string]bool{}
	if _, ok := m.src.Get(fragments.CategoryTone, DefaultTone); ok {
		tones[DefaultTone] = true
	}
	m.items[StageTones] = m.itemsFor(fragments.CategoryTone, tones)
	m.items[StageConstraints] = m.itemsFor(fragments.CategoryConstraint, nil)
	return nil
}

func names(recs []graph.Recommendation) map[string]bool {
	out := make(map[string]bool, len(recs))
	for _, r := range recs {
		out[r.Name] = true
	}
	return out
}

func (m Model) selectedPersona() string {
	for _, it := range m.items[StagePersona] {
		if it.selected {
			return it.name
		}
	}
	return ""
}

func (m Model) selected(stage Stage) []string {
	var out []string
	for _, it := range m.items[stage] {
		if it.selected {
			out = append(out, it.name)
		}
	}
	return out
}

// Request is the compose request for the current selection.
func (m Model) Request() compose.Request {
	return compose.Request{
		Persona:     m.selectedPersona(),
		Skills:      m.selected(StageSkills),
		Contexts:    m.selected(StageContexts),
		Tones:       m.selected(StageTones),
		Constraints: m.selected(StageConstraints),
	}
}

// Stage returns the current step.
func (m Model) Stage() Stage {
	return m.stage
}

// Prompt returns the composed prompt once the picker is done.
func (m Model) Prompt() string {
	return m.prompt
}

// Err returns the error that ended the picker, if any.
func (m Model) Err() error {
	return m.err
}

// Cancelled reports whether the user quit before confirming.
func (m Model) Cancelled() bool {
	return m.cancelled
}

// View implements tea.Model.
func (m Model) View() string {
	if m.stage == StageDone || m.cancelled {
		return ""
	}

	var b strings.Builder
	title := fmt.Sprintf("Select %s (%d/%d)", m.stage.Category().DirName(), int(m.stage)+1, int(StageDone))
	if persona := m.selectedPersona(); persona != "" && m.stage != StagePersona {
		title += "  persona: " + persona
	}
	b.WriteString(m.titleStyle.Render(title))
	b.WriteString("\n\n")

	items := m.items[m.stage]
	if len(items) == 0 {
		b.WriteString(m.dimStyle.Render("  (none available)"))
		b.WriteString("\n")
	}
	for i, it := range items {
		b.WriteString(m.renderItem(it, i == m.cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.dimStyle.Render(m.help()))
	return b.String()
}

func (m Model) renderItem(it item, focused bool) string {
	pointer := "  "
	if focused {
		pointer = m.cursorStyle.Render("❯ ")
	}

	box := "[ ] "
	if m.stage == StagePersona {
		box = ""
	} else if it.selected {
		box = m.selectedStyle.Render("[x] ")
	}

	line := it.name
	if it.suggested {
		line += m.suggestedStyle.Render(" *")
	}
	if it.description != "" {
		desc := it.description
		if m.width > 0 {
			room := m.width - len(it.name) - 12
			if room < 10 {
				room = 10
			}
			if len(desc) > room {
				desc = desc[:room-3] + "..."
			}
		}
		line += m.dimStyle.Render("  " + desc)
	}
	return pointer + box + line
}

func (m Model) help() string {
	bindings := []key.Binding{m.keys.Up, m.keys.Down}
	if m.stage != StagePersona {
		bindings = append(bindings, m.keys.Toggle, m.keys.Back)
	}
	bindings = append(bindings, m.keys.Confirm, m.keys.Quit)

	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	if m.stage != StagePersona {
		parts = append(parts, "* suggested")
	}
	return strings.Join(parts, " • ")
}

// Run starts the picker and returns the composed prompt.
func Run(ctx context.Context, src graph.Source, opts ...tea.ProgramOption) (string, error) {
	if len(src.NamesForCategory(fragments.CategoryPersona)) == 0 {
		return "", errors.New("no personas available")
	}

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	final, err := tea.NewProgram(NewModel(src), opts...).Run()
	if err != nil {
		return "", errors.Wrap(err, "picker failed")
	}

	m, ok := final.(Model)
	if !ok {
		return "", errors.New("unexpected picker state")
	}
	if m.Cancelled() {
		return "", ErrCancelled
	}
	return m.Prompt(), m.Err()
}
