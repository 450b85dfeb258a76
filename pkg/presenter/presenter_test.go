package presenter

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPresenter() (*TerminalPresenter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewWithOptions(&out, &errOut, ColorNever), &out, &errOut
}

func TestNew(t *testing.T) {
	p := New()
	assert.Equal(t, os.Stdout, p.output)
	assert.Equal(t, os.Stderr, p.errorOutput)
	assert.False(t, p.IsQuiet())
}

func TestDetectColorMode(t *testing.T) {
	tests := []struct {
		name       string
		noColor    string
		mimicColor string
		expected   ColorMode
	}{
		{"NO_COLOR set", "1", "", ColorNever},
		{"MIMIC_COLOR always", "", "always", ColorAlways},
		{"MIMIC_COLOR force", "", "force", ColorAlways},
		{"MIMIC_COLOR never", "", "never", ColorNever},
		{"MIMIC_COLOR off", "", "off", ColorNever},
		{"default", "", "", ColorAuto},
		{"unknown value", "", "sometimes", ColorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", tt.noColor)
			t.Setenv("MIMIC_COLOR", tt.mimicColor)
			if tt.noColor == "" {
				os.Unsetenv("NO_COLOR")
			}
			assert.Equal(t, tt.expected, detectColorMode())
		})
	}
}

func TestMessages(t *testing.T) {
	p, out, errOut := newTestPresenter()

	p.Error(errors.New("boom"), "loading")
	p.Error(errors.New("plain"), "")
	p.Error(nil, "ignored")
	p.Success("done")
	p.Warning("careful")
	p.Info("fyi")
	p.Section("Title")
	p.Separator()

	assert.Equal(t, "[ERROR] loading: boom\n[ERROR] plain\n", errOut.String())
	assert.Contains(t, out.String(), "✓ done\n")
	assert.Contains(t, out.String(), "⚠ careful\n")
	assert.Contains(t, out.String(), "fyi\n")
	assert.Contains(t, out.String(), "Title\n-----\n")
	assert.Contains(t, out.String(), strings.Repeat("-", 60))
}

func TestQuietMode(t *testing.T) {
	p, out, errOut := newTestPresenter()
	p.SetQuiet(true)
	assert.True(t, p.IsQuiet())

	p.Success("done")
	p.Warning("careful")
	p.Info("fyi")
	p.Section("Title")
	p.Separator()
	assert.Empty(t, out.String())

	// Errors and results still go out.
	p.Error(errors.New("boom"), "")
	p.Print("result")
	assert.Equal(t, "[ERROR] boom\n", errOut.String())
	assert.Equal(t, "result\n", out.String())
}

func TestTable(t *testing.T) {
	p, out, _ := newTestPresenter()
	p.Table([]string{"NAME", "CATEGORY"}, [][]string{
		{"go", "skill"},
		{"backend-engineer", "persona"},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "NAME              CATEGORY", lines[0])
	assert.Equal(t, "----              --------", lines[1])
	assert.Equal(t, "go                skill", lines[2])
	assert.Equal(t, "backend-engineer  persona", lines[3])
}

func TestJSON(t *testing.T) {
	p, out, _ := newTestPresenter()
	require.NoError(t, p.JSON(map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", out.String())
}

func TestPrompt(t *testing.T) {
	p, out, _ := newTestPresenter()
	p.SetInput(strings.NewReader("  yes \n"))

	assert.Equal(t, "yes", p.Prompt("Overwrite", "y", "N"))
	assert.Equal(t, "Overwrite [y/N]: ", out.String())

	p.SetInput(strings.NewReader(""))
	assert.Equal(t, "", p.Prompt("Name"))
}
