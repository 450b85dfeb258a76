// Package presenter writes user-facing CLI output: status messages with
// color, plain tables and JSON documents. Status messages respect quiet
// mode; command results (Table, JSON, Print) are always written.
package presenter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// Presenter is the output surface used by the commands.
type Presenter interface {
	Error(err error, context string)
	Success(message string)
	Warning(message string)
	Info(message string)
	Section(title string)
	Separator()
	Prompt(question string, options ...string) string
	Print(text string)
	Table(headers []string, rows [][]string)
	JSON(v interface{}) error
	SetQuiet(quiet bool)
	IsQuiet() bool
}

// ColorMode selects when output is colored.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// TerminalPresenter writes to a pair of streams.
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	input       io.Reader
	colorMode   ColorMode
	quiet       bool
}

// New writes to stdout and stderr with the color mode taken from the
// environment.
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a presenter over custom streams.
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}

	return &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
		input:       os.Stdin,
		colorMode:   colorMode,
	}
}

// detectColorMode honours NO_COLOR and MIMIC_COLOR (always/force, never/off).
func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}

	switch os.Getenv("MIMIC_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// SetInput replaces the reader used by Prompt.
func (p *TerminalPresenter) SetInput(r io.Reader) {
	p.input = r
}

// Error writes err to the error stream. It is shown in quiet mode too.
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}

	c := color.New(color.FgRed, color.Bold)
	if context != "" {
		c.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
	} else {
		c.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
	}
}

func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintf(p.output, "✓ %s\n", message)
}

func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgYellow, color.Bold).Fprintf(p.output, "⚠ %s\n", message)
}

func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.output, message)
}

// Section prints an underlined title.
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}
	c := color.New(color.Bold)
	c.Fprintln(p.output, title)
	c.Fprintln(p.output, strings.Repeat("-", len(title)))
}

func (p *TerminalPresenter) Separator() {
	if p.quiet {
		return
	}
	color.New(color.Faint).Fprintln(p.output, strings.Repeat("-", 60))
}

// Prompt asks a question and returns the trimmed answer, or "" when input
// cannot be read.
func (p *TerminalPresenter) Prompt(question string, options ...string) string {
	c := color.New(color.FgCyan)
	if len(options) > 0 {
		c.Fprintf(p.output, "%s [%s]: ", question, strings.Join(options, "/"))
	} else {
		c.Fprintf(p.output, "%s: ", question)
	}

	response, err := bufio.NewReader(p.input).ReadString('\n')
	if err != nil && response == "" {
		return ""
	}
	return strings.TrimSpace(response)
}

// Print writes text followed by a newline.
func (p *TerminalPresenter) Print(text string) {
	fmt.Fprintln(p.output, text)
}

// Table writes tab-aligned columns.
func (p *TerminalPresenter) Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(p.output, 0, 0, 2, ' ', 0)
	if len(headers) > 0 {
		fmt.Fprintln(w, strings.Join(headers, "\t"))
		dashes := make([]string, len(headers))
		for i, h := range headers {
			dashes[i] = strings.Repeat("-", len(h))
		}
		fmt.Fprintln(w, strings.Join(dashes, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

// JSON writes v as indented JSON.
func (p *TerminalPresenter) JSON(v interface{}) error {
	enc := json.NewEncoder(p.output)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}

var defaultPresenter Presenter = New()

// Default returns the process-wide presenter.
func Default() Presenter {
	return defaultPresenter
}

// Error reports err on the default presenter.
func Error(err error, context string) {
	defaultPresenter.Error(err, context)
}

// Success reports a success on the default presenter.
func Success(message string) {
	defaultPresenter.Success(message)
}

// Warning reports a warning on the default presenter.
func Warning(message string) {
	defaultPresenter.Warning(message)
}

// Info prints message on the default presenter.
func Info(message string) {
	defaultPresenter.Info(message)
}

// Section prints a title on the default presenter.
func Section(title string) {
	defaultPresenter.Section(title)
}

// Separator prints a rule on the default presenter.
func Separator() {
	defaultPresenter.Separator()
}

// Prompt asks on the default presenter.
func Prompt(question string, options ...string) string {
	return defaultPresenter.Prompt(question, options...)
}

// Print writes text on the default presenter.
func Print(text string) {
	defaultPresenter.Print(text)
}

// Table writes a table on the default presenter.
func Table(headers []string, rows [][]string) {
	defaultPresenter.Table(headers, rows)
}

// JSON writes v on the default presenter.
func JSON(v interface{}) error {
	return defaultPresenter.JSON(v)
}

// SetQuiet toggles quiet mode on the default presenter.
func SetQuiet(quiet bool) {
	defaultPresenter.SetQuiet(quiet)
}

// IsQuiet reports quiet mode of the default presenter.
func IsQuiet() bool {
	return defaultPresenter.IsQuiet()
}
