// Package presenter prints user-facing CLI messages: errors, successes,
// warnings and section headers, with color and quiet-mode support.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// ColorMode selects how color output is decided.
type ColorMode int

const (
	// ColorAuto lets the color package detect terminal support.
	ColorAuto ColorMode = iota
	// ColorAlways forces color on.
	ColorAlways
	// ColorNever forces color off.
	ColorNever
)

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	successStyle = color.New(color.FgGreen, color.Bold)
	warningStyle = color.New(color.FgYellow, color.Bold)
	sectionStyle = color.New(color.Bold)
	faintStyle   = color.New(color.Faint)
)

// TerminalPresenter writes messages to a terminal. Regular messages go
// to output, errors to errorOutput. Quiet mode drops everything except
// errors.
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	colorMode   ColorMode
	quiet       bool
}

// New returns a presenter on stdout/stderr with the color mode detected
// from the environment.
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions returns a presenter writing to the given streams.
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
		colorMode:   colorMode,
	}
}

// detectColorMode honors NO_COLOR first, then AGENTSKILLS_COLOR.
func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}
	switch os.Getenv("AGENTSKILLS_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	}
	return ColorAuto
}

// Error reports err on the error stream, prefixed with context when one
// is given. Errors print even in quiet mode.
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}
	if context != "" {
		errorStyle.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
		return
	}
	errorStyle.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
}

// Success prints a checkmarked message.
func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}
	successStyle.Fprintf(p.output, "✓ %s\n", message)
}

// Warning prints a warning message.
func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}
	warningStyle.Fprintf(p.output, "⚠ %s\n", message)
}

// Info prints a plain message with no prefix.
func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.output, message)
}

// Section prints a title underlined to its own width.
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}
	sectionStyle.Fprintf(p.output, "%s\n%s\n", title, strings.Repeat("-", len(title)))
}

// Separator prints a horizontal rule.
func (p *TerminalPresenter) Separator() {
	if p.quiet {
		return
	}
	faintStyle.Fprintf(p.output, "%s\n", strings.Repeat("-", 60))
}

// SetQuiet toggles quiet mode.
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// IsQuiet reports whether quiet mode is on.
func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}

var defaultPresenter = New()

// Error reports err through the default presenter.
func Error(err error, context string) { defaultPresenter.Error(err, context) }

// Success prints a success message through the default presenter.
func Success(message string) { defaultPresenter.Success(message) }

// Warning prints a warning through the default presenter.
func Warning(message string) { defaultPresenter.Warning(message) }

// Info prints a plain message through the default presenter.
func Info(message string) { defaultPresenter.Info(message) }

// Section prints a section header through the default presenter.
func Section(title string) { defaultPresenter.Section(title) }

// Separator prints a horizontal rule through the default presenter.
func Separator() { defaultPresenter.Separator() }

// SetQuiet toggles quiet mode on the default presenter.
func SetQuiet(quiet bool) { defaultPresenter.SetQuiet(quiet) }

// IsQuiet reports whether the default presenter is quiet.
func IsQuiet() bool { return defaultPresenter.IsQuiet() }
