// Package output provides styling helpers for terminal output.
package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Styles provides styled output helpers for the CLI. Colors are dropped
// automatically when the writer is not a terminal.
type Styles struct {
	renderer *lipgloss.Renderer

	success lipgloss.Style
	err     lipgloss.Style
	warning lipgloss.Style
	path    lipgloss.Style
	account lipgloss.Style
	amount  lipgloss.Style
	rule    lipgloss.Style
	keyword lipgloss.Style
	dim     lipgloss.Style
	credit  lipgloss.Style
	debit   lipgloss.Style
}

// NewStyles creates a new Styles instance for the given writer.
func NewStyles(w io.Writer) *Styles {
	r := lipgloss.NewRenderer(w)
	return &Styles{
		renderer: r,
		success:  r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		err:      r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warning:  r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		path:     r.NewStyle().Foreground(lipgloss.Color("6")),
		account:  r.NewStyle().Foreground(lipgloss.Color("3")),
		amount:   r.NewStyle().Foreground(lipgloss.Color("5")),
		rule:     r.NewStyle().Foreground(lipgloss.Color("4")),
		keyword:  r.NewStyle().Bold(true),
		dim:      r.NewStyle().Faint(true),
		credit:   r.NewStyle().Foreground(lipgloss.Color("2")),
		debit:    r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// Success returns a styled success string (green + bold).
func (s *Styles) Success(text string) string {
	return s.success.Render(text)
}

// Error returns a styled error string (red + bold).
func (s *Styles) Error(text string) string {
	return s.err.Render(text)
}

// Warning returns a styled warning (yellow + bold).
func (s *Styles) Warning(text string) string {
	return s.warning.Render(text)
}

// FilePath returns a styled file path (cyan).
func (s *Styles) FilePath(text string) string {
	return s.path.Render(text)
}

// Account returns a styled account code or path (yellow).
func (s *Styles) Account(text string) string {
	return s.account.Render(text)
}

// Amount returns a styled amount (magenta).
func (s *Styles) Amount(text string) string {
	return s.amount.Render(text)
}

// RuleID returns a styled rule id (blue).
func (s *Styles) RuleID(text string) string {
	return s.rule.Render(text)
}

// LedgerType colors CR green and DR red. Anything else is returned as is.
func (s *Styles) LedgerType(text string) string {
	switch text {
	case "CR":
		return s.credit.Render(text)
	case "DR":
		return s.debit.Render(text)
	}
	return text
}

// Keyword returns a styled keyword (bold).
func (s *Styles) Keyword(text string) string {
	return s.keyword.Render(text)
}

// Dim returns dimmed text (for secondary information).
func (s *Styles) Dim(text string) string {
	return s.dim.Render(text)
}

// Timing returns a styled timing string. Slow operations are red, the rest dimmed.
func (s *Styles) Timing(text string, isSlowOperation bool) string {
	if isSlowOperation {
		return s.err.UnsetBold().Render(text)
	}
	return s.Dim(text)
}

// Renderer returns the underlying lipgloss renderer for advanced usage.
func (s *Styles) Renderer() *lipgloss.Renderer {
	return s.renderer
}
