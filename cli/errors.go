package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robinvdvleuten/veritas/errors"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors for the terminal, or as JSON when asked to.
type ErrorRenderer struct {
	text *errors.TextFormatter
	json *errors.JSONFormatter
}

// NewErrorRenderer creates a renderer for format, either "text" or "json".
func NewErrorRenderer(format string) *ErrorRenderer {
	if format == "json" {
		return &ErrorRenderer{json: errors.NewJSONFormatter()}
	}
	return &ErrorRenderer{text: errors.NewTextFormatter()}
}

// Render formats a single error.
func (r *ErrorRenderer) Render(err error) string {
	if r.json != nil {
		return r.json.Format(err)
	}
	return r.style(r.text.Format(err))
}

// RenderAll formats multiple errors. Text output separates them with blank
// lines, JSON output is a single array.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}
	if r.json != nil {
		return r.json.FormatAll(errs)
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(r.Render(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// style colors the message line, dims the quoted condition and highlights the caret.
func (r *ErrorRenderer) style(formatted string) string {
	lines := strings.Split(formatted, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case i == 0:
			lines[i] = errorStyle.Render(line)
		case trimmed == "^":
			lines[i] = strings.TrimSuffix(line, "^") + errCaretStyle.Render("^")
		case strings.HasPrefix(line, "   ") && i+1 < len(lines) && strings.TrimSpace(lines[i+1]) == "^":
			lines[i] = "   " + errContextStyle.Render(strings.TrimPrefix(line, "   "))
		}
	}
	return strings.Join(lines, "\n")
}
