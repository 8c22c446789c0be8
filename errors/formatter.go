// Package errors renders engine failures for terminals and machine consumers.
//
// Errors are inspected through small getter interfaces so this package does not
// depend on the packages that define them: anything with Kind, GetEntryID,
// GetRuleID, GetAccountCode, GetField, GetColumn or GetSource participates.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

type kinded interface{ Kind() string }
type entryScoped interface{ GetEntryID() string }
type ruleScoped interface{ GetRuleID() string }
type accountScoped interface{ GetAccountCode() string }
type fieldScoped interface{ GetField() string }

// positioned errors point at a column inside a condition expression.
type positioned interface {
	GetColumn() int
	GetSource() string
}

type multiError interface{ Unwrap() []error }

// Formatter defines the interface for formatting errors in different output formats.
type Formatter interface {
	Format(err error) string
	FormatAll(errs []error) string
}

// TextFormatter renders errors for human-readable terminal output.
type TextFormatter struct {
	showContext bool
}

// TextOption configures a TextFormatter.
type TextOption func(*TextFormatter)

// WithoutContext drops the source line and caret under condition errors.
func WithoutContext() TextOption {
	return func(f *TextFormatter) {
		f.showContext = false
	}
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(opts ...TextOption) *TextFormatter {
	f := &TextFormatter{showContext: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format renders a single error. Errors that collect others (an entry with
// several failures, a rejected rule) list each cause on an indented line.
func (f *TextFormatter) Format(err error) string {
	if err == nil {
		return ""
	}

	if me, ok := err.(multiError); ok {
		causes := me.Unwrap()
		if len(causes) > 1 {
			var b strings.Builder
			b.WriteString(header(err))
			for _, cause := range causes {
				for _, line := range strings.Split(f.Format(cause), "\n") {
					if line == "" {
						b.WriteString("\n")
						continue
					}
					b.WriteString("\n  ")
					b.WriteString(line)
				}
			}
			return b.String()
		}
	}

	msg := err.Error()
	if !f.showContext {
		return msg
	}
	if p, ok := err.(positioned); ok && p.GetSource() != "" && p.GetColumn() > 0 {
		return msg + "\n\n" + caret(p.GetSource(), p.GetColumn())
	}
	return msg
}

// FormatAll formats multiple errors separated by blank lines.
func (f *TextFormatter) FormatAll(errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}
		parts = append(parts, f.Format(err))
	}
	return strings.Join(parts, "\n\n")
}

func header(err error) string {
	n := len(err.(multiError).Unwrap())
	switch {
	case entryID(err) != "":
		return fmt.Sprintf("entry %s: %d errors:", entryID(err), n)
	case ruleID(err) != "":
		return fmt.Sprintf("rule %s: %d errors:", ruleID(err), n)
	}
	return fmt.Sprintf("%d errors:", n)
}

// caret renders the source with a marker under the 1-indexed rune column.
// Wide runes (CJK field values) occupy two cells, so the padding is measured in
// display width rather than runes.
func caret(source string, column int) string {
	runes := []rune(source)
	if column > len(runes)+1 {
		column = len(runes) + 1
	}
	pad := runewidth.StringWidth(string(runes[:column-1]))
	return "   " + source + "\n   " + strings.Repeat(" ", pad) + "^"
}

// JSONFormatter renders errors as JSON for tooling.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON is the JSON representation of an error.
type ErrorJSON struct {
	Type     string            `json:"type"`
	Message  string            `json:"message"`
	Position *PositionJSON     `json:"position,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
	Causes   []ErrorJSON       `json:"causes,omitempty"`
}

// PositionJSON locates an error inside a condition expression.
type PositionJSON struct {
	Column int    `json:"column"`
	Source string `json:"source"`
}

// Format renders a single error as a JSON object.
func (f *JSONFormatter) Format(err error) string {
	data, marshalErr := json.MarshalIndent(ToJSON(err), "", "  ")
	if marshalErr != nil {
		return fmt.Sprintf(`{"type":"error","message":%q}`, err.Error())
	}
	return string(data)
}

// FormatAll renders errors as a JSON array.
func (f *JSONFormatter) FormatAll(errs []error) string {
	items := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}
		items = append(items, ToJSON(err))
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

// ToJSON converts an error into its JSON representation.
func ToJSON(err error) ErrorJSON {
	out := ErrorJSON{
		Type:    errorType(err),
		Message: err.Error(),
	}

	details := map[string]string{}
	if id := entryID(err); id != "" {
		details["entry_id"] = id
	}
	if id := ruleID(err); id != "" {
		details["rule_id"] = id
	}
	if a, ok := err.(accountScoped); ok && a.GetAccountCode() != "" {
		details["account_code"] = a.GetAccountCode()
	}
	if fe, ok := err.(fieldScoped); ok && fe.GetField() != "" {
		details["field"] = fe.GetField()
	}
	if len(details) > 0 {
		out.Details = details
	}

	if p, ok := err.(positioned); ok && p.GetColumn() > 0 {
		out.Position = &PositionJSON{Column: p.GetColumn(), Source: p.GetSource()}
	}

	if me, ok := err.(multiError); ok {
		if causes := me.Unwrap(); len(causes) > 1 {
			for _, cause := range causes {
				out.Causes = append(out.Causes, ToJSON(cause))
			}
		}
	}
	return out
}

func errorType(err error) string {
	if k, ok := err.(kinded); ok {
		return k.Kind()
	}
	return "Error"
}

func entryID(err error) string {
	if e, ok := err.(entryScoped); ok {
		return e.GetEntryID()
	}
	return ""
}

func ruleID(err error) string {
	if r, ok := err.(ruleScoped); ok {
		return r.GetRuleID()
	}
	return ""
}
