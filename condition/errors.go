package condition

import "fmt"

// SyntaxError reports a malformed condition. RuleID is set when the condition
// belongs to a mapping rule; Column is the 1-indexed rune column of the offending
// token.
type SyntaxError struct {
	RuleID    string
	Condition string
	Offset    int // Byte offset
	Column    int
	Message   string
}

func (e *SyntaxError) Error() string {
	if e.RuleID == "" {
		return fmt.Sprintf("column %d: %s", e.Column, e.Message)
	}
	return fmt.Sprintf("rule %s: column %d: %s", e.RuleID, e.Column, e.Message)
}

// Kind identifies the error category for structured rendering.
func (e *SyntaxError) Kind() string {
	return "ConditionSyntaxError"
}

func (e *SyntaxError) GetRuleID() string {
	return e.RuleID
}

// GetColumn returns the column of the offending token.
func (e *SyntaxError) GetColumn() int {
	return e.Column
}

// GetSource returns the condition text, used to render a caret under the error.
func (e *SyntaxError) GetSource() string {
	return e.Condition
}

// withRule returns a copy of e attributed to ruleID.
func (e *SyntaxError) withRule(ruleID string) *SyntaxError {
	cp := *e
	cp.RuleID = ruleID
	return &cp
}
