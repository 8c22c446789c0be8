package rules

import (
	"fmt"
	"strings"
)

// RuleSetError is a structural problem with the rule set as a whole, such as an
// empty set or duplicate rule ids. It is fatal to the run.
type RuleSetError struct {
	RuleID  string
	Message string
	Causes  []error // Rejections that left the set empty
}

func (e *RuleSetError) Error() string {
	if e.RuleID == "" {
		return "rule set: " + e.Message
	}
	return fmt.Sprintf("rule set: rule %s: %s", e.RuleID, e.Message)
}

// Kind identifies the error category for structured rendering.
func (e *RuleSetError) Kind() string {
	return "RuleSetError"
}

func (e *RuleSetError) GetRuleID() string {
	return e.RuleID
}

func (e *RuleSetError) Unwrap() []error {
	return e.Causes
}

// SplitError reports a generates_multiple rule whose split legs are unusable. The
// rule is rejected at load.
type SplitError struct {
	RuleID  string
	Message string
}

func (e *SplitError) Error() string {
	return fmt.Sprintf("rule %s: invalid split: %s", e.RuleID, e.Message)
}

// Kind identifies the error category for structured rendering.
func (e *SplitError) Kind() string {
	return "SplitError"
}

func (e *SplitError) GetRuleID() string {
	return e.RuleID
}

// UnresolvedAccountError is returned when a rule targets an account the hierarchy
// does not know by code or by name.
type UnresolvedAccountError struct {
	EntryID     string
	RuleID      string
	AccountCode string
}

func (e *UnresolvedAccountError) Error() string {
	return fmt.Sprintf("entry %s: rule %s targets unknown account %q", e.EntryID, e.RuleID, e.AccountCode)
}

// Kind identifies the error category for structured rendering.
func (e *UnresolvedAccountError) Kind() string {
	return "UnresolvedAccountError"
}

func (e *UnresolvedAccountError) GetEntryID() string {
	return e.EntryID
}

func (e *UnresolvedAccountError) GetRuleID() string {
	return e.RuleID
}

func (e *UnresolvedAccountError) GetAccountCode() string {
	return e.AccountCode
}

// RejectedRuleError wraps every reason a single rule was excluded from matching.
type RejectedRuleError struct {
	RuleID string
	Errors []error
}

func (e *RejectedRuleError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("rule %s rejected: %s", e.RuleID, strings.Join(msgs, "; "))
}

// Kind identifies the error category for structured rendering.
func (e *RejectedRuleError) Kind() string {
	return "RejectedRule"
}

func (e *RejectedRuleError) GetRuleID() string {
	return e.RuleID
}

func (e *RejectedRuleError) Unwrap() []error {
	return e.Errors
}
