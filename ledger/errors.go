package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/veritas/model"
)

// BalanceInvariantError is returned when the postings of an entry do not sum to
// the entry's amount within tolerance.
type BalanceInvariantError struct {
	EntryID   string
	Expected  decimal.Decimal // Entry amount
	Actual    decimal.Decimal // Sum of postings
	Tolerance decimal.Decimal
	Rules     []string // Rules that produced the postings
}

func (e *BalanceInvariantError) Error() string {
	return fmt.Sprintf("entry %s: postings sum to %s but entry amount is %s (difference %s exceeds tolerance %s)",
		e.EntryID, e.Actual.String(), e.Expected.String(), e.Difference().String(), e.Tolerance.String())
}

// Difference returns Actual minus Expected.
func (e *BalanceInvariantError) Difference() decimal.Decimal {
	return e.Actual.Sub(e.Expected)
}

// Kind identifies the error category for structured rendering.
func (e *BalanceInvariantError) Kind() string {
	return "BalanceInvariantError"
}

func (e *BalanceInvariantError) GetEntryID() string {
	return e.EntryID
}

// GetRuleID returns the rules involved, comma separated.
func (e *BalanceInvariantError) GetRuleID() string {
	return strings.Join(e.Rules, ",")
}

// BackReferenceError is returned when a posting does not point back to the entry
// it was generated from.
type BackReferenceError struct {
	EntryID       string
	PostingID     string
	SourceEntryID string
	RuleID        string
}

func (e *BackReferenceError) Error() string {
	return fmt.Sprintf("entry %s: posting %s references source entry %q", e.EntryID, e.PostingID, e.SourceEntryID)
}

// Kind identifies the error category for structured rendering.
func (e *BackReferenceError) Kind() string {
	return "BackReferenceError"
}

func (e *BackReferenceError) GetEntryID() string {
	return e.EntryID
}

func (e *BackReferenceError) GetRuleID() string {
	return e.RuleID
}

// DuplicateEntryError is returned for each entry whose id is shared with another
// entry of the same batch.
type DuplicateEntryError struct {
	EntryID     string
	Occurrences int
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("entry %s: entry_id is used by %d entries", e.EntryID, e.Occurrences)
}

// Kind identifies the error category for structured rendering.
func (e *DuplicateEntryError) Kind() string {
	return "DuplicateEntryError"
}

func (e *DuplicateEntryError) GetEntryID() string {
	return e.EntryID
}

// EntryError collects every failure of one journal entry. The transformer reports
// one EntryError per errored entry; its postings are withheld.
type EntryError struct {
	EntryID string
	Errors  []error
}

func (e *EntryError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("entry %s: %d errors: %s", e.EntryID, len(e.Errors), strings.Join(msgs, "; "))
}

// Kind returns the kind of the first underlying error.
func (e *EntryError) Kind() string {
	if len(e.Errors) > 0 {
		if k, ok := e.Errors[0].(interface{ Kind() string }); ok {
			return k.Kind()
		}
	}
	return "EntryError"
}

func (e *EntryError) GetEntryID() string {
	return e.EntryID
}

func (e *EntryError) Unwrap() []error {
	return e.Errors
}

// ValidationErrors wraps multiple validation errors.
type ValidationErrors = model.ValidationErrors

// NewBalanceInvariantError creates an error for an entry whose postings do not
// reconcile.
func NewBalanceInvariantError(entry *model.JournalEntry, sum, tolerance decimal.Decimal, postings []model.Posting) *BalanceInvariantError {
	return &BalanceInvariantError{
		EntryID:   entry.EntryID,
		Expected:  entry.Amount,
		Actual:    sum,
		Tolerance: tolerance,
		Rules:     appliedRules(postings),
	}
}

// NewBackReferenceError creates an error for a posting pointing at the wrong
// source entry.
func NewBackReferenceError(entry *model.JournalEntry, p *model.Posting) *BackReferenceError {
	return &BackReferenceError{
		EntryID:       entry.EntryID,
		PostingID:     p.EntryID,
		SourceEntryID: p.SourceEntryID,
		RuleID:        p.RuleApplied,
	}
}

func appliedRules(postings []model.Posting) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, p := range postings {
		if !seen[p.RuleApplied] {
			seen[p.RuleApplied] = true
			ids = append(ids, p.RuleApplied)
		}
	}
	return ids
}
