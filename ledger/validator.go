package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/veritas/hierarchy"
	"github.com/robinvdvleuten/veritas/model"
	"github.com/robinvdvleuten/veritas/rules"
)

// Validator checks the postings generated for one entry.
type Validator struct {
	hierarchy hierarchy.Hierarchy
	tolerance decimal.Decimal
}

// NewValidator creates a validator. h may be nil to skip the account check.
func NewValidator(h hierarchy.Hierarchy, opts ...Option) *Validator {
	cfg := NewConfig(opts...)
	return &Validator{hierarchy: h, tolerance: cfg.Tolerance}
}

// Validate checks that the postings sum to the entry amount within tolerance, that
// every posting refers back to entry, and, when a hierarchy is set, that every
// posting account exists. All violations are returned.
func (v *Validator) Validate(entry *model.JournalEntry, postings []model.Posting) (bool, []error) {
	var errs []error

	sum := decimal.Zero
	for i := range postings {
		p := &postings[i]
		sum = sum.Add(p.Amount)

		if p.SourceEntryID != entry.EntryID {
			errs = append(errs, NewBackReferenceError(entry, p))
		}
		if v.hierarchy != nil {
			if _, ok := v.hierarchy.Lookup(p.AccountCode); !ok {
				errs = append(errs, &rules.UnresolvedAccountError{
					EntryID:     entry.EntryID,
					RuleID:      p.RuleApplied,
					AccountCode: p.AccountCode,
				})
			}
		}
	}

	if sum.Sub(entry.Amount).Abs().GreaterThan(v.tolerance) {
		errs = append(errs, NewBalanceInvariantError(entry, sum, v.tolerance, postings))
	}

	return len(errs) == 0, errs
}
