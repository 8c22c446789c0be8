package rules

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/veritas/hierarchy"
	"github.com/robinvdvleuten/veritas/model"
)

// ApplicationResult is the outcome of applying the rule set to one entry. Exactly
// one of three holds: Postings is non-empty, NoMatch is set, or Err is set.
type ApplicationResult struct {
	EntryID      string
	Postings     []model.Posting
	AppliedRules []string
	NoMatch      bool
	Err          error
}

// Matched reports whether the entry produced postings.
func (r *ApplicationResult) Matched() bool {
	return !r.NoMatch && r.Err == nil
}

// Applicator turns journal entries into postings. It only reads the rule set and
// hierarchy, so one Applicator may be shared by concurrent workers.
type Applicator struct {
	set    *Set
	policy Policy
	logger zerolog.Logger
}

// NewApplicator creates an applicator for set.
func NewApplicator(set *Set, opts ...Option) *Applicator {
	o := newOptions(opts)
	return &Applicator{
		set:    set,
		policy: o.policy,
		logger: o.logger,
	}
}

// Policy returns the selection policy in use.
func (a *Applicator) Policy() Policy {
	return a.policy
}

// Set returns the rule set.
func (a *Applicator) Set() *Set {
	return a.set
}

// Apply evaluates every rule against entry and builds the postings of the selected
// rules. When h is non-nil every target account must resolve, by code or by name;
// otherwise the entry fails with *UnresolvedAccountError and no postings are
// returned.
func (a *Applicator) Apply(entry *model.JournalEntry, h hierarchy.Hierarchy) ApplicationResult {
	result := ApplicationResult{EntryID: entry.EntryID}

	matched := a.set.Match(entry)
	if len(matched) == 0 {
		result.NoMatch = true
		return result
	}

	selected := matched[:1]
	if a.policy == PolicyAll {
		selected = matched
	}

	shares := splitAmount(entry.Amount, make([]decimal.Decimal, len(selected)))

	var errs []error
	for i, r := range selected {
		postings, err := r.postings(entry, shares[i], h)
		if err != nil {
			errs = append(errs, err...)
			continue
		}
		result.Postings = append(result.Postings, postings...)
		result.AppliedRules = append(result.AppliedRules, r.RuleID)
	}

	if len(errs) > 0 {
		result.Postings = nil
		result.AppliedRules = nil
		if len(errs) == 1 {
			result.Err = errs[0]
		} else {
			result.Err = model.Collect(errs)
		}
	}

	return result
}

// ApplyBatch applies the rule set to each entry in order.
func (a *Applicator) ApplyBatch(entries []model.JournalEntry, h hierarchy.Hierarchy) []ApplicationResult {
	results := make([]ApplicationResult, len(entries))
	for i := range entries {
		results[i] = a.Apply(&entries[i], h)
	}
	return results
}

// postings builds the postings of one rule carrying amount. A single-leg rule
// yields one posting with the full amount; a generates_multiple rule partitions
// amount across its legs.
func (r *Rule) postings(entry *model.JournalEntry, amount decimal.Decimal, h hierarchy.Hierarchy) ([]model.Posting, []error) {
	legs := r.Legs()

	weights := make([]decimal.Decimal, len(legs))
	for i, leg := range legs {
		weights[i] = leg.Weight
	}
	amounts := splitAmount(amount, weights)

	var errs []error
	postings := make([]model.Posting, 0, len(legs))
	for i, leg := range legs {
		code, path := leg.AccountCode, leg.AccountCode
		if h != nil {
			acc, ok := hierarchy.Resolve(h, leg.AccountCode)
			if !ok {
				errs = append(errs, &UnresolvedAccountError{
					EntryID:     entry.EntryID,
					RuleID:      r.RuleID,
					AccountCode: leg.AccountCode,
				})
				continue
			}
			code, path = acc.Code, acc.FullPath
		}

		id := "LE-" + entry.EntryID + "-" + r.RuleID
		if len(legs) > 1 {
			id = fmt.Sprintf("%s-%d", id, i+1)
		}

		postings = append(postings, model.Posting{
			EntryID:       id,
			AccountCode:   code,
			AccountPath:   path,
			Amount:        amounts[i],
			Date:          entry.Date,
			Description:   entry.Description,
			SourceEntryID: entry.EntryID,
			RuleApplied:   r.RuleID,
			Quarter:       entry.EffectiveQuarter(),
			Year:          entry.Year,
			LedgerType:    leg.LedgerType,
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return postings, nil
}
