// Package rules compiles mapping rules and applies them to journal entries.
package rules

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/veritas/condition"
	"github.com/robinvdvleuten/veritas/model"
)

// Rule is a mapping rule with its compiled condition.
type Rule struct {
	model.MappingRule

	Condition *condition.Condition
}

// Matches reports whether the rule's condition holds for entry.
func (r *Rule) Matches(entry *model.JournalEntry) bool {
	return r.Condition.Eval(entry)
}

// Set is an immutable, ordered collection of compiled rules. Order is priority
// descending, then rule id ascending. It is safe for concurrent use.
type Set struct {
	rules    []*Rule
	byID     map[string]*Rule
	rejected []error
	logger   zerolog.Logger
}

// NewSet validates and compiles rules. Individual bad rules (invalid fields,
// malformed conditions, unusable splits) are rejected and reported through
// Rejected; they never match. Structural problems fail the whole set with a
// *RuleSetError: no rules at all, duplicate rule ids, or no rule left after
// rejection.
func NewSet(rules []model.MappingRule, opts ...Option) (*Set, error) {
	o := newOptions(opts)

	if len(rules) == 0 {
		return nil, &RuleSetError{Message: "rule set is empty"}
	}

	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		id := strings.TrimSpace(r.RuleID)
		if id == "" {
			continue
		}
		if seen[id] {
			return nil, &RuleSetError{RuleID: id, Message: "duplicate rule id"}
		}
		seen[id] = true
	}

	s := &Set{
		rules:  make([]*Rule, 0, len(rules)),
		byID:   make(map[string]*Rule, len(rules)),
		logger: o.logger,
	}

	for i := range rules {
		r, err := compileRule(rules[i])
		if err != nil {
			s.rejected = append(s.rejected, err)
			o.logger.Warn().Err(err).Str("rule_id", rules[i].RuleID).Msg("rule rejected")
			continue
		}
		s.rules = append(s.rules, r)
		s.byID[r.RuleID] = r
	}

	if len(s.rules) == 0 {
		return nil, &RuleSetError{
			Message: fmt.Sprintf("no usable rules, all %d rules were rejected", len(rules)),
			Causes:  s.rejected,
		}
	}

	slices.SortStableFunc(s.rules, compareRules)

	o.logger.Debug().
		Int("rules", len(s.rules)).
		Int("rejected", len(s.rejected)).
		Msg("rule set compiled")

	return s, nil
}

// compareRules orders higher priorities first and breaks ties by rule id.
func compareRules(a, b *Rule) int {
	if a.Priority != b.Priority {
		if a.Priority > b.Priority {
			return -1
		}
		return 1
	}
	return strings.Compare(a.RuleID, b.RuleID)
}

func compileRule(mr model.MappingRule) (*Rule, error) {
	mr.RuleID = strings.TrimSpace(mr.RuleID)
	mr.AccountCode = strings.TrimSpace(mr.AccountCode)

	errs := mr.Validate()
	if err := validateSplits(&mr); err != nil {
		errs = append(errs, err)
	}

	var cond *condition.Condition
	if strings.TrimSpace(mr.Condition) != "" {
		c, err := condition.CompileRule(mr.RuleID, mr.Condition)
		if err != nil {
			errs = append(errs, err)
		}
		cond = c
	}

	if len(errs) > 0 {
		return nil, &RejectedRuleError{RuleID: mr.RuleID, Errors: errs}
	}
	return &Rule{MappingRule: mr, Condition: cond}, nil
}

// validateSplits checks that a generates_multiple rule declares at least one split
// leg and that either every leg, the primary included, carries a weight or none does.
func validateSplits(r *model.MappingRule) error {
	if !r.GeneratesMultiple {
		return nil
	}
	if len(r.Splits) == 0 {
		return &SplitError{RuleID: r.RuleID, Message: "generates_multiple rule declares no split legs"}
	}

	legs := r.Legs()
	weighted := 0
	for _, leg := range legs {
		if leg.Weight.IsPositive() {
			weighted++
		}
	}
	if weighted != 0 && weighted != len(legs) {
		return &SplitError{RuleID: r.RuleID, Message: "either all split legs or none must declare a weight"}
	}
	return nil
}

// Rules returns the compiled rules in evaluation order.
func (s *Set) Rules() []*Rule {
	return s.rules
}

// Len returns the number of usable rules.
func (s *Set) Len() int {
	return len(s.rules)
}

// Rejected returns the errors of every rule excluded at load, in input order.
func (s *Set) Rejected() []error {
	return s.rejected
}

// Lookup returns the compiled rule with id.
func (s *Set) Lookup(id string) (*Rule, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// Match returns every rule whose condition holds for entry, in evaluation order.
func (s *Set) Match(entry *model.JournalEntry) []*Rule {
	var matched []*Rule
	for _, r := range s.rules {
		if r.Matches(entry) {
			matched = append(matched, r)
		}
	}
	return matched
}
