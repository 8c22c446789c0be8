package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SplitLeg is one target of a rule that generates multiple postings.
// A zero Weight means the leg takes an equal share.
type SplitLeg struct {
	AccountCode string
	LedgerType  LedgerType
	Weight      decimal.Decimal
}

// MappingRule maps journal entries whose condition holds to a target account.
//
// OldType and NewType are informational tags; the condition is authoritative.
// LedgerType and Weight describe the primary leg.
// Splits lists the additional legs of a generates_multiple rule.
type MappingRule struct {
	RuleID            string
	Condition         string
	OldType           string
	NewType           string
	AccountCode       string
	Priority          int
	GeneratesMultiple bool
	Description       string
	LedgerType        LedgerType
	Weight            decimal.Decimal
	Splits            []SplitLeg
}

// Legs returns the posting targets of the rule. The primary account is always
// the first leg; split legs follow in declaration order.
func (r *MappingRule) Legs() []SplitLeg {
	legs := make([]SplitLeg, 0, 1+len(r.Splits))
	legs = append(legs, SplitLeg{AccountCode: r.AccountCode, LedgerType: r.LedgerType, Weight: r.Weight})
	if r.GeneratesMultiple {
		legs = append(legs, r.Splits...)
	}
	return legs
}

// Validate checks the structural invariants of a rule. It does not compile the
// condition.
func (r *MappingRule) Validate() []error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, &FieldError{
			Record:  "mapping rule",
			ID:      r.RuleID,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if strings.TrimSpace(r.RuleID) == "" {
		fail("rule_id", "must not be empty")
	}
	if strings.TrimSpace(r.Condition) == "" {
		fail("condition", "must not be empty")
	}
	if strings.TrimSpace(r.AccountCode) == "" {
		fail("account_code", "must not be empty")
	}
	if r.Priority < 1 {
		fail("priority", "%d must be at least 1", r.Priority)
	}
	if !r.LedgerType.Valid() {
		fail("ledger_type", "invalid value %q", string(r.LedgerType))
	}
	if r.Weight.IsNegative() {
		fail("weight", "negative weight %s", r.Weight)
	}
	for i, leg := range r.Splits {
		if strings.TrimSpace(leg.AccountCode) == "" {
			fail("splits", "leg %d has no account code", i+1)
		}
		if !leg.LedgerType.Valid() {
			fail("splits", "leg %d has invalid ledger type %q", i+1, string(leg.LedgerType))
		}
		if leg.Weight.IsNegative() {
			fail("splits", "leg %d has negative weight %s", i+1, leg.Weight)
		}
	}

	return errs
}
