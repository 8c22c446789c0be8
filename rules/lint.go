package rules

import (
	"fmt"
	"strings"

	"github.com/robinvdvleuten/veritas/hierarchy"
	"github.com/robinvdvleuten/veritas/model"
)

// Severity ranks lint findings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is a lint finding about one rule.
type Issue struct {
	Severity Severity
	RuleID   string
	Check    string // conflict, duplicate, shadowed, unknown-account, missing-type
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: rule %s: %s (%s)", i.Severity, i.RuleID, i.Message, i.Check)
}

// Lint inspects a compiled rule set for problems that compile cleanly but still
// produce wrong or surprising postings. h may be nil, in which case account
// references are not checked.
//
// Rules are compared by the canonical form of their conditions, so
// "old_type=='a'" and "old_type == 'a'" are treated as the same condition.
func Lint(s *Set, h hierarchy.Hierarchy) []Issue {
	var issues []Issue

	groups := make(map[string][]*Rule)
	var order []string
	for _, r := range s.rules {
		key := r.Condition.String()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		// Rules are in evaluation order, so group[0] wins under the highest policy.
		first := group[0]
		for j, r := range group[1:] {
			if r.Priority < first.Priority {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					RuleID:   r.RuleID,
					Check:    "shadowed",
					Message:  fmt.Sprintf("never applied under the highest policy, rule %s has the same condition and a higher priority", first.RuleID),
				})
			}
			issues = append(issues, tierIssues(r, group[:j+1])...)
		}
	}

	for _, r := range s.rules {
		if h != nil {
			for _, leg := range r.Legs() {
				if _, ok := hierarchy.Resolve(h, leg.AccountCode); !ok {
					issues = append(issues, Issue{
						Severity: SeverityError,
						RuleID:   r.RuleID,
						Check:    "unknown-account",
						Message:  fmt.Sprintf("account %q is not in the hierarchy", leg.AccountCode),
					})
				}
			}
		}

		var missing []string
		if strings.TrimSpace(r.OldType) == "" {
			missing = append(missing, "old_type")
		}
		if strings.TrimSpace(r.NewType) == "" {
			missing = append(missing, "new_type")
		}
		if len(missing) > 0 {
			issues = append(issues, Issue{
				Severity: SeverityInfo,
				RuleID:   r.RuleID,
				Check:    "missing-type",
				Message:  "no " + strings.Join(missing, " or ") + " tag",
			})
		}
	}

	return issues
}

// tierIssues compares r with the earlier rules of its condition group that share
// its priority. Each kind of finding is reported once per rule, against the
// first rule that triggers it.
func tierIssues(r *Rule, earlier []*Rule) []Issue {
	var (
		issues              []Issue
		conflict, duplicate bool
	)
	for _, q := range earlier {
		if q.Priority != r.Priority {
			continue
		}
		switch {
		case !duplicate && sameLegs(q.Legs(), r.Legs()):
			duplicate = true
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				RuleID:   r.RuleID,
				Check:    "duplicate",
				Message:  fmt.Sprintf("same condition, priority and accounts as rule %s", q.RuleID),
			})
		case !conflict && q.AccountCode != r.AccountCode:
			conflict = true
			issues = append(issues, Issue{
				Severity: SeverityError,
				RuleID:   r.RuleID,
				Check:    "conflict",
				Message: fmt.Sprintf("same condition and priority as rule %s but targets %s instead of %s",
					q.RuleID, r.AccountCode, q.AccountCode),
			})
		}
	}
	return issues
}

func sameLegs(a, b []model.SplitLeg) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].AccountCode != b[i].AccountCode || a[i].LedgerType != b[i].LedgerType || !a[i].Weight.Equal(b[i].Weight) {
			return false
		}
	}
	return true
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
