package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/veritas/model"
)

// AccountClass is the sign-convention class of an account.
type AccountClass uint8

const (
	ClassOther AccountClass = iota
	ClassIncome
	ClassExpense
)

func (c AccountClass) String() string {
	switch c {
	case ClassIncome:
		return "income"
	case ClassExpense:
		return "expense"
	}
	return "other"
}

// Income accounts are coded 4xxx, expense accounts 5xxx.
const (
	IncomePrefix  = "4"
	ExpensePrefix = "5"
)

// ClassifyAccount returns the class of an account code.
func ClassifyAccount(code string) AccountClass {
	code = strings.TrimSpace(code)
	switch {
	case strings.HasPrefix(code, IncomePrefix):
		return ClassIncome
	case strings.HasPrefix(code, ExpensePrefix):
		return ClassExpense
	}
	return ClassOther
}

// SignDiagnostic reports an income account whose DR total exceeds its CR total,
// or an expense account whose CR total exceeds its DR total. This points at a
// rule with CR and DR swapped; the data itself is never changed.
type SignDiagnostic struct {
	AccountCode string
	AccountPath string
	Class       AccountClass
	CRAmount    decimal.Decimal
	DRAmount    decimal.Decimal
	Periods     int
}

func (d SignDiagnostic) String() string {
	want := "CR >= DR"
	if d.Class == ClassExpense {
		want = "DR >= CR"
	}
	return fmt.Sprintf("%s account %s has CR %s and DR %s, expected %s; check the CR/DR assignment of its rules",
		d.Class, d.AccountCode, d.CRAmount.StringFixed(2), d.DRAmount.StringFixed(2), want)
}

// CheckSignConventions totals the given aggregates per account over all periods
// and returns a diagnostic for each income or expense account that violates its
// sign convention, sorted by account code. Callers filter by year beforehand when
// they want a single year.
func CheckSignConventions(aggregates []model.QuarterlyAggregate) []SignDiagnostic {
	totals := make(map[string]*SignDiagnostic)
	var codes []string

	for i := range aggregates {
		agg := &aggregates[i]
		class := ClassifyAccount(agg.AccountCode)
		if class == ClassOther {
			continue
		}

		d, ok := totals[agg.AccountCode]
		if !ok {
			d = &SignDiagnostic{AccountCode: agg.AccountCode, AccountPath: agg.AccountPath, Class: class}
			totals[agg.AccountCode] = d
			codes = append(codes, agg.AccountCode)
		}
		d.CRAmount = d.CRAmount.Add(agg.CRAmount)
		d.DRAmount = d.DRAmount.Add(agg.DRAmount)
		d.Periods++
	}

	var out []SignDiagnostic
	for _, code := range sortedStrings(codes) {
		d := totals[code]
		switch d.Class {
		case ClassIncome:
			if d.DRAmount.GreaterThan(d.CRAmount) {
				out = append(out, *d)
			}
		case ClassExpense:
			if d.CRAmount.GreaterThan(d.DRAmount) {
				out = append(out, *d)
			}
		}
	}
	return out
}

func sortedStrings(s []string) []string {
	out := append([]string(nil), s...)
	slices.Sort(out)
	return out
}
