package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// LedgerType classifies a posting as a credit or a debit.
// The zero value means the classification is not declared.
type LedgerType string

const (
	Credit LedgerType = "CR"
	Debit  LedgerType = "DR"
)

// ParseLedgerType parses "CR"/"DR" (case-insensitive). An empty string yields the
// zero LedgerType.
func ParseLedgerType(s string) (LedgerType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "CR", "CREDIT":
		return Credit, nil
	case "DR", "DEBIT":
		return Debit, nil
	}
	return "", fmt.Errorf("invalid ledger type %q, expected CR or DR", s)
}

// IsZero reports whether no classification was declared.
func (t LedgerType) IsZero() bool {
	return t == ""
}

// Valid reports whether t is empty, CR or DR.
func (t LedgerType) Valid() bool {
	return t == "" || t == Credit || t == Debit
}

// Opposite returns DR for CR and CR for DR.
func (t LedgerType) Opposite() LedgerType {
	switch t {
	case Credit:
		return Debit
	case Debit:
		return Credit
	}
	return t
}

// ClassifyAmount returns t when declared, otherwise derives the classification from
// the sign of amount: non-negative is CR, negative is DR.
func ClassifyAmount(t LedgerType, amount decimal.Decimal) LedgerType {
	if !t.IsZero() {
		return t
	}
	if amount.IsNegative() {
		return Debit
	}
	return Credit
}
