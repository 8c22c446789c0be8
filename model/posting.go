package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Posting is a ledger entry derived from one journal entry by one rule.
// Postings are created by the rule applicator and never modified afterwards.
type Posting struct {
	EntryID       string
	AccountCode   string
	AccountPath   string
	Amount        decimal.Decimal
	Date          time.Time
	Description   string
	SourceEntryID string
	RuleApplied   string
	Quarter       int
	Year          int
	LedgerType    LedgerType
}

// Classification returns the declared ledger type, or the sign-derived one.
func (p *Posting) Classification() LedgerType {
	return ClassifyAmount(p.LedgerType, p.Amount)
}

// Key returns the aggregation key of the posting.
func (p *Posting) Key() AggregateKey {
	return AggregateKey{AccountCode: p.AccountCode, Year: p.Year, Quarter: p.Quarter}
}
