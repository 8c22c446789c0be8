package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AggregateKey groups postings by account and calendar quarter.
type AggregateKey struct {
	AccountCode string
	Year        int
	Quarter     int
}

// Compare orders keys by account code, then year, then quarter.
func (k AggregateKey) Compare(o AggregateKey) int {
	if c := strings.Compare(k.AccountCode, o.AccountCode); c != 0 {
		return c
	}
	if k.Year != o.Year {
		if k.Year < o.Year {
			return -1
		}
		return 1
	}
	if k.Quarter != o.Quarter {
		if k.Quarter < o.Quarter {
			return -1
		}
		return 1
	}
	return 0
}

// QuarterlyAggregate holds the CR and DR totals of one account in one quarter.
// AccountPath and Level are filled in when a hierarchy is available.
type QuarterlyAggregate struct {
	AccountCode string
	AccountPath string
	Level       int
	Year        int
	Quarter     int
	CRAmount    decimal.Decimal
	DRAmount    decimal.Decimal
	EntryCount  int
}

// Key returns the grouping key of the aggregate.
func (a *QuarterlyAggregate) Key() AggregateKey {
	return AggregateKey{AccountCode: a.AccountCode, Year: a.Year, Quarter: a.Quarter}
}

// Net returns CR minus DR.
func (a *QuarterlyAggregate) Net() decimal.Decimal {
	return a.CRAmount.Sub(a.DRAmount)
}
