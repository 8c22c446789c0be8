package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a single recorded financial transaction before classification.
//
// Quarter is optional; zero means it was not recorded and is derived from Date.
// Notes is optional; an empty string means no notes.
type JournalEntry struct {
	EntryID     string
	Year        int
	Description string
	OldType     string
	Amount      decimal.Decimal
	Date        time.Time
	Quarter     int
	Notes       string
}

// EffectiveQuarter returns the recorded quarter, or the quarter of Date when none
// was recorded.
func (e *JournalEntry) EffectiveQuarter() int {
	if e.Quarter != 0 {
		return e.Quarter
	}
	return QuarterOf(e.Date)
}

// Validate checks the record-level invariants of an entry and returns every
// violation found.
func (e *JournalEntry) Validate() []error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, &FieldError{
			Record:  "journal entry",
			ID:      e.EntryID,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if strings.TrimSpace(e.EntryID) == "" {
		fail("entry_id", "must not be empty")
	}
	if e.Year < MinYear || e.Year > MaxYear {
		fail("year", "%d is outside %d-%d", e.Year, MinYear, MaxYear)
	}
	if strings.TrimSpace(e.Description) == "" {
		fail("description", "must not be empty")
	}
	if strings.TrimSpace(e.OldType) == "" {
		fail("old_type", "must not be empty")
	}
	if e.Date.IsZero() {
		fail("date", "must be set")
	}
	if e.Quarter != 0 {
		if e.Quarter < 1 || e.Quarter > 4 {
			fail("quarter", "%d is outside 1-4", e.Quarter)
		} else if !e.Date.IsZero() && e.Quarter != QuarterOf(e.Date) {
			fail("quarter", "Q%d does not match date %s (Q%d)", e.Quarter, e.Date.Format("2006-01-02"), QuarterOf(e.Date))
		}
	}

	return errs
}
