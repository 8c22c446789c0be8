// Package formatter renders transformation results: a ledger workbook for
// accountants and aligned tables for the terminal.
package formatter

import (
	"github.com/robinvdvleuten/veritas/audit"
	"github.com/robinvdvleuten/veritas/hierarchy"
	"github.com/robinvdvleuten/veritas/ledger"
	"github.com/robinvdvleuten/veritas/model"
)

// Sheet names of the ledger workbook.
const (
	SheetLedger    = "Ledger"
	SheetQuarterly = "Quarterly"
	SheetUnmatched = "Unmatched"
	SheetErrors    = "Errors"
	SheetAudit     = "Audit"
	SheetHierarchy = "Hierarchy"
)

const (
	// DefaultPrecision is the number of decimal places amounts are rendered with.
	DefaultPrecision = 2

	// DefaultDateLayout is the layout dates are rendered with.
	DefaultDateLayout = "2006-01-02"
)

// Report is everything a run produced.
type Report struct {
	Result     *ledger.Result
	Aggregates []model.QuarterlyAggregate
	Trail      *audit.Trail    // Optional; the Audit sheet is omitted when nil
	Hierarchy  *hierarchy.Tree // Optional; the Hierarchy sheet is omitted when nil
}

// Formatter renders reports.
type Formatter struct {
	// Precision is the number of decimal places of rendered amounts.
	Precision int

	// DateLayout is the time layout of rendered dates.
	DateLayout string

	// OmitEmpty drops the Unmatched and Errors sheets when they have no rows.
	OmitEmpty bool
}

// Option is a functional option for configuring a Formatter.
type Option func(*Formatter)

// WithPrecision sets the number of decimal places of rendered amounts.
func WithPrecision(places int) Option {
	return func(f *Formatter) {
		f.Precision = places
	}
}

// WithDateLayout sets the layout of rendered dates.
func WithDateLayout(layout string) Option {
	return func(f *Formatter) {
		f.DateLayout = layout
	}
}

// WithOmitEmpty drops sheets without rows.
func WithOmitEmpty(omit bool) Option {
	return func(f *Formatter) {
		f.OmitEmpty = omit
	}
}

// New creates a new Formatter with the given options.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		Precision:  DefaultPrecision,
		DateLayout: DefaultDateLayout,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.Precision < 0 {
		f.Precision = 0
	}
	return f
}
