// Package loader reads journal entries, mapping rules and account hierarchies
// from spreadsheet (.xlsx) and YAML (.yaml, .yml, .json) files.
//
// Spreadsheet headers are matched case-insensitively against a set of aliases,
// including the Chinese headers of exported bookkeeping sheets. Journals may
// carry either a single amount column or separate income (收入) and expense
// (支出) columns.
//
// Row-level problems never abort a load: the offending row is skipped and
// reported as a *RowError next to the rows that did parse.
//
// Example usage:
//
//	l := loader.New(loader.WithSheet("2024"))
//	entries, rowErrs, err := l.LoadJournal(ctx, "journal.xlsx")
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Loader reads input files. Configure it with functional options passed to New.
type Loader struct {
	// Sheet names the worksheet to read. When empty the first sheet is used.
	Sheet string

	logger zerolog.Logger
}

// Option configures how files are loaded.
type Option func(*Loader)

// WithSheet selects the worksheet of spreadsheet inputs.
func WithSheet(name string) Option {
	return func(l *Loader) {
		l.Sheet = name
	}
}

// WithLogger sets the logger used to report skipped rows.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type format uint8

const (
	formatSpreadsheet format = iota + 1
	formatYAML
)

func detectFormat(filename string) (format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return formatSpreadsheet, nil
	case ".yaml", ".yml", ".json":
		return formatYAML, nil
	}
	return 0, fmt.Errorf("%s: unsupported file type, expected .xlsx, .yaml or .json", filename)
}

func (l *Loader) logRowErrors(filename string, errs []error) {
	for _, err := range errs {
		l.logger.Warn().Str("file", filename).Err(err).Msg("row skipped")
	}
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
