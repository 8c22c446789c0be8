package loader

import "fmt"

// RowError reports a row that could not be read. Row is the 1-indexed row of
// the sheet (the header is row 1) or the 1-indexed item of a YAML list.
type RowError struct {
	File    string
	Row     int
	Column  string
	Message string
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s: row %d: %s", e.File, e.Row, e.Message)
	}
	return fmt.Sprintf("%s: row %d: column %s: %s", e.File, e.Row, e.Column, e.Message)
}

// Kind identifies the error category for structured rendering.
func (e *RowError) Kind() string {
	return "RowError"
}

func (e *RowError) GetField() string {
	return e.Column
}

// MissingColumnsError is returned when a sheet lacks required columns.
type MissingColumnsError struct {
	File      string
	Missing   []string
	Available []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s (available: %s)",
		e.File, joinQuoted(e.Missing), joinQuoted(e.Available))
}

// Kind identifies the error category for structured rendering.
func (e *MissingColumnsError) Kind() string {
	return "MissingColumnsError"
}
