package model

import "fmt"

// FieldError reports an invalid field on a record.
type FieldError struct {
	Record  string // "journal entry", "mapping rule", "account"
	ID      string
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s: %s", e.Record, e.Field, e.Message)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Record, e.ID, e.Field, e.Message)
}

// Kind identifies the error category for structured rendering.
func (e *FieldError) Kind() string {
	return "FieldError"
}

func (e *FieldError) GetField() string {
	return e.Field
}

// ValidationErrors collects several independent failures.
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d validation errors occurred", len(e.Errors))
}

// Unwrap returns the underlying errors for error unwrapping
func (e *ValidationErrors) Unwrap() []error {
	return e.Errors
}

// Collect returns nil for no errors and a *ValidationErrors otherwise.
func Collect(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationErrors{Errors: errs}
}
