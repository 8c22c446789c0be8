package hierarchy

import "fmt"

// Error reports an invalid account or tree structure.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return "account hierarchy: " + e.Message
	}
	return fmt.Sprintf("account hierarchy: %s: %s", e.Code, e.Message)
}

// Kind identifies the error category for structured rendering.
func (e *Error) Kind() string {
	return "HierarchyError"
}

func (e *Error) GetAccountCode() string {
	return e.Code
}
