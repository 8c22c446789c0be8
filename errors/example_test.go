package errors_test

import (
	"fmt"

	"github.com/robinvdvleuten/veritas/condition"
	"github.com/robinvdvleuten/veritas/errors"
)

func ExampleTextFormatter() {
	err := &condition.SyntaxError{
		RuleID:    "R-001",
		Condition: "amount >> 10",
		Column:    9,
		Message:   "expected field or literal but found '>'",
	}

	fmt.Println(errors.NewTextFormatter().Format(err))
	// Output:
	// rule R-001: column 9: expected field or literal but found '>'
	//
	//    amount >> 10
	//            ^
}
