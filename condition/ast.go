package condition

import (
	"strings"

	"github.com/robinvdvleuten/veritas/model"
)

// Node is a compiled condition expression. The set of node types is closed:
// And, Or, Not and Compare.
type Node interface {
	Eval(e *model.JournalEntry) bool
	String() string

	node()
}

// And is true when both operands are true. The right operand is not evaluated when
// the left is false.
type And struct {
	Left, Right Node
}

// Or is true when either operand is true.
type Or struct {
	Left, Right Node
}

// Not negates its operand.
type Not struct {
	X Node
}

// Compare tests a field against a literal.
type Compare struct {
	Field Field
	Op    Op
	Value Value
}

var (
	_ Node = (*And)(nil)
	_ Node = (*Or)(nil)
	_ Node = (*Not)(nil)
	_ Node = (*Compare)(nil)
)

func (*And) node()     {}
func (*Or) node()      {}
func (*Not) node()     {}
func (*Compare) node() {}

func (n *And) Eval(e *model.JournalEntry) bool {
	return n.Left.Eval(e) && n.Right.Eval(e)
}

func (n *Or) Eval(e *model.JournalEntry) bool {
	return n.Left.Eval(e) || n.Right.Eval(e)
}

func (n *Not) Eval(e *model.JournalEntry) bool {
	return !n.X.Eval(e)
}

func (n *Compare) Eval(e *model.JournalEntry) bool {
	return n.Op.apply(resolve(n.Field, e).compare(n.Value))
}

// String renders the canonical form: operators spaced, keywords lowercase,
// sub-expressions of a different operator parenthesized.
func (n *And) String() string {
	return wrap(n.Left, n) + " and " + wrap(n.Right, n)
}

func (n *Or) String() string {
	return wrap(n.Left, n) + " or " + wrap(n.Right, n)
}

func (n *Not) String() string {
	switch n.X.(type) {
	case *Compare, *Not:
		return "not " + n.X.String()
	}
	return "not (" + n.X.String() + ")"
}

func (n *Compare) String() string {
	return n.Field.String() + " " + n.Op.String() + " " + n.Value.String()
}

func wrap(child, parent Node) string {
	switch child.(type) {
	case *Compare, *Not:
		return child.String()
	case *And:
		if _, ok := parent.(*And); ok {
			return child.String()
		}
	case *Or:
		if _, ok := parent.(*Or); ok {
			return child.String()
		}
	}
	return "(" + child.String() + ")"
}

// Op is a comparison operator.
type Op uint8

const (
	OpEq Op = iota + 1
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
)

var opSymbols = map[Op]string{
	OpEq:  "==",
	OpNeq: "!=",
	OpLt:  "<",
	OpLte: "<=",
	OpGt:  ">",
	OpGte: ">=",
}

func (o Op) String() string {
	return opSymbols[o]
}

// apply interprets a three-way comparison result.
func (o Op) apply(cmp int) bool {
	switch o {
	case OpEq:
		return cmp == 0
	case OpNeq:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	}
	return false
}

// mirror returns the operator with its operands swapped, so "2024 < year"
// becomes "year > 2024".
func (o Op) mirror() Op {
	switch o {
	case OpLt:
		return OpGt
	case OpLte:
		return OpGte
	case OpGt:
		return OpLt
	case OpGte:
		return OpLte
	}
	return o
}

func opFromToken(t TokenType) Op {
	switch t {
	case EQ:
		return OpEq
	case NEQ:
		return OpNeq
	case LT:
		return OpLt
	case LTE:
		return OpLte
	case GT:
		return OpGt
	case GTE:
		return OpGte
	}
	return 0
}

func quoteString(s string) string {
	var buf strings.Builder
	buf.Grow(len(s) + 2)
	buf.WriteByte('\'')
	for _, r := range s {
		if r == '\'' || r == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteRune(r)
	}
	buf.WriteByte('\'')
	return buf.String()
}
