package condition

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/veritas/model"
)

// Condition grammar.
//
// Precedence (low to high):
//  1. or
//  2. and
//  3. not
//  4. comparison, ( )
//
// Grammar:
//
//	expression → or
//	or         → and ('or' and)*
//	and        → unary ('and' unary)*
//	unary      → 'not' unary | primary
//	primary    → '(' expression ')' | operand OP operand
//	operand    → IDENT | STRING | NUMBER | DATE
//
// Exactly one side of a comparison must be a field. Comparisons are normalized so
// the field is on the left.

// maxDepth bounds nesting so that hostile conditions cannot exhaust the stack.
const maxDepth = 256

// Condition is a compiled condition expression.
type Condition struct {
	source string
	root   Node
}

// Compile parses and type-checks src.
func Compile(src string) (*Condition, error) {
	p := &parser{source: src}

	tokens, err := NewLexer(src).ScanAll()
	if err != nil {
		return nil, err
	}
	p.tokens = tokens

	if p.check(EOF) {
		return nil, p.error("empty condition")
	}

	root, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.check(EOF) {
		return nil, p.errorAtToken(p.peek(), "unexpected %s after expression", p.describe(p.peek()))
	}

	return &Condition{source: src, root: root}, nil
}

// CompileRule compiles the condition of a mapping rule. Syntax errors carry the rule
// id.
func CompileRule(ruleID, src string) (*Condition, error) {
	c, err := Compile(src)
	if err != nil {
		if se, ok := err.(*SyntaxError); ok {
			return nil, se.withRule(ruleID)
		}
		return nil, err
	}
	return c, nil
}

// Evaluate compiles src and evaluates it against entry in one step.
func Evaluate(src string, entry *model.JournalEntry) (bool, error) {
	c, err := Compile(src)
	if err != nil {
		return false, err
	}
	return c.Eval(entry), nil
}

// MustCompile is like Compile but panics on error. Intended for tests and static
// conditions.
func MustCompile(src string) *Condition {
	c, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return c
}

// Eval reports whether entry satisfies the condition.
func (c *Condition) Eval(entry *model.JournalEntry) bool {
	return c.root.Eval(entry)
}

// Source returns the text the condition was compiled from.
func (c *Condition) Source() string {
	return c.source
}

// Root returns the AST.
func (c *Condition) Root() Node {
	return c.root
}

// String returns the canonical form. Two conditions with the same canonical form
// match the same entries.
func (c *Condition) String() string {
	return c.root.String()
}

// Fields returns the distinct fields the condition references, in order of first
// appearance.
func (c *Condition) Fields() []Field {
	var fields []Field
	seen := make(map[Field]bool)
	var walk func(Node)
	walk = func(n Node) {
		switch n := n.(type) {
		case *And:
			walk(n.Left)
			walk(n.Right)
		case *Or:
			walk(n.Left)
			walk(n.Right)
		case *Not:
			walk(n.X)
		case *Compare:
			if !seen[n.Field] {
				seen[n.Field] = true
				fields = append(fields, n.Field)
			}
		}
	}
	walk(c.root)
	return fields
}

type parser struct {
	source string
	tokens []Token
	pos    int
	depth  int
}

func (p *parser) parseExpression() (Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return nil, p.error("condition nested too deeply")
	}

	return p.parseOr()
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.match(OR) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Or{Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.match(AND) {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &And{Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.match(NOT) {
		p.depth++
		defer func() { p.depth-- }()
		if p.depth > maxDepth {
			return nil, p.error("condition nested too deeply")
		}

		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{X: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	if p.match(LPAREN) {
		open := p.previous()
		x, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if !p.match(RPAREN) {
			if p.check(EOF) {
				return nil, p.errorAtToken(open, "unclosed '('")
			}
			return nil, p.error("expected ')' but found %s", p.describe(p.peek()))
		}
		return x, nil
	}

	return p.parseComparison()
}

func (p *parser) parseComparison() (Node, error) {
	left := p.peek()
	if !isOperand(left.Type) {
		return nil, p.error("expected field or literal but found %s", p.describe(left))
	}
	p.advance()

	opTok := p.peek()
	if !opTok.Type.isComparison() {
		return nil, p.error("expected comparison operator after %s but found %s", p.describe(left), p.describe(opTok))
	}
	p.advance()
	op := opFromToken(opTok.Type)

	right := p.peek()
	if !isOperand(right.Type) {
		return nil, p.error("expected field or literal but found %s", p.describe(right))
	}
	p.advance()

	fieldTok, litTok := left, right
	switch {
	case left.Type == IDENT && right.Type == IDENT:
		return nil, p.errorAtToken(right, "cannot compare field to field, right side must be a literal")
	case left.Type != IDENT && right.Type != IDENT:
		return nil, p.errorAtToken(left, "comparison must reference a field")
	case right.Type == IDENT:
		fieldTok, litTok = right, left
		op = op.mirror()
	}

	name := fieldTok.String(p.source)
	field, ok := LookupField(name)
	if !ok {
		return nil, p.errorAtToken(fieldTok, "unknown field %q (valid fields: %s)", name, strings.Join(FieldNames(), ", "))
	}

	value, err := p.literal(litTok, field)
	if err != nil {
		return nil, err
	}

	return &Compare{Field: field, Op: op, Value: value}, nil
}

// literal converts a literal token to a value of the field's kind.
func (p *parser) literal(tok Token, field Field) (Value, error) {
	text := tok.String(p.source)
	want := field.Kind()

	switch tok.Type {
	case STRING:
		s := unquote(text)
		switch want {
		case KindString:
			return Value{Kind: KindString, Str: s}, nil
		case KindDate:
			// date == '2024-01-15' is accepted.
			d, err := time.Parse("2006-01-02", s)
			if err != nil {
				return Value{}, p.errorAtToken(tok, "invalid date %s for field %s, expected YYYY-MM-DD", text, field)
			}
			return Value{Kind: KindDate, Date: d}, nil
		}

	case NUMBER:
		if want == KindNumber {
			n, err := decimal.NewFromString(text)
			if err != nil {
				return Value{}, p.errorAtToken(tok, "invalid number %s", text)
			}
			return Value{Kind: KindNumber, Num: n}, nil
		}

	case DATE:
		if want == KindDate {
			d, err := time.Parse("2006-01-02", text)
			if err != nil {
				return Value{}, p.errorAtToken(tok, "invalid date %s", text)
			}
			return Value{Kind: KindDate, Date: d}, nil
		}
	}

	return Value{}, p.errorAtToken(tok, "cannot compare %s field %s to %s literal %s", want, field, literalKind(tok.Type), text)
}

func isOperand(t TokenType) bool {
	switch t {
	case IDENT, STRING, NUMBER, DATE:
		return true
	}
	return false
}

func literalKind(t TokenType) ValueKind {
	switch t {
	case NUMBER:
		return KindNumber
	case DATE:
		return KindDate
	}
	return KindString
}

// unquote strips the surrounding quotes and resolves backslash escapes.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	s = s[1 : len(s)-1]
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var buf strings.Builder
	buf.Grow(len(s))
	escaped := false
	for _, r := range s {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		buf.WriteRune(r)
	}
	return buf.String()
}

func (p *parser) describe(tok Token) string {
	switch tok.Type {
	case EOF:
		return "end of condition"
	case IDENT, STRING, NUMBER, DATE:
		return tok.String(p.source)
	}
	return "'" + tok.Type.String() + "'"
}

func (p *parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *parser) previous() Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *parser) check(typ TokenType) bool {
	return p.peek().Type == typ
}

func (p *parser) match(types ...TokenType) bool {
	for _, typ := range types {
		if p.check(typ) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *parser) advance() Token {
	if !p.check(EOF) {
		p.pos++
	}
	return p.previous()
}

func (p *parser) errorAtToken(tok Token, format string, args ...interface{}) error {
	return &SyntaxError{
		Condition: p.source,
		Offset:    tok.Start,
		Column:    tok.Column,
		Message:   fmt.Sprintf(format, args...),
	}
}

func (p *parser) error(format string, args ...interface{}) error {
	return p.errorAtToken(p.peek(), format, args...)
}
