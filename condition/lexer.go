package condition

import (
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes a single condition expression. Conditions are one line, so
// positions are tracked as a byte offset plus a rune column.
type Lexer struct {
	source string
	pos    int // Current byte position
	column int // Current rune column (1-indexed)
	tokens []Token
}

// NewLexer creates a lexer for source.
func NewLexer(source string) *Lexer {
	return &Lexer{
		source: source,
		column: 1,
		tokens: make([]Token, 0, len(source)/3+2),
	}
}

// ScanAll lexes the whole condition. The first ILLEGAL token stops scanning and
// is reported as a SyntaxError; the tokens scanned so far are still returned.
func (l *Lexer) ScanAll() ([]Token, error) {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.source) {
			break
		}

		tok, msg := l.scanToken()
		l.tokens = append(l.tokens, tok)
		if tok.Type == ILLEGAL {
			return l.tokens, &SyntaxError{
				Condition: l.source,
				Offset:    tok.Start,
				Column:    tok.Column,
				Message:   msg,
			}
		}
	}

	l.tokens = append(l.tokens, Token{Type: EOF, Start: l.pos, End: l.pos, Column: l.column})
	return l.tokens, nil
}

// scanToken scans the next token. For ILLEGAL tokens it also returns a message.
func (l *Lexer) scanToken() (Token, string) {
	start := l.pos
	startCol := l.column

	ch := l.advance()

	switch {
	case ch >= '0' && ch <= '9':
		if l.isDatePattern(start) {
			return l.scanDate(start, startCol), ""
		}
		return l.scanNumber(start, startCol)
	case ch == '-' && l.peekIsDigit():
		return l.scanNumber(start, startCol)

	case ch == '\'' || ch == '"':
		return l.scanString(ch, start, startCol)

	case ch == '_' || unicode.IsLetter(ch):
		return l.scanKeywordOrIdent(start, startCol), ""

	case ch == '(':
		return Token{LPAREN, start, l.pos, startCol}, ""
	case ch == ')':
		return Token{RPAREN, start, l.pos, startCol}, ""

	case ch == '=':
		if l.peek() == '=' {
			l.advance()
			return Token{EQ, start, l.pos, startCol}, ""
		}
		return Token{ILLEGAL, start, l.pos, startCol}, "single '=' is not an operator, use '=='"
	case ch == '!':
		if l.peek() == '=' {
			l.advance()
			return Token{NEQ, start, l.pos, startCol}, ""
		}
		return Token{ILLEGAL, start, l.pos, startCol}, "unexpected '!', use 'not' or '!='"
	case ch == '<':
		if l.peek() == '=' {
			l.advance()
			return Token{LTE, start, l.pos, startCol}, ""
		}
		return Token{LT, start, l.pos, startCol}, ""
	case ch == '>':
		if l.peek() == '=' {
			l.advance()
			return Token{GTE, start, l.pos, startCol}, ""
		}
		return Token{GT, start, l.pos, startCol}, ""
	}

	return Token{ILLEGAL, start, l.pos, startCol}, "unexpected character " + quoteRune(ch)
}

// isDatePattern checks if the position starts a date pattern YYYY-MM-DD.
func (l *Lexer) isDatePattern(start int) bool {
	if start+10 > len(l.source) {
		return false
	}

	src := l.source[start:]
	for i := 0; i < 10; i++ {
		switch i {
		case 4, 7:
			if src[i] != '-' {
				return false
			}
		default:
			if src[i] < '0' || src[i] > '9' {
				return false
			}
		}
	}
	// A trailing digit means this is not a date (e.g. 2024-01-015).
	return start+10 == len(l.source) || !isDigit(l.source[start+10])
}

// scanDate scans a date: YYYY-MM-DD. The first digit is already consumed.
func (l *Lexer) scanDate(start, col int) Token {
	for i := 0; i < 9; i++ {
		l.advance()
	}
	return Token{DATE, start, l.pos, col}
}

// scanNumber scans a number: -?[0-9]+(\.[0-9]+)?
func (l *Lexer) scanNumber(start, col int) (Token, string) {
	for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
		l.advance()
	}

	if l.pos < len(l.source) && l.source[l.pos] == '.' {
		l.advance()
		if l.pos >= len(l.source) || !isDigit(l.source[l.pos]) {
			return Token{ILLEGAL, start, l.pos, col}, "expected digits after decimal point"
		}
		for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
			l.advance()
		}
	}

	return Token{NUMBER, start, l.pos, col}, ""
}

// scanString scans a quoted string. Backslash escapes the next character.
// The opening quote is already consumed.
func (l *Lexer) scanString(quote rune, start, col int) (Token, string) {
	for l.pos < len(l.source) {
		ch := l.advance()
		if ch == '\\' {
			if l.pos >= len(l.source) {
				break
			}
			l.advance()
			continue
		}
		if ch == quote {
			return Token{STRING, start, l.pos, col}, ""
		}
	}

	return Token{ILLEGAL, start, l.pos, col}, "unterminated string literal"
}

// scanKeywordOrIdent scans a field reference or one of the boolean keywords.
// Keywords are matched case-insensitively.
func (l *Lexer) scanKeywordOrIdent(start, col int) Token {
	for l.pos < len(l.source) {
		r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		l.advance()
	}

	switch text := l.source[start:l.pos]; {
	case equalFold(text, "and"):
		return Token{AND, start, l.pos, col}
	case equalFold(text, "or"):
		return Token{OR, start, l.pos, col}
	case equalFold(text, "not"):
		return Token{NOT, start, l.pos, col}
	}
	return Token{IDENT, start, l.pos, col}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.source) {
		r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.advance()
	}
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.source) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return r
}

func (l *Lexer) peekIsDigit() bool {
	return l.pos < len(l.source) && isDigit(l.source[l.pos])
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += size
	l.column++
	return r
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func equalFold(s, lower string) bool {
	if len(s) != len(lower) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != lower[i] {
			return false
		}
	}
	return true
}

func quoteRune(r rune) string {
	if r == utf8.RuneError {
		return "(invalid UTF-8)"
	}
	return "'" + string(r) + "'"
}
