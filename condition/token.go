package condition

// TokenType represents the type of token scanned from a condition.
type TokenType uint8

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Keywords
	AND // and
	OR  // or
	NOT // not

	// Literals
	IDENT  // old_type, amount, year
	STRING // 'quoted' or "quoted"
	NUMBER // 123, -123.45
	DATE   // YYYY-MM-DD

	// Symbols
	LPAREN // (
	RPAREN // )
	EQ     // ==
	NEQ    // !=
	LT     // <
	LTE    // <=
	GT     // >
	GTE    // >=
)

var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	AND: "and",
	OR:  "or",
	NOT: "not",

	IDENT:  "IDENT",
	STRING: "STRING",
	NUMBER: "NUMBER",
	DATE:   "DATE",

	LPAREN: "(",
	RPAREN: ")",
	EQ:     "==",
	NEQ:    "!=",
	LT:     "<",
	LTE:    "<=",
	GT:     ">",
	GTE:    ">=",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// isComparison reports whether t is one of the comparison operators.
func (t TokenType) isComparison() bool {
	return t >= EQ && t <= GTE
}

// Token is a lexical token. Like the ledger lexer it stores byte offsets into the
// source instead of copying text.
type Token struct {
	Type   TokenType
	Start  int // Byte offset into source
	End    int // End offset (exclusive)
	Column int // Rune column (1-indexed)
}

// String materializes the token text from the source.
func (t Token) String(source string) string {
	if t.Start >= len(source) || t.End > len(source) || t.Start > t.End {
		return ""
	}
	return source[t.Start:t.End]
}
