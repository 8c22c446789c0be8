package condition

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{
			name:  "simple comparison",
			input: "old_type == '工资'",
			want:  []TokenType{IDENT, EQ, STRING, EOF},
		},
		{
			name:  "all operators",
			input: "== != < <= > >=",
			want:  []TokenType{EQ, NEQ, LT, LTE, GT, GTE, EOF},
		},
		{
			name:  "keywords are case insensitive",
			input: "AND Or not",
			want:  []TokenType{AND, OR, NOT, EOF},
		},
		{
			name:  "keyword prefix is an identifier",
			input: "android notes",
			want:  []TokenType{IDENT, IDENT, EOF},
		},
		{
			name:  "parentheses",
			input: "(year)",
			want:  []TokenType{LPAREN, IDENT, RPAREN, EOF},
		},
		{
			name:  "date versus number",
			input: "2024-01-15 2024 -12.50",
			want:  []TokenType{DATE, NUMBER, NUMBER, EOF},
		},
		{
			name:  "double quoted string with escape",
			input: `"say \"hi\""`,
			want:  []TokenType{STRING, EOF},
		},
		{
			name:  "empty",
			input: "   ",
			want:  []TokenType{EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).ScanAll()
			assert.NoError(t, err)

			got := make([]TokenType, len(tokens))
			for i, tok := range tokens {
				got[i] = tok.Type
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLexerTokenText(t *testing.T) {
	src := "description != '年终奖' and amount >= -10.5"
	tokens, err := NewLexer(src).ScanAll()
	assert.NoError(t, err)

	var texts []string
	for _, tok := range tokens[:len(tokens)-1] {
		texts = append(texts, tok.String(src))
	}
	assert.Equal(t, []string{"description", "!=", "'年终奖'", "and", "amount", ">=", "-10.5"}, texts)
}

func TestLexerColumnsCountRunes(t *testing.T) {
	src := "old_type == '工资' and year == 2024"
	tokens, err := NewLexer(src).ScanAll()
	assert.NoError(t, err)

	// '工资' occupies columns 13-16, so "and" starts at 18.
	assert.Equal(t, AND, tokens[3].Type)
	assert.Equal(t, 18, tokens[3].Column)
	assert.Equal(t, len("old_type == '工资' "), tokens[3].Start)
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		column  int
		message string
	}{
		{
			name:    "single equals",
			input:   "old_type = 'x'",
			column:  10,
			message: "single '=' is not an operator, use '=='",
		},
		{
			name:    "c style and",
			input:   "old_type == '工资' && year == 2024",
			column:  18,
			message: "unexpected character '&'",
		},
		{
			name:    "unterminated string",
			input:   "notes == 'open",
			column:  10,
			message: "unterminated string literal",
		},
		{
			name:    "bare bang",
			input:   "!year",
			column:  1,
			message: "unexpected '!', use 'not' or '!='",
		},
		{
			name:    "dangling decimal point",
			input:   "amount > 10.",
			column:  10,
			message: "expected digits after decimal point",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLexer(tt.input).ScanAll()
			assert.Error(t, err)

			se, ok := err.(*SyntaxError)
			assert.True(t, ok)
			assert.Equal(t, tt.column, se.Column)
			assert.Equal(t, tt.message, se.Message)
			assert.Equal(t, tt.input, se.GetSource())
		})
	}
}
