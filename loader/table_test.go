package loader

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/veritas/model"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
		wantErr  bool
	}{
		{input: "2024-01-15", expected: model.Date(2024, time.January, 15)},
		{input: "2024/01/15", expected: model.Date(2024, time.January, 15)},
		{input: "2024-01-15 13:45:00", expected: model.Date(2024, time.January, 15)},
		{input: "15/01/2024", expected: model.Date(2024, time.January, 15)},
		{input: "03/04/2024", expected: model.Date(2024, time.April, 3)},
		{input: "01/13/2024", expected: model.Date(2024, time.January, 13)},
		{input: "45306", expected: model.Date(2024, time.January, 15)},
		{input: "", wantErr: true},
		{input: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{input: "12.50", expected: "12.5"},
		{input: "1,234.56", expected: "1234.56"},
		{input: "¥99", expected: "99"},
		{input: "-0.01", expected: "-0.01"},
		{input: "", wantErr: true},
		{input: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got.String())
		})
	}
}

func TestParseInt(t *testing.T) {
	n, err := parseInt("2024.0")
	assert.NoError(t, err)
	assert.Equal(t, 2024, n)

	_, err = parseInt("1.5")
	assert.Error(t, err)
}

func TestParseSplits(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []model.SplitLeg
		wantErr  string
	}{
		{name: "empty", input: "  "},
		{
			name:  "codes only",
			input: "5300;5400",
			expected: []model.SplitLeg{
				{AccountCode: "5300"},
				{AccountCode: "5400"},
			},
		},
		{
			name:  "weight before type",
			input: "5300:2:dr",
			expected: []model.SplitLeg{
				{AccountCode: "5300", LedgerType: model.Debit, Weight: dec("2")},
			},
		},
		{name: "missing code", input: ":DR", wantErr: `invalid split ":DR", missing account code`},
		{name: "bad part", input: "5300:abc", wantErr: `invalid split "5300:abc", "abc" is neither CR/DR nor a weight`},
		{name: "too many parts", input: "5300:DR:1:2", wantErr: `invalid split "5300:DR:1:2", expected CODE[:CR|DR][:WEIGHT]`},
		{name: "twice", input: "5300:1:2", wantErr: `invalid split "5300:1:2", weight given twice`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSplits(tt.input)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "YES", "1", "y"} {
		assert.True(t, parseBool(s), s)
	}
	for _, s := range []string{"", "no", "false", "0"} {
		assert.False(t, parseBool(s), s)
	}
}
