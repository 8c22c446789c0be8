package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewStyles(t *testing.T) {
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	if styles == nil {
		t.Fatal("NewStyles should return non-nil Styles")
	}

	if styles.Renderer() == nil {
		t.Error("Styles should have non-nil renderer")
	}
}

func TestStylesContainText(t *testing.T) {
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	tests := []struct {
		name string
		fn   func(string) string
		text string
	}{
		{"success", styles.Success, "transformed 12 entries"},
		{"error", styles.Error, "error message"},
		{"warning", styles.Warning, "3 unmatched"},
		{"file path", styles.FilePath, "output/ledger_output.xlsx"},
		{"account", styles.Account, "收入/工资收入"},
		{"amount", styles.Amount, "1000.00"},
		{"rule id", styles.RuleID, "R-CR-1"},
		{"keyword", styles.Keyword, "Summary"},
		{"dim", styles.Dim, "(secondary)"},
		{"credit", styles.LedgerType, "CR"},
		{"debit", styles.LedgerType, "DR"},
		{"unclassified", styles.LedgerType, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.fn(tt.text)
			if !strings.Contains(result, tt.text) {
				t.Errorf("result should contain %q, got: %s", tt.text, result)
			}
		})
	}
}

func TestStylesPlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	// A bytes.Buffer is not a terminal, so no escape sequences are emitted.
	if got := styles.Error("boom"); got != "boom" {
		t.Errorf("expected plain text, got: %q", got)
	}
	if got := styles.Timing("150ms", true); got != "150ms" {
		t.Errorf("expected plain text, got: %q", got)
	}
}
