package formatter

import (
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/veritas/ledger"
	"github.com/robinvdvleuten/veritas/model"
	"github.com/robinvdvleuten/veritas/rules"
)

// Align is the horizontal alignment of a table column.
type Align uint8

const (
	AlignLeft Align = iota
	AlignRight
)

// Table is a plain-text table whose columns are aligned by display width, so
// CJK descriptions and account names line up.
type Table struct {
	Header []string
	Align  []Align
	Rows   [][]string

	// Style, when set, decorates the header row after padding.
	Style func(string) string
}

// widths returns the display width of every column.
func (t *Table) widths() []int {
	widths := make([]int, len(t.Header))
	for i, h := range t.Header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.Rows {
		for i, v := range row {
			if i >= len(widths) {
				break
			}
			if w := runewidth.StringWidth(v); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// Render writes the table. Columns are separated by two spaces and trailing
// padding is trimmed.
func (t *Table) Render(w io.Writer) error {
	widths := t.widths()

	var buf strings.Builder
	line := func(cells []string, style func(string) string) {
		var b strings.Builder
		for i, width := range widths {
			v := ""
			if i < len(cells) {
				v = cells[i]
			}
			if i > 0 {
				b.WriteString("  ")
			}
			if i < len(t.Align) && t.Align[i] == AlignRight {
				b.WriteString(runewidth.FillLeft(v, width))
			} else {
				b.WriteString(runewidth.FillRight(v, width))
			}
		}
		s := strings.TrimRight(b.String(), " ")
		if style != nil {
			s = style(s)
		}
		buf.WriteString(s)
		buf.WriteByte('\n')
	}

	line(t.Header, t.Style)
	rule := make([]string, len(widths))
	for i, width := range widths {
		rule[i] = strings.Repeat("-", width)
	}
	line(rule, nil)
	for _, row := range t.Rows {
		line(row, nil)
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

// PostingsTable tabulates postings.
func (f *Formatter) PostingsTable(postings []model.Posting) *Table {
	t := &Table{
		Header: []string{"No.", "Entry ID", "Account", "Path", "Amount", "Type", "Date", "Rule"},
		Align:  []Align{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignRight},
	}
	for i := range postings {
		p := &postings[i]
		t.Rows = append(t.Rows, []string{
			RowNumber(i + 1), p.EntryID, p.AccountCode, p.AccountPath,
			p.Amount.StringFixed(int32(f.Precision)), string(p.Classification()),
			p.Date.Format(f.DateLayout), p.RuleApplied,
		})
	}
	return t
}

// AggregatesTable tabulates quarterly aggregates.
func (f *Formatter) AggregatesTable(aggs []model.QuarterlyAggregate) *Table {
	t := &Table{
		Header: []string{"Account", "Path", "Period", "CR", "DR", "Net", "Entries"},
		Align:  []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight},
	}
	places := int32(f.Precision)
	for i := range aggs {
		a := &aggs[i]
		t.Rows = append(t.Rows, []string{
			a.AccountCode, a.AccountPath,
			strconv.Itoa(a.Year) + "-Q" + strconv.Itoa(a.Quarter),
			a.CRAmount.StringFixed(places), a.DRAmount.StringFixed(places), a.Net().StringFixed(places),
			strconv.Itoa(a.EntryCount),
		})
	}
	return t
}

// UnmatchedTable tabulates entries no rule matched.
func (f *Formatter) UnmatchedTable(entries []model.JournalEntry) *Table {
	t := &Table{
		Header: []string{"Entry ID", "Date", "Old Type", "Description", "Amount"},
		Align:  []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight},
	}
	for i := range entries {
		e := &entries[i]
		t.Rows = append(t.Rows, []string{
			e.EntryID, e.Date.Format(f.DateLayout), e.OldType, e.Description,
			e.Amount.StringFixed(int32(f.Precision)),
		})
	}
	return t
}

// SignTable tabulates sign-convention diagnostics.
func (f *Formatter) SignTable(diags []ledger.SignDiagnostic) *Table {
	t := &Table{
		Header: []string{"Account", "Path", "Class", "CR", "DR", "Periods"},
		Align:  []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight},
	}
	places := int32(f.Precision)
	for _, d := range diags {
		t.Rows = append(t.Rows, []string{
			d.AccountCode, d.AccountPath, d.Class.String(),
			d.CRAmount.StringFixed(places), d.DRAmount.StringFixed(places), strconv.Itoa(d.Periods),
		})
	}
	return t
}

// IssuesTable tabulates rule lint findings.
func (f *Formatter) IssuesTable(issues []rules.Issue) *Table {
	t := &Table{Header: []string{"Severity", "Rule", "Check", "Message"}}
	for _, i := range issues {
		t.Rows = append(t.Rows, []string{string(i.Severity), i.RuleID, i.Check, i.Message})
	}
	return t
}
