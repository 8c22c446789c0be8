package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/robinvdvleuten/veritas/ledger"
)

type sheet struct {
	name       string
	header     []string
	widths     []float64
	amountCols []int // 1-indexed columns rendered with the amount format
	rows       [][]any
}

// Workbook builds the ledger workbook. The caller owns the returned file and
// must close it.
func (f *Formatter) Workbook(r *Report) (*excelize.File, error) {
	wb := excelize.NewFile()

	headerStyle, err := wb.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		wb.Close()
		return nil, err
	}
	numFmt := "#,##0"
	if f.Precision > 0 {
		numFmt += "." + strings.Repeat("0", f.Precision)
	}
	amountStyle, err := wb.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		wb.Close()
		return nil, err
	}

	for i, s := range f.sheets(r) {
		if i == 0 {
			err = wb.SetSheetName("Sheet1", s.name)
		} else {
			_, err = wb.NewSheet(s.name)
		}
		if err == nil {
			err = writeSheet(wb, s, headerStyle, amountStyle)
		}
		if err != nil {
			wb.Close()
			return nil, fmt.Errorf("sheet %s: %w", s.name, err)
		}
	}
	wb.SetActiveSheet(0)
	return wb, nil
}

// WriteWorkbook writes the ledger workbook to w.
func (f *Formatter) WriteWorkbook(w io.Writer, r *Report) error {
	wb, err := f.Workbook(r)
	if err != nil {
		return err
	}
	defer wb.Close()
	return wb.Write(w)
}

// SaveWorkbook writes the ledger workbook to path.
func (f *Formatter) SaveWorkbook(path string, r *Report) error {
	wb, err := f.Workbook(r)
	if err != nil {
		return err
	}
	defer wb.Close()
	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeSheet(wb *excelize.File, s sheet, headerStyle, amountStyle int) error {
	header := make([]any, len(s.header))
	for i, h := range s.header {
		header[i] = h
	}
	if err := wb.SetSheetRow(s.name, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(s.header), 1)
	if err != nil {
		return err
	}
	if err := wb.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}

	if len(s.rows) > 0 {
		for _, col := range s.amountCols {
			top, _ := excelize.CoordinatesToCellName(col, 2)
			bottom, _ := excelize.CoordinatesToCellName(col, len(s.rows)+1)
			if err := wb.SetCellStyle(s.name, top, bottom, amountStyle); err != nil {
				return err
			}
		}
	}

	for i, w := range s.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := wb.SetColWidth(s.name, col, col, w); err != nil {
			return err
		}
	}

	return wb.SetPanes(s.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (f *Formatter) sheets(r *Report) []sheet {
	sheets := []sheet{f.ledgerSheet(r), f.quarterlySheet(r)}
	if r.Hierarchy != nil {
		sheets = append(sheets, f.hierarchySheet(r))
	}
	if s := f.unmatchedSheet(r); len(s.rows) > 0 || !f.OmitEmpty {
		sheets = append(sheets, s)
	}
	if s := f.errorsSheet(r); len(s.rows) > 0 || !f.OmitEmpty {
		sheets = append(sheets, s)
	}
	if r.Trail != nil {
		sheets = append(sheets, f.auditSheet(r))
	}
	return sheets
}

// RowNumber renders the sequential number of a data row.
func RowNumber(i int) string {
	return fmt.Sprintf("%04d", i)
}

func (f *Formatter) amount(d decimal.Decimal) float64 {
	return d.Round(int32(f.Precision)).InexactFloat64()
}

func (f *Formatter) ledgerSheet(r *Report) sheet {
	s := sheet{
		name: SheetLedger,
		header: []string{"No.", "Entry ID", "Account Code", "Account Path", "Description", "Amount",
			"Type", "Date", "Quarter", "Year", "Source Entry ID", "Rule Applied"},
		widths:     []float64{8, 24, 14, 40, 32, 15, 6, 12, 8, 8, 15, 15},
		amountCols: []int{6},
	}
	if r.Result == nil {
		return s
	}
	for i := range r.Result.Postings {
		p := &r.Result.Postings[i]
		s.rows = append(s.rows, []any{
			RowNumber(i + 1), p.EntryID, p.AccountCode, p.AccountPath, p.Description, f.amount(p.Amount),
			string(p.Classification()), p.Date.Format(f.DateLayout), p.Quarter, p.Year, p.SourceEntryID, p.RuleApplied,
		})
	}
	return s
}

func (f *Formatter) quarterlySheet(r *Report) sheet {
	s := sheet{
		name:       SheetQuarterly,
		header:     []string{"Account Code", "Account Path", "Level", "Year", "Quarter", "CR", "DR", "Net", "Entries"},
		widths:     []float64{14, 40, 8, 8, 8, 15, 15, 15, 8},
		amountCols: []int{6, 7, 8},
	}
	for i := range r.Aggregates {
		a := &r.Aggregates[i]
		s.rows = append(s.rows, []any{
			a.AccountCode, a.AccountPath, a.Level, a.Year, a.Quarter,
			f.amount(a.CRAmount), f.amount(a.DRAmount), f.amount(a.Net()), a.EntryCount,
		})
	}
	return s
}

// hierarchySheet rolls each quarter up through the account tree. Accounts
// without postings in a quarter are left out.
func (f *Formatter) hierarchySheet(r *Report) sheet {
	s := sheet{
		name:       SheetHierarchy,
		header:     []string{"Year", "Quarter", "Level", "Account Code", "Account Path", "CR", "DR", "Net", "Entries"},
		widths:     []float64{8, 8, 8, 14, 40, 15, 15, 15, 8},
		amountCols: []int{6, 7, 8},
	}
	for _, period := range ledger.Periods(r.Aggregates) {
		bt := ledger.NewBalanceTree(r.Aggregates, r.Hierarchy, period)
		bt.Walk(func(n *ledger.BalanceNode) bool {
			if n.IsZero() {
				return false
			}
			s.rows = append(s.rows, []any{
				period.Year, period.Quarter, n.Account.Level, n.Account.Code, n.Account.FullPath,
				f.amount(n.CRAmount), f.amount(n.DRAmount), f.amount(n.Net()), n.EntryCount,
			})
			return true
		})
	}
	return s
}

func (f *Formatter) unmatchedSheet(r *Report) sheet {
	s := sheet{
		name:       SheetUnmatched,
		header:     []string{"No.", "Entry ID", "Date", "Year", "Quarter", "Description", "Old Type", "Amount", "Notes"},
		widths:     []float64{8, 15, 12, 8, 8, 32, 15, 15, 24},
		amountCols: []int{8},
	}
	if r.Result == nil {
		return s
	}
	for i := range r.Result.Unmatched {
		e := &r.Result.Unmatched[i]
		s.rows = append(s.rows, []any{
			RowNumber(i + 1), e.EntryID, e.Date.Format(f.DateLayout), e.Year, e.EffectiveQuarter(),
			e.Description, e.OldType, f.amount(e.Amount), e.Notes,
		})
	}
	return s
}

// errorsSheet lists one row per failure; an entry with several failures spans
// several rows.
func (f *Formatter) errorsSheet(r *Report) sheet {
	s := sheet{
		name:   SheetErrors,
		header: []string{"No.", "Entry ID", "Kind", "Message"},
		widths: []float64{8, 15, 26, 80},
	}
	if r.Result == nil {
		return s
	}
	n := 0
	for _, e := range r.Result.Errors {
		for _, cause := range e.Errors {
			n++
			s.rows = append(s.rows, []any{RowNumber(n), e.EntryID, kindOf(cause), cause.Error()})
		}
	}
	return s
}

func (f *Formatter) auditSheet(r *Report) sheet {
	s := sheet{
		name:   SheetAudit,
		header: []string{"No.", "Run ID", "Entry ID", "Outcome", "Applied Rules", "Postings", "Error Kind", "Error", "Timestamp"},
		widths: []float64{8, 38, 15, 10, 24, 40, 24, 60, 22},
	}
	t := r.Trail
	for i, rec := range t.Records {
		rules := make([]string, len(rec.AppliedRules))
		for j, ar := range rec.AppliedRules {
			rules[j] = ar.RuleID
		}
		s.rows = append(s.rows, []any{
			RowNumber(i + 1), t.RunID, rec.EntryID, rec.Outcome,
			strings.Join(rules, ", "), strings.Join(rec.Postings, ", "),
			rec.ErrorKind, rec.Error, rec.Timestamp.Format("2006-01-02 15:04:05"),
		})
	}
	return s
}

func kindOf(err error) string {
	if k, ok := err.(interface{ Kind() string }); ok {
		return k.Kind()
	}
	return "Error"
}
