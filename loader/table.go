package loader

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// table is a header-indexed view of a worksheet.
type table struct {
	file   string
	header []string
	index  map[string]int // Normalized header -> column
	rows   [][]string
}

func readSheet(filename, sheet string) (*table, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: workbook has no sheets", filename)
		}
		sheet = sheets[0]
	}

	// Raw values keep amounts unformatted and dates as serial numbers.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read sheet %q: %w", filename, sheet, err)
	}
	return newTable(filename, rows), nil
}

func newTable(filename string, rows [][]string) *table {
	t := &table{file: filename, index: map[string]int{}}
	if len(rows) == 0 {
		return t
	}

	t.header = rows[0]
	for i, h := range t.header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, ok := t.index[key]; !ok {
			t.index[key] = i
		}
	}
	t.rows = rows[1:]
	return t
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// column returns the first column matching one of aliases, or -1.
func (t *table) column(aliases []string) int {
	for _, a := range aliases {
		if i, ok := t.index[normalizeHeader(a)]; ok {
			return i
		}
	}
	return -1
}

func (t *table) available() []string {
	out := make([]string, 0, len(t.header))
	for _, h := range t.header {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// cell returns the trimmed value of column col, or "" when the row is short or
// col is -1.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func joinQuoted(s []string) string {
	q := make([]string, len(s))
	for i, v := range s {
		q[i] = strconv.Quote(v)
	}
	return strings.Join(q, ", ")
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
	"01/02/2006",
	"2006.01.02",
	"20060102",
}

// parseDate accepts the layouts above and spreadsheet date serials. The
// day-first layout is tried before the month-first one, so an ambiguous
// 03/04/2024 reads as 3 April.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && !strings.ContainsAny(s, "eE") {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// parseAmount parses a decimal, tolerating thousands separators and a leading
// currency sign.
func parseAmount(s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer(",", "", "¥", "", "￥", "", " ", "").Replace(strings.TrimSpace(s))
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// parseInt accepts integral floats such as "2024.0", which spreadsheets produce
// for numeric cells.
func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int(d.IntPart()), nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y":
		return true
	}
	return false
}
