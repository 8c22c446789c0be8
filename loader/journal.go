package loader

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/veritas/model"
)

// Header aliases of journal sheets, matched case-insensitively.
var journalColumns = map[string][]string{
	"entry_id":    {"entry_id", "entry id", "id", "编号"},
	"year":        {"year", "年份"},
	"description": {"description", "描述", "说明", "摘要"},
	"old_type":    {"old_type", "old type", "type", "类型"},
	"amount":      {"amount", "金额", "总额"},
	"date":        {"date", "日期"},
	"quarter":     {"quarter", "季度"},
	"notes":       {"notes", "备注"},
	"income":      {"收入", "income"},
	"expense":     {"支出", "expense"},
	// Used when both income and expense are empty.
	"fallback": {"理财", "金额", "变动"},
}

// LoadJournal reads journal entries. Rows that cannot be read are skipped and
// returned as row errors; err is only set when the file as a whole is unusable.
func (l *Loader) LoadJournal(ctx context.Context, filename string) ([]model.JournalEntry, []error, error) {
	f, err := detectFormat(filename)
	if err != nil {
		return nil, nil, err
	}

	var (
		entries []model.JournalEntry
		rowErrs []error
	)
	switch f {
	case formatSpreadsheet:
		t, err := readSheet(filename, l.Sheet)
		if err != nil {
			return nil, nil, err
		}
		entries, rowErrs, err = readJournal(ctx, t)
		if err != nil {
			return nil, nil, err
		}
	case formatYAML:
		entries, rowErrs, err = readJournalYAML(ctx, filename)
		if err != nil {
			return nil, nil, err
		}
	}

	l.logRowErrors(filename, rowErrs)
	l.logger.Debug().
		Str("file", filename).
		Int("entries", len(entries)).
		Int("skipped", len(rowErrs)).
		Msg("journal loaded")
	return entries, rowErrs, nil
}

type journalLayout struct {
	entryID, year, description, oldType, amount, date, quarter, notes int
	income, expense, fallback                                          int
}

func (t *table) journalLayout() (journalLayout, error) {
	col := func(name string) int { return t.column(journalColumns[name]) }

	lay := journalLayout{
		entryID:     col("entry_id"),
		year:        col("year"),
		description: col("description"),
		oldType:     col("old_type"),
		amount:      col("amount"),
		date:        col("date"),
		quarter:     col("quarter"),
		notes:       col("notes"),
		income:      col("income"),
		expense:     col("expense"),
		fallback:    -1,
	}

	// Income and expense columns take precedence over a single amount column.
	if lay.income >= 0 || lay.expense >= 0 {
		lay.fallback = col("fallback")
		lay.amount = -1
	}

	var missing []string
	if lay.description < 0 {
		missing = append(missing, "description")
	}
	if lay.oldType < 0 {
		missing = append(missing, "old_type")
	}
	if lay.date < 0 {
		missing = append(missing, "date")
	}
	if lay.amount < 0 && lay.income < 0 && lay.expense < 0 {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return lay, &MissingColumnsError{File: t.file, Missing: missing, Available: t.available()}
	}
	return lay, nil
}

func readJournal(ctx context.Context, t *table) ([]model.JournalEntry, []error, error) {
	if len(t.header) == 0 {
		return nil, nil, nil
	}
	lay, err := t.journalLayout()
	if err != nil {
		return nil, nil, err
	}

	var (
		entries []model.JournalEntry
		rows    []int
		errs    []error
	)
	for i, row := range t.rows {
		if i%1024 == 0 {
			if err := checkContext(ctx); err != nil {
				return nil, nil, err
			}
		}
		if blank(row) {
			continue
		}

		rowNum := i + 2
		entry, err := lay.parse(t, row, rowNum)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, entry)
		rows = append(rows, i+1)
	}
	assignIDs(entries, rows)
	return entries, errs, nil
}

// assignIDs gives every entry without an id one derived from its data row
// number. An id the file already uses gets a numeric suffix instead.
func assignIDs(entries []model.JournalEntry, rows []int) {
	used := make(map[string]bool, len(entries))
	for i := range entries {
		if id := entries[i].EntryID; id != "" {
			used[id] = true
		}
	}
	for i := range entries {
		if entries[i].EntryID != "" {
			continue
		}
		base := generatedID(rows[i])
		id := base
		for n := 2; used[id]; n++ {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		used[id] = true
		entries[i].EntryID = id
	}
}

func generatedID(n int) string {
	return fmt.Sprintf("JE-%04d", n)
}

func (lay journalLayout) parse(t *table, row []string, rowNum int) (model.JournalEntry, error) {
	fail := func(col int, format string, args ...any) error {
		name := ""
		if col >= 0 && col < len(t.header) {
			name = t.header[col]
		}
		return &RowError{File: t.file, Row: rowNum, Column: name, Message: fmt.Sprintf(format, args...)}
	}

	entry := model.JournalEntry{
		EntryID:     cell(row, lay.entryID),
		Description: cell(row, lay.description),
		OldType:     cell(row, lay.oldType),
		Notes:       cell(row, lay.notes),
	}

	raw := cell(row, lay.date)
	if raw == "" {
		return entry, fail(lay.date, "date is required")
	}
	date, err := parseDate(raw)
	if err != nil {
		return entry, fail(lay.date, "%v", err)
	}
	entry.Date = date
	// The year always follows the date so the two cannot disagree.
	entry.Year = date.Year()

	if v := cell(row, lay.quarter); v != "" {
		q, err := parseInt(v)
		if err != nil {
			return entry, fail(lay.quarter, "invalid quarter %q", v)
		}
		entry.Quarter = q
	}

	if lay.amount >= 0 {
		v := cell(row, lay.amount)
		if v == "" {
			return entry, fail(lay.amount, "amount is required")
		}
		if entry.Amount, err = parseAmount(v); err != nil {
			return entry, fail(lay.amount, "%v", err)
		}
		return entry, nil
	}

	income, expense := cell(row, lay.income), cell(row, lay.expense)
	if income == "" && expense == "" {
		v := cell(row, lay.fallback)
		if v == "" {
			return entry, fail(-1, "no amount in income, expense or fallback columns")
		}
		if entry.Amount, err = parseAmount(v); err != nil {
			return entry, fail(lay.fallback, "%v", err)
		}
		return entry, nil
	}
	if income != "" {
		in, err := parseAmount(income)
		if err != nil {
			return entry, fail(lay.income, "%v", err)
		}
		entry.Amount = entry.Amount.Add(in)
	}
	if expense != "" {
		out, err := parseAmount(expense)
		if err != nil {
			return entry, fail(lay.expense, "%v", err)
		}
		entry.Amount = entry.Amount.Sub(out)
	}
	return entry, nil
}

// journalDocument accepts either a bare list or an "entries" mapping.
type journalDocument struct {
	Entries []journalItem `yaml:"entries"`
}

type journalItem struct {
	EntryID     scalar `yaml:"entry_id"`
	Year        scalar `yaml:"year"`
	Description scalar `yaml:"description"`
	OldType     scalar `yaml:"old_type"`
	Amount      scalar `yaml:"amount"`
	Date        scalar `yaml:"date"`
	Quarter     scalar `yaml:"quarter"`
	Notes       scalar `yaml:"notes"`
}

func readJournalYAML(ctx context.Context, filename string) ([]model.JournalEntry, []error, error) {
	var items []journalItem
	if err := decodeYAML(filename, &items, func(doc *yaml.Node) error {
		var d journalDocument
		err := doc.Decode(&d)
		items = d.Entries
		return err
	}); err != nil {
		return nil, nil, err
	}

	var (
		entries []model.JournalEntry
		rows    []int
		errs    []error
	)
	for i, item := range items {
		if err := checkContext(ctx); err != nil {
			return nil, nil, err
		}
		fail := func(field, format string, args ...any) {
			errs = append(errs, &RowError{File: filename, Row: i + 1, Column: field, Message: fmt.Sprintf(format, args...)})
		}

		entry := model.JournalEntry{
			EntryID:     string(item.EntryID),
			Description: string(item.Description),
			OldType:     string(item.OldType),
			Notes:       string(item.Notes),
		}
		date, err := parseDate(string(item.Date))
		if err != nil {
			fail("date", "%v", err)
			continue
		}
		entry.Date = date
		entry.Year = date.Year()
		if item.Year != "" {
			// An explicit year is kept so validation can flag a mismatch.
			if entry.Year, err = parseInt(string(item.Year)); err != nil {
				fail("year", "%v", err)
				continue
			}
		}
		if item.Quarter != "" {
			if entry.Quarter, err = parseInt(string(item.Quarter)); err != nil {
				fail("quarter", "%v", err)
				continue
			}
		}
		if entry.Amount, err = parseAmount(string(item.Amount)); err != nil {
			fail("amount", "%v", err)
			continue
		}
		entries = append(entries, entry)
		rows = append(rows, i+1)
	}
	assignIDs(entries, rows)
	return entries, errs, nil
}

// decodeYAML decodes a sequence document into list, or hands a mapping
// document to mapping.
func decodeYAML(filename string, list any, mapping func(*yaml.Node) error) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		err = root.Decode(list)
	case yaml.MappingNode:
		err = mapping(root)
	default:
		err = fmt.Errorf("expected a list or a mapping at line %d", root.Line)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return nil
}

// scalar decodes any YAML scalar as its literal text, so unquoted codes such as
// 4100 or amounts such as 12.50 keep their exact spelling.
type scalar string

func (s *scalar) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", n.Line)
	}
	if n.Tag == "!!null" {
		*s = ""
		return nil
	}
	*s = scalar(n.Value)
	return nil
}
