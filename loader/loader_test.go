package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/robinvdvleuten/veritas/model"
)

func writeWorkbook(t *testing.T, name string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		if row == nil {
			continue
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		assert.NoError(t, err)
		assert.NoError(t, f.SetSheetRow("Sheet1", cellName, &row))
	}

	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, f.SaveAs(path))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLoadJournal_IncomeExpenseColumns(t *testing.T) {
	path := writeWorkbook(t, "journal.xlsx", [][]any{
		{"日期", "摘要", "类型", "收入", "支出", "理财", "备注"},
		{"2024-01-15", "一月工资", "工资", 1000.5, "", "", "bonus"},
		{"2024/02/03", "办公用品", "办公", "", 200, "", ""},
		{"2024-03-01", "余利宝收益发放", "理财", "", "", 1.23, ""},
		nil,
		{"not a date", "坏行", "其他", 1, "", "", ""},
		{"2024-04-01", "无金额", "其他", "", "", "", ""},
	})

	entries, rowErrs, err := New().LoadJournal(context.Background(), path)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(entries))

	assert.Equal(t, "JE-0001", entries[0].EntryID)
	assert.Equal(t, "一月工资", entries[0].Description)
	assert.Equal(t, "工资", entries[0].OldType)
	assert.Equal(t, "bonus", entries[0].Notes)
	assert.True(t, dec("1000.5").Equal(entries[0].Amount))
	assert.Equal(t, model.Date(2024, time.January, 15), entries[0].Date)
	assert.Equal(t, 2024, entries[0].Year)

	assert.Equal(t, "JE-0002", entries[1].EntryID)
	assert.True(t, dec("-200").Equal(entries[1].Amount))
	assert.Equal(t, model.Date(2024, time.February, 3), entries[1].Date)

	assert.Equal(t, "JE-0003", entries[2].EntryID)
	assert.True(t, dec("1.23").Equal(entries[2].Amount))

	assert.Equal(t, 2, len(rowErrs))
	var rowErr *RowError
	assert.True(t, errors.As(rowErrs[0], &rowErr))
	assert.Equal(t, 6, rowErr.Row)
	assert.Equal(t, "日期", rowErr.Column)
	assert.True(t, errors.As(rowErrs[1], &rowErr))
	assert.Equal(t, 7, rowErr.Row)
}

func TestLoadJournal_AmountColumn(t *testing.T) {
	path := writeWorkbook(t, "journal.xlsx", [][]any{
		{"Entry ID", "Date", "Description", "Old Type", "Amount", "Quarter"},
		{"JE-9", time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), "salary", "工资", "1,250.00", 1},
		{"JE-10", "2024-05-06", "refund", "退款", -3, ""},
		{"JE-11", "2024-05-06", "typo", "退款", "12x", ""},
	})

	entries, rowErrs, err := New().LoadJournal(context.Background(), path)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(entries))
	assert.Equal(t, 1, len(rowErrs))

	assert.Equal(t, "JE-9", entries[0].EntryID)
	assert.Equal(t, model.Date(2024, time.January, 15), entries[0].Date)
	assert.True(t, dec("1250").Equal(entries[0].Amount))
	assert.Equal(t, 1, entries[0].Quarter)

	assert.Equal(t, "JE-10", entries[1].EntryID)
	assert.True(t, dec("-3").Equal(entries[1].Amount))
	assert.Equal(t, 0, entries[1].Quarter)

	assert.Contains(t, rowErrs[0].Error(), "row 4")
	assert.Contains(t, rowErrs[0].Error(), `invalid amount "12x"`)
}

func TestLoadJournal_MissingColumns(t *testing.T) {
	path := writeWorkbook(t, "journal.xlsx", [][]any{
		{"date", "description"},
		{"2024-01-01", "x"},
	})

	_, _, err := New().LoadJournal(context.Background(), path)
	var missing *MissingColumnsError
	assert.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"old_type", "amount"}, missing.Missing)
	assert.Equal(t, []string{"date", "description"}, missing.Available)
}

func TestLoadJournal_Sheet(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("2024")
	assert.NoError(t, err)
	assert.NoError(t, f.SetSheetRow("2024", "A1", &[]any{"id", "date", "type", "description", "amount"}))
	assert.NoError(t, f.SetSheetRow("2024", "A2", &[]any{"A-1", "2024-07-01", "工资", "July", 10}))
	path := filepath.Join(t.TempDir(), "book.xlsx")
	assert.NoError(t, f.SaveAs(path))
	assert.NoError(t, f.Close())

	entries, _, err := New(WithSheet("2024")).LoadJournal(context.Background(), path)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, "A-1", entries[0].EntryID)

	_, _, err = New(WithSheet("missing")).LoadJournal(context.Background(), path)
	assert.Error(t, err)
}

func TestLoadJournal_YAML(t *testing.T) {
	path := writeFile(t, "journal.yaml", `
entries:
  - entry_id: JE-1
    description: 工资
    old_type: 工资
    amount: 1000.00
    date: 2024-01-15
  - description: 办公
    old_type: 办公
    amount: -12.50
    date: 2024/02/01
    quarter: 1
    notes: 发票
  - description: broken
    old_type: x
    amount: abc
    date: 2024-01-01
`)

	entries, rowErrs, err := New().LoadJournal(context.Background(), path)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(entries))
	assert.Equal(t, 1, len(rowErrs))

	assert.Equal(t, "JE-1", entries[0].EntryID)
	assert.Equal(t, "1000.00", entries[0].Amount.StringFixed(2))
	assert.Equal(t, "JE-0002", entries[1].EntryID)
	assert.Equal(t, "发票", entries[1].Notes)
	assert.Equal(t, 1, entries[1].Quarter)
	assert.True(t, dec("-12.5").Equal(entries[1].Amount))

	var rowErr *RowError
	assert.True(t, errors.As(rowErrs[0], &rowErr))
	assert.Equal(t, 3, rowErr.Row)
	assert.Equal(t, "amount", rowErr.Column)
}

func TestLoadJournal_GeneratedIDs(t *testing.T) {
	path := writeFile(t, "journal.yaml", `
- description: a
  old_type: x
  amount: 1
  date: 2024-01-01
- entry_id: JE-0001
  description: b
  old_type: x
  amount: 2
  date: 2024-01-02
- description: broken
  old_type: x
  amount: abc
  date: 2024-01-03
- description: c
  old_type: x
  amount: 3
  date: 2024-01-04
- entry_id: JE-0001-2
  description: d
  old_type: x
  amount: 4
  date: 2024-01-05
`)

	entries, rowErrs, err := New().LoadJournal(context.Background(), path)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(rowErrs))

	var ids []string
	for _, e := range entries {
		ids = append(ids, e.EntryID)
	}
	assert.Equal(t, []string{"JE-0001-3", "JE-0001", "JE-0004", "JE-0001-2"}, ids)

	path = writeWorkbook(t, "journal.xlsx", [][]any{
		{"id", "date", "description", "type", "amount"},
		{"", "not a date", "x", "y", 1},
		{"", "2024-01-02", "x", "y", 2},
		{"JE-0003", "2024-01-03", "x", "y", 3},
	})
	entries, rowErrs, err = New().LoadJournal(context.Background(), path)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(rowErrs))
	assert.Equal(t, 2, len(entries))
	assert.Equal(t, "JE-0002", entries[0].EntryID)
	assert.Equal(t, "JE-0003", entries[1].EntryID)
}

func TestLoadJournal_UnsupportedExtension(t *testing.T) {
	_, _, err := New().LoadJournal(context.Background(), "journal.csv")
	assert.EqualError(t, err, "journal.csv: unsupported file type, expected .xlsx, .yaml or .json")
}

func TestLoadJournal_Cancelled(t *testing.T) {
	path := writeWorkbook(t, "journal.xlsx", [][]any{
		{"date", "description", "type", "amount"},
		{"2024-01-01", "x", "y", 1},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New().LoadJournal(ctx, path)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoadRules_Workbook(t *testing.T) {
	path := writeWorkbook(t, "rules.xlsx", [][]any{
		{"rule_id", "condition", "account_code", "priority", "ledger_type", "generates_multiple", "splits", "description", "old_type"},
		{"R1", "old_type == '工资'", 4100, 10, "CR", "", "", "salary", "工资"},
		{"R2", "old_type == '差旅'", 4100, 5, "cr", "yes", "5300:DR:2; 5400:1", "travel", ""},
		{"R3", "old_type == 'x'", 4100, "high", "", "", "", "", ""},
		{"R4", "old_type == 'y'", 4100, 1, "XX", "", "", "", ""},
		{"R5", "old_type == 'z'", 4100, 1, "", "", "5300:CR:DR", "", ""},
	})

	rules, rowErrs, err := New().LoadRules(context.Background(), path)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(rules))
	assert.Equal(t, 3, len(rowErrs))

	assert.Equal(t, model.MappingRule{
		RuleID:      "R1",
		Condition:   "old_type == '工资'",
		AccountCode: "4100",
		Priority:    10,
		LedgerType:  model.Credit,
		Description: "salary",
		OldType:     "工资",
	}, rules[0])

	r2 := rules[1]
	assert.True(t, r2.GeneratesMultiple)
	assert.Equal(t, model.Credit, r2.LedgerType)
	assert.Equal(t, 2, len(r2.Splits))
	assert.Equal(t, "5300", r2.Splits[0].AccountCode)
	assert.Equal(t, model.Debit, r2.Splits[0].LedgerType)
	assert.True(t, dec("2").Equal(r2.Splits[0].Weight))
	assert.Equal(t, "5400", r2.Splits[1].AccountCode)
	assert.True(t, r2.Splits[1].LedgerType.IsZero())
	assert.True(t, dec("1").Equal(r2.Splits[1].Weight))

	var rowErr *RowError
	assert.True(t, errors.As(rowErrs[0], &rowErr))
	assert.Equal(t, 4, rowErr.Row)
	assert.Equal(t, "priority", rowErr.Column)
	assert.True(t, errors.As(rowErrs[1], &rowErr))
	assert.Equal(t, "ledger_type", rowErr.Column)
	assert.True(t, errors.As(rowErrs[2], &rowErr))
	assert.Equal(t, "splits", rowErr.Column)
}

func TestLoadRules_MissingColumns(t *testing.T) {
	path := writeWorkbook(t, "rules.xlsx", [][]any{
		{"rule_id", "condition"},
		{"R1", "year == 2024"},
	})

	_, _, err := New().LoadRules(context.Background(), path)
	var missing *MissingColumnsError
	assert.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"account_code", "priority"}, missing.Missing)
}

func TestLoadRules_YAML(t *testing.T) {
	path := writeFile(t, "rules.yaml", `
- rule_id: R-1
  condition: old_type == '工资'
  account_code: 4100
  priority: 10
  ledger_type: CR
- rule_id: R-2
  condition: old_type == '差旅'
  account_code: 4100
  priority: 5
  generates_multiple: true
  weight: 3
  splits:
    - account_code: 5300
      ledger_type: DR
      weight: 1
- rule_id: R-3
  condition: old_type == '办公'
  account_code: 5200
  priority: 5
  generates_multiple: y
  splits: "5300:DR"
- rule_id: R-4
  condition: year == 2024
  account_code: 5200
  priority: soon
`)

	rules, rowErrs, err := New().LoadRules(context.Background(), path)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(rules))
	assert.Equal(t, 1, len(rowErrs))

	assert.Equal(t, "4100", rules[0].AccountCode)
	assert.Equal(t, 10, rules[0].Priority)

	assert.True(t, rules[1].GeneratesMultiple)
	assert.True(t, dec("3").Equal(rules[1].Weight))
	assert.Equal(t, []model.SplitLeg{{AccountCode: "5300", LedgerType: model.Debit, Weight: decimal.NewFromInt(1)}}, rules[1].Splits)

	assert.True(t, rules[2].GeneratesMultiple)
	assert.Equal(t, []model.SplitLeg{{AccountCode: "5300", LedgerType: model.Debit}}, rules[2].Splits)

	assert.Contains(t, rowErrs[0].Error(), "row 4: column priority")
}

func TestLoadRules_YAMLMapping(t *testing.T) {
	path := writeFile(t, "rules.yml", `
rules:
  - rule_id: R-1
    condition: year == 2024
    account_code: "4100"
    priority: 1
`)
	rules, rowErrs, err := New().LoadRules(context.Background(), path)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(rowErrs))
	assert.Equal(t, 1, len(rules))
	assert.Equal(t, "R-1", rules[0].RuleID)
}

func TestLoadHierarchy_YAML(t *testing.T) {
	path := writeFile(t, "accounts.yaml", `
accounts:
  - code: 4
    name: 收入
    level: 1
  - code: 4100
    name: 工资收入
    level: 2
    parent_code: 4
`)

	tree, err := New().LoadHierarchy(context.Background(), path)
	assert.NoError(t, err)
	assert.Equal(t, 2, tree.Len())

	acc, ok := tree.Lookup("4100")
	assert.True(t, ok)
	assert.Equal(t, "收入/工资收入", acc.FullPath)
}

func TestLoadHierarchy_Workbook(t *testing.T) {
	path := writeWorkbook(t, "accounts.xlsx", [][]any{
		{"科目代码", "科目名称", "级别", "上级编码", "full_path"},
		{5, "支出", 1, "", "ignored"},
		{5200, "办公费用", 2, 5, ""},
	})

	tree, err := New().LoadHierarchy(context.Background(), path)
	assert.NoError(t, err)
	acc, ok := tree.LookupByName("办公费用")
	assert.True(t, ok)
	assert.Equal(t, "5200", acc.Code)
	assert.Equal(t, "支出/办公费用", acc.FullPath)
}

func TestLoadHierarchy_Invalid(t *testing.T) {
	path := writeFile(t, "accounts.json", `[
  {"code": "4", "name": "收入", "level": 1},
  {"code": "4100", "name": "工资收入", "level": 3, "parent_code": "4"}
]`)

	_, err := New().LoadHierarchy(context.Background(), path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "4100")

	path = writeFile(t, "accounts.yaml", `
- code: 4
  name: 收入
  level: top
`)
	_, err = New().LoadAccounts(context.Background(), path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "row 1: column level")
}
