package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/veritas/hierarchy"
	"github.com/robinvdvleuten/veritas/model"
	"github.com/robinvdvleuten/veritas/rules"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func entry(id, oldType, amount string, month int) model.JournalEntry {
	return model.JournalEntry{
		EntryID:     id,
		Year:        2024,
		Description: "测试 " + id,
		OldType:     oldType,
		Amount:      dec(amount),
		Date:        model.Date(2024, time.Month(month), 15),
	}
}

func testTree(t *testing.T) *hierarchy.Tree {
	t.Helper()
	tree, err := hierarchy.New([]model.Account{
		{Code: "4", Name: "收入", Level: 1},
		{Code: "4100", Name: "工资收入", Level: 2, ParentCode: "4"},
		{Code: "5", Name: "支出", Level: 1},
		{Code: "5200", Name: "办公费用", Level: 2, ParentCode: "5"},
		{Code: "5300", Name: "差旅费用", Level: 2, ParentCode: "5"},
	})
	assert.NoError(t, err)
	return tree
}

func testRules() []model.MappingRule {
	return []model.MappingRule{
		{RuleID: "R-CR-1", Condition: "old_type == '工资'", AccountCode: "4100", Priority: 10, LedgerType: model.Credit},
		{RuleID: "R-DR-1", Condition: "old_type == '办公'", AccountCode: "5200", Priority: 10, LedgerType: model.Debit},
		{
			RuleID:            "R-SPLIT",
			Condition:         "old_type == '差旅'",
			AccountCode:       "4100",
			LedgerType:        model.Credit,
			Priority:          10,
			GeneratesMultiple: true,
			Splits:            []model.SplitLeg{{AccountCode: "5300", LedgerType: model.Debit}},
		},
		{RuleID: "R-BAD-ACCOUNT", Condition: "old_type == '坏账'", AccountCode: "9999", Priority: 10},
	}
}

func testApplicator(t *testing.T, opts ...rules.Option) *rules.Applicator {
	t.Helper()
	set, err := rules.NewSet(testRules())
	assert.NoError(t, err)
	return rules.NewApplicator(set, opts...)
}

func posting(code string, year, quarter int, amount string, lt model.LedgerType) model.Posting {
	return model.Posting{
		EntryID:       fmt.Sprintf("LE-%s-%d-%d", code, year, quarter),
		AccountCode:   code,
		Amount:        dec(amount),
		SourceEntryID: "JE",
		Year:          year,
		Quarter:       quarter,
		LedgerType:    lt,
	}
}
