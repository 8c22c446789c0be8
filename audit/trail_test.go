package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/veritas/hierarchy"
	"github.com/robinvdvleuten/veritas/ledger"
	"github.com/robinvdvleuten/veritas/model"
	"github.com/robinvdvleuten/veritas/rules"
)

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

func transform(t *testing.T) (*ledger.Result, *rules.Set) {
	t.Helper()

	tree, err := hierarchy.New([]model.Account{
		{Code: "4", Name: "收入", Level: 1},
		{Code: "4100", Name: "工资收入", Level: 2, ParentCode: "4"},
		{Code: "5", Name: "支出", Level: 1},
		{Code: "5300", Name: "差旅费用", Level: 2, ParentCode: "5"},
	})
	assert.NoError(t, err)

	set, err := rules.NewSet([]model.MappingRule{
		{RuleID: "R-SALARY", Condition: "old_type == '工资'", AccountCode: "4100", Priority: 20, Description: "salary", LedgerType: model.Credit},
		{
			RuleID:            "R-TRAVEL",
			Condition:         "old_type == '差旅'",
			AccountCode:       "4100",
			Priority:          10,
			GeneratesMultiple: true,
			Splits:            []model.SplitLeg{{AccountCode: "5300", LedgerType: model.Debit}},
		},
		{RuleID: "R-BAD", Condition: "old_type == '坏账'", AccountCode: "9999", Priority: 5},
	})
	assert.NoError(t, err)

	mk := func(id, oldType, amount string) model.JournalEntry {
		return model.JournalEntry{
			EntryID:     id,
			Year:        2024,
			Description: id,
			OldType:     oldType,
			Amount:      decimal.RequireFromString(amount),
			Date:        model.Date(2024, time.March, 1),
		}
	}
	entries := []model.JournalEntry{
		mk("JE-0001", "工资", "1000"),
		mk("JE-0002", "其他", "5"),
		mk("JE-0003", "坏账", "7"),
		mk("JE-0004", "差旅", "500"),
	}

	tr := ledger.NewTransformer(rules.NewApplicator(set), tree, ledger.WithWorkers(2))
	result, err := tr.Transform(context.Background(), entries)
	assert.NoError(t, err)
	return result, set
}

func TestTrail_Record(t *testing.T) {
	result, set := transform(t)

	start := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	trail := New(
		WithUser("auditor"),
		WithRuleVersion("v3"),
		WithClock(fixedClock(start, start.Add(time.Second), start.Add(3*time.Second))),
	)
	trail.Start()
	trail.Record(result, set)
	trail.End()

	assert.Equal(t, 4, len(trail.Records))
	assert.Equal(t, start, trail.Started)
	assert.Equal(t, start.Add(3*time.Second), trail.Ended)

	rec, ok := trail.ByEntry("JE-0001")
	assert.True(t, ok)
	assert.Equal(t, "matched", rec.Outcome)
	assert.Equal(t, []AppliedRule{{
		RuleID:      "R-SALARY",
		AccountCode: "4100",
		Description: "salary",
		Priority:    20,
	}}, rec.AppliedRules)
	assert.Equal(t, []string{"LE-JE-0001-R-SALARY"}, rec.Postings)
	assert.Equal(t, start.Add(time.Second), rec.Timestamp)

	rec, ok = trail.ByEntry("JE-0002")
	assert.True(t, ok)
	assert.True(t, rec.NoMatch)
	assert.Equal(t, 0, len(rec.Postings))

	rec, ok = trail.ByEntry("JE-0003")
	assert.True(t, ok)
	assert.Equal(t, "errored", rec.Outcome)
	assert.Equal(t, "UnresolvedAccountError", rec.ErrorKind)
	assert.Contains(t, rec.Error, "9999")
	assert.Equal(t, 0, len(rec.Postings))

	rec, ok = trail.ByEntry("JE-0004")
	assert.True(t, ok)
	assert.True(t, rec.AppliedRules[0].GeneratesMultiple)
	assert.Equal(t, []string{"LE-JE-0004-R-TRAVEL-1", "LE-JE-0004-R-TRAVEL-2"}, rec.Postings)

	_, ok = trail.ByEntry("JE-9999")
	assert.False(t, ok)
}

func TestTrail_ByRule(t *testing.T) {
	result, set := transform(t)
	trail := New()
	trail.Record(result, set)

	recs := trail.ByRule("R-TRAVEL")
	assert.Equal(t, 1, len(recs))
	assert.Equal(t, "JE-0004", recs[0].EntryID)

	assert.Equal(t, 0, len(trail.ByRule("R-NONE")))
}

func TestTrail_Summary(t *testing.T) {
	result, set := transform(t)

	start := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	trail := New(WithRunID("run-1"), WithClock(fixedClock(start, start, start.Add(2*time.Second))))
	trail.Start()
	trail.Record(result, set)
	trail.End()

	assert.Equal(t, Summary{
		RunID:     "run-1",
		Total:     4,
		Matched:   2,
		Unmatched: 1,
		Errored:   1,
		Postings:  3,
		Duration:  2 * time.Second,
		Rules: []RuleUsage{
			{RuleID: "R-SALARY", Entries: 1},
			{RuleID: "R-TRAVEL", Entries: 1},
		},
	}, trail.Summary())
}

func TestTrail_WriteJSON(t *testing.T) {
	result, set := transform(t)
	trail := New(WithUser("auditor"), WithSystemVersion("1.2.3"))
	trail.Record(result, set)

	var buf bytes.Buffer
	assert.NoError(t, trail.WriteJSON(&buf))

	var decoded struct {
		RunID         string `json:"run_id"`
		User          string `json:"user"`
		SystemVersion string `json:"system_version"`
		Records       []struct {
			EntryID          string   `json:"entry_id"`
			Outcome          string   `json:"outcome"`
			GeneratedEntries []string `json:"generated_entries"`
		} `json:"records"`
	}
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, trail.RunID, decoded.RunID)
	assert.Equal(t, 36, len(decoded.RunID))
	assert.Equal(t, "auditor", decoded.User)
	assert.Equal(t, "1.2.3", decoded.SystemVersion)
	assert.Equal(t, 4, len(decoded.Records))
	assert.Equal(t, "JE-0004", decoded.Records[3].EntryID)
	assert.Equal(t, 2, len(decoded.Records[3].GeneratedEntries))
}

func TestTrail_RecordNil(t *testing.T) {
	trail := New()
	trail.Record(nil, nil)
	assert.Equal(t, 0, len(trail.Records))
}
