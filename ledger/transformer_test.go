package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/veritas/model"
	"github.com/robinvdvleuten/veritas/rules"
	"github.com/robinvdvleuten/veritas/telemetry"
)

func mixedBatch() []model.JournalEntry {
	return []model.JournalEntry{
		entry("JE-1", "工资", "1000.00", 2),
		entry("JE-2", "未知类型", "12.00", 3),
		entry("JE-3", "差旅", "500.00", 4),
		entry("JE-4", "坏账", "80.00", 5),
		entry("JE-5", "办公", "-30.50", 11),
	}
}

func TestTransformPartitionsBatch(t *testing.T) {
	tr := NewTransformer(testApplicator(t), testTree(t))

	result, err := tr.Transform(context.Background(), mixedBatch())
	assert.NoError(t, err)

	assert.Equal(t, Summary{Total: 5, Matched: 3, Unmatched: 1, Errored: 1, Postings: 4}, result.Summary)

	var sources []string
	for _, p := range result.Postings {
		sources = append(sources, p.SourceEntryID)
	}
	assert.Equal(t, []string{"JE-1", "JE-3", "JE-3", "JE-5"}, sources)

	assert.Equal(t, 1, len(result.Unmatched))
	assert.Equal(t, "JE-2", result.Unmatched[0].EntryID)

	assert.Equal(t, 1, len(result.Errors))
	assert.Equal(t, "JE-4", result.Errors[0].GetEntryID())
	assert.Equal(t, "UnresolvedAccountError", result.Errors[0].Kind())

	var ue *rules.UnresolvedAccountError
	assert.True(t, errors.As(result.Errors[0], &ue))
	assert.Equal(t, "R-BAD-ACCOUNT", ue.GetRuleID())
}

func TestTransformNoSilentDrops(t *testing.T) {
	entries := mixedBatch()
	result, err := NewTransformer(testApplicator(t), testTree(t), WithWorkers(3)).Transform(context.Background(), entries)
	assert.NoError(t, err)

	seen := make(map[string]int)
	for id := range postingSources(result.Postings) {
		seen[id]++
	}
	for _, e := range result.Unmatched {
		seen[e.EntryID]++
	}
	for _, e := range result.Errors {
		seen[e.EntryID]++
	}

	for _, e := range entries {
		assert.Equal(t, 1, seen[e.EntryID], "entry %s", e.EntryID)
	}
	assert.Equal(t, len(entries), len(result.Entries))
}

func postingSources(postings []model.Posting) map[string]bool {
	ids := make(map[string]bool)
	for _, p := range postings {
		ids[p.SourceEntryID] = true
	}
	return ids
}

func TestTransformBalancePreserved(t *testing.T) {
	result, err := NewTransformer(testApplicator(t), testTree(t)).Transform(context.Background(), mixedBatch())
	assert.NoError(t, err)

	for _, er := range result.Entries {
		if er.Outcome != OutcomeMatched {
			continue
		}
		sum := decimal.Zero
		for _, p := range er.Postings {
			sum = sum.Add(p.Amount)
		}
		assert.True(t, sum.Equal(er.Entry.Amount), "entry %s", er.Entry.EntryID)
	}
}

func TestTransformRejectsInvalidEntries(t *testing.T) {
	bad := entry("JE-9", "工资", "10.00", 2)
	bad.Quarter = 3

	result, err := NewTransformer(testApplicator(t), nil).Transform(context.Background(), []model.JournalEntry{bad})
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Errored)
	assert.Equal(t, 0, len(result.Postings))

	var fe *model.FieldError
	assert.True(t, errors.As(result.Errors[0], &fe))
	assert.Equal(t, "quarter", fe.GetField())
}

func TestTransformRejectsDuplicateEntryIDs(t *testing.T) {
	entries := []model.JournalEntry{
		entry("JE-1", "工资", "1000.00", 1),
		entry("JE-1", "办公", "12.50", 2),
		entry("JE-2", "工资", "20.00", 3),
	}

	result, err := NewTransformer(testApplicator(t), testTree(t), WithWorkers(2)).Transform(context.Background(), entries)
	assert.NoError(t, err)
	assert.Equal(t, Summary{Total: 3, Matched: 1, Errored: 2, Postings: 1}, result.Summary)
	assert.Equal(t, "JE-2", result.Postings[0].SourceEntryID)

	for _, e := range result.Errors {
		assert.Equal(t, "JE-1", e.GetEntryID())
		assert.Equal(t, "DuplicateEntryError", e.Kind())

		var de *DuplicateEntryError
		assert.True(t, errors.As(e, &de))
		assert.Equal(t, 2, de.Occurrences)
	}
}

func TestTransformDeterministicAcrossWorkerCounts(t *testing.T) {
	var entries []model.JournalEntry
	types := []string{"工资", "办公", "差旅", "未知类型"}
	for i := 0; i < 200; i++ {
		entries = append(entries, entry(fmt.Sprintf("JE-%03d", i), types[i%len(types)], fmt.Sprintf("%d.%02d", i*7, i%100), i%12+1))
	}

	serial, err := NewTransformer(testApplicator(t), testTree(t), WithWorkers(1)).Transform(context.Background(), entries)
	assert.NoError(t, err)
	parallel, err := NewTransformer(testApplicator(t), testTree(t), WithWorkers(8)).Transform(context.Background(), entries)
	assert.NoError(t, err)

	assert.Equal(t, serial.Postings, parallel.Postings)
	assert.Equal(t, serial.Unmatched, parallel.Unmatched)
	assert.Equal(t, serial.Summary, parallel.Summary)
}

func TestTransformCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewTransformer(testApplicator(t), nil).Transform(ctx, mixedBatch())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, result.Summary.Total)
	assert.Equal(t, 5, result.Summary.Skipped)
}

func TestTransformPolicyAll(t *testing.T) {
	set, err := rules.NewSet([]model.MappingRule{
		{RuleID: "R-1", Condition: "amount > 0", AccountCode: "4100", Priority: 2},
		{RuleID: "R-2", Condition: "old_type == '工资'", AccountCode: "5200", Priority: 1},
	})
	assert.NoError(t, err)

	e := entry("JE-1", "工资", "100.01", 1)
	result, err := NewTransformer(rules.NewApplicator(set, rules.WithPolicy(rules.PolicyAll)), testTree(t)).
		Transform(context.Background(), []model.JournalEntry{e})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(result.Postings))
	// Half-cent rounds away from zero; the last share absorbs the remainder.
	assert.Equal(t, "50.01", result.Postings[0].Amount.StringFixed(2))
	assert.Equal(t, "50.00", result.Postings[1].Amount.StringFixed(2))
	assert.Equal(t, []string{"R-1", "R-2"}, result.Entries[0].AppliedRules)
}

func TestTransformRecordsTelemetry(t *testing.T) {
	collector := telemetry.NewTimingCollector()
	ctx := telemetry.WithCollector(context.Background(), collector)

	_, err := NewTransformer(testApplicator(t), testTree(t)).Transform(ctx, mixedBatch())
	assert.NoError(t, err)

	assert.Equal(t, 3, collector.Counter("entries.matched"))
	assert.Equal(t, 4, collector.Counter("postings"))
}

func TestChunks(t *testing.T) {
	assert.Equal(t, 0, len(chunks(0, 4)))
	assert.Equal(t, []span{{0, 2}, {2, 4}, {4, 5}}, chunks(5, 3))
	assert.Equal(t, []span{{0, 1}, {1, 2}}, chunks(2, 8))
	assert.Equal(t, []span{{0, 3}}, chunks(3, 0))
}
