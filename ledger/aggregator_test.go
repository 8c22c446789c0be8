package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/veritas/model"
)

func TestAggregate(t *testing.T) {
	postings := []model.Posting{
		posting("5200", 2024, 1, "30.00", model.Debit),
		posting("4100", 2024, 2, "100.00", ""),
		posting("4100", 2024, 1, "1000.00", model.Credit),
		posting("4100", 2024, 1, "-200.00", ""),
		posting("4100", 2023, 4, "50.00", model.Credit),
		posting("4100", 2024, 1, "25.00", model.Credit),
	}

	aggs := Aggregate(postings)

	var keys []string
	for _, a := range aggs {
		keys = append(keys, fmt.Sprintf("%s %d Q%d CR=%s DR=%s n=%d",
			a.AccountCode, a.Year, a.Quarter, a.CRAmount.StringFixed(2), a.DRAmount.StringFixed(2), a.EntryCount))
	}
	assert.Equal(t, []string{
		"4100 2023 Q4 CR=50.00 DR=0.00 n=1",
		"4100 2024 Q1 CR=1025.00 DR=-200.00 n=3",
		"4100 2024 Q2 CR=100.00 DR=0.00 n=1",
		"5200 2024 Q1 CR=0.00 DR=30.00 n=1",
	}, keys)
}

func TestAggregateEmpty(t *testing.T) {
	assert.Equal(t, 0, len(Aggregate(nil)))
}

func TestAggregationAdditivity(t *testing.T) {
	var postings []model.Posting
	codes := []string{"4100", "5200", "5300"}
	for i := 0; i < 120; i++ {
		lt := model.LedgerType("")
		if i%3 == 0 {
			lt = model.Debit
		}
		postings = append(postings, posting(codes[i%3], 2023+i%2, i%4+1, fmt.Sprintf("%d.%02d", i-40, i%100), lt))
	}

	whole := Aggregate(postings)

	for _, cut := range []int{0, 1, 37, 119, 120} {
		merged := Merge(Aggregate(postings[:cut]), Aggregate(postings[cut:]))
		assertSameAggregates(t, whole, merged)
	}

	parallel, err := AggregateParallel(context.Background(), postings, 7)
	assert.NoError(t, err)
	assertSameAggregates(t, whole, parallel)

	ctx := NewConfig(WithWorkers(3)).WithContext(context.Background())
	parallel, err = AggregateParallel(ctx, postings, 0)
	assert.NoError(t, err)
	assertSameAggregates(t, whole, parallel)
}

func assertSameAggregates(t *testing.T, want, got []model.QuarterlyAggregate) {
	t.Helper()
	assert.Equal(t, len(want), len(got))
	for i := range want {
		assert.Equal(t, want[i].Key(), got[i].Key())
		assert.True(t, want[i].CRAmount.Equal(got[i].CRAmount), "CR %v", want[i].Key())
		assert.True(t, want[i].DRAmount.Equal(got[i].DRAmount), "DR %v", want[i].Key())
		assert.Equal(t, want[i].EntryCount, got[i].EntryCount)
	}
}

func TestAggregateParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AggregateParallel(ctx, []model.Posting{posting("4100", 2024, 1, "1", "")}, 2)
	assert.Error(t, err)
}

func TestAnnotate(t *testing.T) {
	aggs := Aggregate([]model.Posting{
		posting("4100", 2024, 1, "10", ""),
		posting("7777", 2024, 1, "10", ""),
	})
	Annotate(aggs, testTree(t))

	assert.Equal(t, "收入/工资收入", aggs[0].AccountPath)
	assert.Equal(t, 2, aggs[0].Level)
	assert.Equal(t, "", aggs[1].AccountPath)
	assert.Equal(t, 0, aggs[1].Level)
}

func TestTransformThenAggregate(t *testing.T) {
	result, err := NewTransformer(testApplicator(t), testTree(t)).Transform(context.Background(), []model.JournalEntry{
		entry("JE-1", "工资", "1000.00", 2),
	})
	assert.NoError(t, err)

	aggs := Aggregate(result.Postings)
	assert.Equal(t, 1, len(aggs))
	assert.Equal(t, model.AggregateKey{AccountCode: "4100", Year: 2024, Quarter: 1}, aggs[0].Key())
	assert.True(t, aggs[0].CRAmount.Equal(dec("1000")))
	assert.Equal(t, "收入/工资收入", aggs[0].AccountPath)
}
