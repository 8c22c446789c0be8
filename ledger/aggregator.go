package ledger

import (
	"context"
	"fmt"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/robinvdvleuten/veritas/hierarchy"
	"github.com/robinvdvleuten/veritas/model"
	"github.com/robinvdvleuten/veritas/telemetry"
)

// Aggregate groups postings by (account, year, quarter) and sums CR and DR
// amounts. A posting's class is its declared ledger type, or CR for non-negative
// and DR for negative amounts when none is declared. Amounts are added signed.
// The result is sorted by account code, year and quarter. Nothing is filtered.
func Aggregate(postings []model.Posting) []model.QuarterlyAggregate {
	m := getAggregateMap()
	defer putAggregateMap(m)

	accumulate(m, postings)
	return sortedAggregates(m)
}

// AggregateParallel is Aggregate computed as a parallel map over contiguous
// chunks followed by a single-writer merge. Its result equals Aggregate's.
// A workers value below one takes the worker count of the Config attached to
// ctx.
func AggregateParallel(ctx context.Context, postings []model.Posting, workers int) ([]model.QuarterlyAggregate, error) {
	if workers < 1 {
		workers = ConfigFromContext(ctx).Workers
	}
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("aggregate (%d postings)", len(postings)))
	defer timer.End()

	spans := chunks(len(postings), workers)
	partials := make([][]model.QuarterlyAggregate, len(spans))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range spans {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partials[i] = Aggregate(postings[s.start:s.end])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Merge(partials...), nil
}

// Merge sums aggregates with matching keys. Aggregating two disjoint batches and
// merging equals aggregating both at once.
func Merge(parts ...[]model.QuarterlyAggregate) []model.QuarterlyAggregate {
	m := getAggregateMap()
	defer putAggregateMap(m)

	for _, part := range parts {
		for i := range part {
			src := &part[i]
			dst, ok := m[src.Key()]
			if !ok {
				cp := *src
				m[src.Key()] = &cp
				continue
			}
			dst.CRAmount = dst.CRAmount.Add(src.CRAmount)
			dst.DRAmount = dst.DRAmount.Add(src.DRAmount)
			dst.EntryCount += src.EntryCount
			if dst.AccountPath == "" {
				dst.AccountPath = src.AccountPath
			}
			if dst.Level == 0 {
				dst.Level = src.Level
			}
		}
	}

	return sortedAggregates(m)
}

// Annotate fills in the account path and level of each aggregate from h.
// Aggregates whose account is not in h are left unchanged.
func Annotate(aggregates []model.QuarterlyAggregate, h hierarchy.Hierarchy) {
	if h == nil {
		return
	}
	for i := range aggregates {
		if acc, ok := h.Lookup(aggregates[i].AccountCode); ok {
			aggregates[i].AccountPath = acc.FullPath
			aggregates[i].Level = acc.Level
		}
	}
}

func accumulate(m map[model.AggregateKey]*model.QuarterlyAggregate, postings []model.Posting) {
	for i := range postings {
		p := &postings[i]
		key := p.Key()

		agg, ok := m[key]
		if !ok {
			agg = &model.QuarterlyAggregate{
				AccountCode: key.AccountCode,
				AccountPath: p.AccountPath,
				Year:        key.Year,
				Quarter:     key.Quarter,
			}
			m[key] = agg
		}

		switch p.Classification() {
		case model.Credit:
			agg.CRAmount = agg.CRAmount.Add(p.Amount)
		case model.Debit:
			agg.DRAmount = agg.DRAmount.Add(p.Amount)
		}
		agg.EntryCount++
	}
}

func sortedAggregates(m map[model.AggregateKey]*model.QuarterlyAggregate) []model.QuarterlyAggregate {
	out := make([]model.QuarterlyAggregate, 0, len(m))
	for _, agg := range m {
		out = append(out, *agg)
	}
	slices.SortFunc(out, func(a, b model.QuarterlyAggregate) int {
		return a.Key().Compare(b.Key())
	})
	return out
}
