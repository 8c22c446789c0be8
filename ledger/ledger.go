// Package ledger turns journal entries into validated ledger postings and
// aggregates them per account and quarter.
//
// The transformer runs the rule applicator over a batch of entries, verifies every
// application with the validator, and partitions the batch into postings,
// unmatched entries and errored entries. Each input entry lands in exactly one of
// the three. The aggregator then sums posting amounts into CR and DR totals per
// (account, year, quarter).
//
// All amounts use decimal arithmetic; binary floating point is never involved.
//
// Example usage:
//
//	set, err := rules.NewSet(mappingRules)
//	if err != nil {
//	    log.Fatal(err) // empty set or duplicate rule ids
//	}
//
//	t := ledger.NewTransformer(rules.NewApplicator(set), tree)
//	result, err := t.Transform(ctx, entries)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, e := range result.Errors {
//	    fmt.Println(e)
//	}
//	aggregates := ledger.Aggregate(result.Postings)
package ledger
