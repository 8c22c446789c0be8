package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/robinvdvleuten/veritas/hierarchy"
	"github.com/robinvdvleuten/veritas/model"
	"github.com/robinvdvleuten/veritas/rules"
	"github.com/robinvdvleuten/veritas/telemetry"
)

// Outcome is what happened to one journal entry.
type Outcome uint8

const (
	OutcomeMatched Outcome = iota + 1
	OutcomeUnmatched
	OutcomeErrored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeUnmatched:
		return "unmatched"
	case OutcomeErrored:
		return "errored"
	}
	return "pending"
}

// EntryResult records the transformation of one entry.
type EntryResult struct {
	Entry        *model.JournalEntry
	Outcome      Outcome
	Postings     []model.Posting
	AppliedRules []string
	Err          *EntryError
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Total     int
	Matched   int
	Unmatched int
	Errored   int
	Postings  int
	Skipped   int // Not processed because the batch was cancelled
}

// Result is the output of a batch. Postings, Unmatched and Errors keep input
// order.
type Result struct {
	Postings  []model.Posting
	Unmatched []model.JournalEntry
	Errors    []*EntryError
	Entries   []EntryResult // One per processed entry
	Summary   Summary
}

// Transformer applies the rule set to batches of journal entries.
type Transformer struct {
	applicator *rules.Applicator
	hierarchy  hierarchy.Hierarchy
	validator  *Validator
	cfg        *Config
}

// NewTransformer creates a transformer. h may be nil.
func NewTransformer(a *rules.Applicator, h hierarchy.Hierarchy, opts ...Option) *Transformer {
	cfg := NewConfig(opts...)
	return &Transformer{
		applicator: a,
		hierarchy:  h,
		validator:  &Validator{hierarchy: h, tolerance: cfg.Tolerance},
		cfg:        cfg,
	}
}

// Transform processes entries independently on parallel workers and reassembles
// the results in input order. Per-entry failures never abort the batch; they are
// collected in Result.Errors and the entry's postings are withheld.
//
// If ctx is cancelled, workers stop between entries and Transform returns the
// partial result for the entries already processed together with ctx.Err().
func (t *Transformer) Transform(ctx context.Context, entries []model.JournalEntry) (*Result, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("transform (%d entries)", len(entries)))
	defer timer.End()

	log := t.cfg.Logger
	log.Debug().
		Int("entries", len(entries)).
		Int("workers", t.cfg.Workers).
		Str("policy", string(t.applicator.Policy())).
		Msg("transform started")

	results := make([]EntryResult, len(entries))
	counts := idCounts(entries)

	g, gctx := errgroup.WithContext(ctx)
	for _, chunk := range chunks(len(entries), t.cfg.Workers) {
		g.Go(func() error {
			for i := chunk.start; i < chunk.end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = t.transformEntry(&entries[i], counts[entries[i].EntryID])
			}
			return nil
		})
	}
	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	result := t.assemble(results)

	for _, e := range result.Errors {
		log.Warn().
			Str("entry_id", e.EntryID).
			Str("kind", e.Kind()).
			Err(e).
			Msg("entry failed")
	}
	log.Debug().
		Int("matched", result.Summary.Matched).
		Int("unmatched", result.Summary.Unmatched).
		Int("errored", result.Summary.Errored).
		Int("postings", result.Summary.Postings).
		Int("skipped", result.Summary.Skipped).
		Msg("transform finished")

	telemetry.Count(ctx, "entries.matched", result.Summary.Matched)
	telemetry.Count(ctx, "entries.unmatched", result.Summary.Unmatched)
	telemetry.Count(ctx, "entries.errored", result.Summary.Errored)
	telemetry.Count(ctx, "postings", result.Summary.Postings)

	if err != nil {
		return result, err
	}
	return result, ctx.Err()
}

// transformEntry is a pure function of the entry, the number of entries in the
// batch sharing its id, the rule set and the hierarchy. Every entry of a
// repeated id fails, so no posting is attributed to an ambiguous source.
func (t *Transformer) transformEntry(entry *model.JournalEntry, occurrences int) EntryResult {
	res := EntryResult{Entry: entry}

	errs := entry.Validate()
	if occurrences > 1 {
		errs = append(errs, &DuplicateEntryError{EntryID: entry.EntryID, Occurrences: occurrences})
	}
	if len(errs) > 0 {
		res.Outcome = OutcomeErrored
		res.Err = &EntryError{EntryID: entry.EntryID, Errors: errs}
		return res
	}

	app := t.applicator.Apply(entry, t.hierarchy)
	switch {
	case app.Err != nil:
		res.Outcome = OutcomeErrored
		res.Err = &EntryError{EntryID: entry.EntryID, Errors: flatten(app.Err)}
		return res
	case app.NoMatch:
		res.Outcome = OutcomeUnmatched
		return res
	}

	if ok, errs := t.validator.Validate(entry, app.Postings); !ok {
		res.Outcome = OutcomeErrored
		res.AppliedRules = app.AppliedRules
		res.Err = &EntryError{EntryID: entry.EntryID, Errors: errs}
		return res
	}

	res.Outcome = OutcomeMatched
	res.Postings = app.Postings
	res.AppliedRules = app.AppliedRules
	return res
}

func (t *Transformer) assemble(results []EntryResult) *Result {
	r := &Result{Entries: make([]EntryResult, 0, len(results))}

	for _, res := range results {
		switch res.Outcome {
		case OutcomeMatched:
			r.Postings = append(r.Postings, res.Postings...)
			r.Summary.Matched++
		case OutcomeUnmatched:
			r.Unmatched = append(r.Unmatched, *res.Entry)
			r.Summary.Unmatched++
		case OutcomeErrored:
			r.Errors = append(r.Errors, res.Err)
			r.Summary.Errored++
		default:
			r.Summary.Skipped++
			continue
		}
		r.Entries = append(r.Entries, res)
	}

	r.Summary.Total = len(r.Entries)
	r.Summary.Postings = len(r.Postings)
	return r
}

// idCounts counts the entries per non-blank entry id.
func idCounts(entries []model.JournalEntry) map[string]int {
	counts := make(map[string]int, len(entries))
	for i := range entries {
		if id := entries[i].EntryID; strings.TrimSpace(id) != "" {
			counts[id]++
		}
	}
	return counts
}

// flatten unwraps a *model.ValidationErrors into its parts.
func flatten(err error) []error {
	var verrs *model.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.Errors
	}
	return []error{err}
}

type span struct {
	start, end int
}

// chunks splits n items into at most workers contiguous spans.
func chunks(n, workers int) []span {
	if n == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	size := (n + workers - 1) / workers
	spans := make([]span, 0, workers)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		spans = append(spans, span{start, end})
	}
	return spans
}
