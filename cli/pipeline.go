package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/veritas/audit"
	"github.com/robinvdvleuten/veritas/config"
	"github.com/robinvdvleuten/veritas/hierarchy"
	"github.com/robinvdvleuten/veritas/ledger"
	"github.com/robinvdvleuten/veritas/loader"
	"github.com/robinvdvleuten/veritas/model"
	"github.com/robinvdvleuten/veritas/rules"
	"github.com/robinvdvleuten/veritas/telemetry"
)

// pipeline loads the inputs named by a config and runs them through the engine.
type pipeline struct {
	cfg         *config.Config
	log         zerolog.Logger
	ruleVersion string
}

// outcome is everything one pipeline execution produced.
type outcome struct {
	Hierarchy  *hierarchy.Tree // nil without a hierarchy file
	Set        *rules.Set
	Entries    []model.JournalEntry
	ReadErrors []error // Skipped journal and rule rows
	Lint       []rules.Issue
	Result     *ledger.Result
	Aggregates []model.QuarterlyAggregate
	Trail      *audit.Trail
}

// lookup returns the hierarchy as the engine's lookup contract, nil when absent.
func (o *outcome) lookup() hierarchy.Hierarchy {
	if o.Hierarchy == nil {
		return nil
	}
	return o.Hierarchy
}

// loadRules loads the hierarchy (when configured) and compiles the rule set.
func (p *pipeline) loadRules(ctx context.Context) (*outcome, error) {
	if p.cfg.RulesFile == "" {
		return nil, fmt.Errorf("no rules file given, set --rules or %sRULES_FILE", config.Prefix)
	}

	out := &outcome{}
	ldr := loader.New(loader.WithLogger(p.log))

	if p.cfg.AccountHierarchyFile != "" {
		timer := telemetry.StartTimer(ctx, "load hierarchy")
		tree, err := ldr.LoadHierarchy(ctx, p.cfg.AccountHierarchyFile)
		timer.End()
		if err != nil {
			return nil, err
		}
		out.Hierarchy = tree
	}

	timer := telemetry.StartTimer(ctx, "load rules")
	mrs, rowErrs, err := ldr.LoadRules(ctx, p.cfg.RulesFile)
	timer.End()
	if err != nil {
		return nil, err
	}
	out.ReadErrors = append(out.ReadErrors, rowErrs...)

	set, err := rules.NewSet(mrs, rules.WithLogger(p.log))
	if err != nil {
		return nil, err
	}
	out.Set = set
	out.Lint = rules.Lint(set, out.lookup())
	telemetry.Count(ctx, "rules", set.Len())
	telemetry.Count(ctx, "rules.rejected", len(set.Rejected()))

	return out, nil
}

// execute runs the full pipeline: load, transform, audit and aggregate.
func (p *pipeline) execute(ctx context.Context) (*outcome, error) {
	if p.cfg.JournalFile == "" {
		return nil, fmt.Errorf("no journal file given, set --journal or %sJOURNAL_FILE", config.Prefix)
	}

	out, err := p.loadRules(ctx)
	if err != nil {
		return nil, err
	}

	timer := telemetry.StartTimer(ctx, "load journal")
	ldr := loader.New(loader.WithSheet(p.cfg.Sheet), loader.WithLogger(p.log))
	entries, rowErrs, err := ldr.LoadJournal(ctx, p.cfg.JournalFile)
	timer.End()
	if err != nil {
		return nil, err
	}
	out.Entries = entries
	out.ReadErrors = append(out.ReadErrors, rowErrs...)

	applicator := rules.NewApplicator(out.Set,
		rules.WithPolicy(p.cfg.Policy()),
		rules.WithLogger(p.log),
	)
	engine := []ledger.Option{
		ledger.WithWorkers(p.cfg.Workers),
		ledger.WithTolerance(p.cfg.ToleranceValue()),
		ledger.WithLogger(p.log),
	}
	ctx = ledger.NewConfig(engine...).WithContext(ctx)
	transformer := ledger.NewTransformer(applicator, out.lookup(), engine...)

	out.Trail = audit.New(
		audit.WithUser(p.cfg.User),
		audit.WithSystemVersion(buildVersion()),
		audit.WithRuleVersion(p.ruleVersion),
	)
	out.Trail.Start()
	result, err := transformer.Transform(ctx, entries)
	if err != nil {
		return nil, err
	}
	out.Trail.Record(result, out.Set)
	out.Trail.End()
	out.Result = result

	aggs, err := ledger.AggregateParallel(ctx, result.Postings, 0)
	if err != nil {
		return nil, err
	}
	ledger.Annotate(aggs, out.lookup())
	out.Aggregates = aggs

	return out, nil
}

func buildVersion() string {
	v := Version
	if v == "" {
		v = "dev"
	}
	if CommitSHA == "" {
		return v
	}
	return fmt.Sprintf("%s (%s)", v, CommitSHA)
}
