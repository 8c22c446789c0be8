package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/veritas/config"
	"github.com/robinvdvleuten/veritas/formatter"
	"github.com/robinvdvleuten/veritas/telemetry"
)

// RunCmd transforms a journal into a ledger workbook.
type RunCmd struct {
	Journal  string `help:"Journal file (.xlsx, .yaml or .json)." short:"j" placeholder:"FILE"`
	Rules    string `help:"Mapping rules file (.xlsx, .yaml or .json)." short:"r" placeholder:"FILE"`
	Accounts string `help:"Account hierarchy file (.xlsx, .yaml or .json)." short:"a" placeholder:"FILE"`
	Sheet    string `help:"Journal worksheet to read (first sheet if empty)."`

	Output   string `help:"Output directory." short:"o" placeholder:"DIR"`
	Ledger   string `help:"Ledger workbook file name." placeholder:"NAME"`
	AuditLog string `help:"Audit trail file name." name:"audit" placeholder:"NAME"`
	NoAudit  bool   `help:"Do not write the audit trail."`

	Policy      string `help:"Rule selection policy (highest, all)." placeholder:"POLICY"`
	Workers     int    `help:"Number of parallel workers (one per CPU if 0)."`
	Tolerance   string `help:"Balance tolerance, e.g. 0.01." placeholder:"AMOUNT"`
	Validation  string `help:"Validation level (strict, lenient). Strict fails the run on errored entries." placeholder:"LEVEL"`
	User        string `help:"User recorded in the audit trail."`
	RuleVersion string `help:"Rule set version recorded in the audit trail." placeholder:"VERSION"`
	Precision   int    `help:"Decimal places of amounts in the workbook." default:"2"`

	Yes    bool `help:"Overwrite existing output and write despite errors without asking." short:"y"`
	DryRun bool `help:"Run the pipeline and print the summary without writing output." short:"n"`
	Watch  bool `help:"Re-run whenever the journal, rules or hierarchy file changes." short:"w"`
}

func (cmd *RunCmd) override(cfg *config.Config) {
	overrideString(&cfg.JournalFile, cmd.Journal)
	overrideString(&cfg.RulesFile, cmd.Rules)
	overrideString(&cfg.AccountHierarchyFile, cmd.Accounts)
	overrideString(&cfg.Sheet, cmd.Sheet)
	overrideString(&cfg.OutputDir, cmd.Output)
	overrideString(&cfg.LedgerFile, cmd.Ledger)
	overrideString(&cfg.AuditFile, cmd.AuditLog)
	overrideString(&cfg.SelectionPolicy, cmd.Policy)
	overrideString(&cfg.Tolerance, cmd.Tolerance)
	overrideString(&cfg.ValidationLevel, cmd.Validation)
	overrideString(&cfg.User, cmd.User)
	if cmd.Workers > 0 {
		cfg.Workers = cmd.Workers
	}
	if cmd.NoAudit {
		cfg.AuditFile = ""
	}
}

func (cmd *RunCmd) Run(ctx *kong.Context, globals *Globals) error {
	s, err := newSession(ctx, globals, "run", cmd.override)
	if err != nil {
		return err
	}
	defer s.finish()

	if !cmd.Watch {
		return cmd.runOnce(s.ctx, s)
	}

	watchCtx, stop := signal.NotifyContext(s.ctx, os.Interrupt)
	defer stop()

	// Keep watching after failed runs; the next save may fix them.
	_ = cmd.runOnce(watchCtx, s)
	cmd.Yes = true

	files := []string{s.cfg.JournalFile, s.cfg.RulesFile}
	if s.cfg.AccountHierarchyFile != "" {
		files = append(files, s.cfg.AccountHierarchyFile)
	}
	printInfof(ctx.Stderr, "Watching %d files, press Ctrl+C to stop", len(files))

	return watchFiles(watchCtx, files, s.log, func(changed string) {
		_, _ = fmt.Fprintln(ctx.Stderr)
		printInfof(ctx.Stderr, "%s changed, running again", pathStyle.Render(filepath.Base(changed)))
		_ = cmd.runOnce(s.restart(watchCtx), s)
	})
}

// runOnce executes the pipeline and writes its output. Every problem is
// printed before the returned *CommandError.
func (cmd *RunCmd) runOnce(ctx context.Context, s *session) error {
	w := s.kctx.Stderr

	out, err := s.pipeline(cmd.RuleVersion).execute(ctx)
	if err != nil {
		return s.fail(err, "run failed")
	}

	if len(out.ReadErrors) > 0 {
		_, _ = fmt.Fprintln(w, s.renderer.RenderAll(out.ReadErrors))
		_, _ = fmt.Fprintln(w)
		printWarning(w, fmt.Sprintf("%d row(s) skipped while reading input", len(out.ReadErrors)))
	}
	if rejected := out.Set.Rejected(); len(rejected) > 0 {
		_, _ = fmt.Fprintln(w, s.renderer.RenderAll(rejected))
		_, _ = fmt.Fprintln(w)
		printWarning(w, fmt.Sprintf("%d rule(s) rejected", len(rejected)))
	}

	res := out.Result
	if len(res.Errors) > 0 {
		errs := make([]error, len(res.Errors))
		for i, e := range res.Errors {
			errs[i] = e
		}
		_, _ = fmt.Fprintln(w, s.renderer.RenderAll(errs))
		_, _ = fmt.Fprintln(w)
	}

	sum := res.Summary
	printInfof(w, "%d entries: %d matched, %d unmatched, %d errored, %d postings",
		sum.Total, sum.Matched, sum.Unmatched, sum.Errored, sum.Postings)

	strictFailure := s.cfg.Strict() && sum.Errored > 0
	if cmd.DryRun {
		if err := cmd.preview(s.kctx.Stdout, out); err != nil {
			return err
		}
		if strictFailure {
			printError(w, fmt.Sprintf("%d entries failed validation", sum.Errored))
			return NewCommandError(ExitFailed)
		}
		return nil
	}

	if strictFailure && !cmd.Yes {
		ok, err := promptYesNo(s.kctx, fmt.Sprintf("%d entries failed validation. Write the ledger anyway?", sum.Errored))
		if err != nil {
			return err
		}
		if !ok {
			printError(w, fmt.Sprintf("%d entries failed validation, nothing written", sum.Errored))
			return NewCommandError(ExitFailed)
		}
	}

	ledgerPath := s.cfg.LedgerPath()
	if fileExists(ledgerPath) && !cmd.Yes {
		ok, err := promptYesNo(s.kctx, fmt.Sprintf("%s exists. Overwrite?", ledgerPath))
		if err != nil {
			return err
		}
		if !ok {
			printError(w, fmt.Sprintf("%s exists, use --yes to overwrite", ledgerPath))
			return NewCommandError(ExitFailed)
		}
	}

	if err := cmd.write(ctx, s, out); err != nil {
		return s.fail(err, "write failed")
	}

	printSuccess(s.kctx.Stdout, fmt.Sprintf("Wrote %d postings to %s", sum.Postings, pathStyle.Render(ledgerPath)))
	if p := s.cfg.AuditPath(); p != "" {
		printSuccess(s.kctx.Stdout, fmt.Sprintf("Wrote audit trail to %s", pathStyle.Render(p)))
	}

	if strictFailure {
		return NewCommandError(ExitFailed)
	}
	return nil
}

// preview prints the quarterly totals and the unmatched entries instead of
// writing the workbook.
func (cmd *RunCmd) preview(w io.Writer, out *outcome) error {
	f := formatter.New(formatter.WithPrecision(cmd.Precision))
	header := func(h string) string { return infoStyle.Render(h) }

	tbl := f.AggregatesTable(out.Aggregates)
	tbl.Style = header
	if err := tbl.Render(w); err != nil {
		return err
	}
	if len(out.Result.Unmatched) == 0 {
		return nil
	}
	_, _ = fmt.Fprintln(w)
	tbl = f.UnmatchedTable(out.Result.Unmatched)
	tbl.Style = header
	return tbl.Render(w)
}

func (cmd *RunCmd) write(ctx context.Context, s *session, out *outcome) error {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	timer := telemetry.StartTimer(ctx, "write output")
	defer timer.End()

	f := formatter.New(formatter.WithPrecision(cmd.Precision))
	report := &formatter.Report{
		Result:     out.Result,
		Aggregates: out.Aggregates,
		Trail:      out.Trail,
		Hierarchy:  out.Hierarchy,
	}
	if err := f.SaveWorkbook(s.cfg.LedgerPath(), report); err != nil {
		return err
	}

	path := s.cfg.AuditPath()
	if path == "" {
		return nil
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create audit trail: %w", err)
	}
	if err := out.Trail.WriteJSON(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
