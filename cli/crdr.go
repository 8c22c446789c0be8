package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/veritas/config"
	"github.com/robinvdvleuten/veritas/formatter"
	"github.com/robinvdvleuten/veritas/ledger"
)

// CrdrCmd runs the pipeline without writing output and reports income accounts
// with more DR than CR and expense accounts with more CR than DR.
type CrdrCmd struct {
	Journal  string `help:"Journal file (.xlsx, .yaml or .json)." short:"j" placeholder:"FILE"`
	Rules    string `help:"Mapping rules file (.xlsx, .yaml or .json)." short:"r" placeholder:"FILE"`
	Accounts string `help:"Account hierarchy file (.xlsx, .yaml or .json)." short:"a" placeholder:"FILE"`
	Sheet    string `help:"Journal worksheet to read (first sheet if empty)."`
	Policy   string `help:"Rule selection policy (highest, all)." placeholder:"POLICY"`
}

func (cmd *CrdrCmd) Run(ctx *kong.Context, globals *Globals) error {
	s, err := newSession(ctx, globals, "crdr", func(cfg *config.Config) {
		overrideString(&cfg.JournalFile, cmd.Journal)
		overrideString(&cfg.RulesFile, cmd.Rules)
		overrideString(&cfg.AccountHierarchyFile, cmd.Accounts)
		overrideString(&cfg.Sheet, cmd.Sheet)
		overrideString(&cfg.SelectionPolicy, cmd.Policy)
	})
	if err != nil {
		return err
	}
	defer s.finish()

	out, err := s.pipeline("").execute(s.ctx)
	if err != nil {
		return s.fail(err, "crdr failed")
	}

	diags := ledger.CheckSignConventions(out.Aggregates)
	if len(diags) == 0 {
		printSuccess(ctx.Stdout, fmt.Sprintf("%d accounts follow their CR/DR convention", countAccounts(out)))
		return nil
	}

	tbl := formatter.New().SignTable(diags)
	tbl.Style = func(h string) string { return infoStyle.Render(h) }
	if err := tbl.Render(ctx.Stdout); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(ctx.Stdout)
	printError(ctx.Stderr, fmt.Sprintf("%d account(s) with inverted CR/DR totals, check the ledger_type of their rules", len(diags)))
	return NewCommandError(ExitFailed)
}

func countAccounts(out *outcome) int {
	seen := make(map[string]bool)
	for _, a := range out.Aggregates {
		seen[a.AccountCode] = true
	}
	return len(seen)
}
