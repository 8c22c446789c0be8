package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/veritas/config"
	"github.com/robinvdvleuten/veritas/formatter"
	"github.com/robinvdvleuten/veritas/rules"
)

// CheckCmd compiles a rules file and lints the result without reading a journal.
type CheckCmd struct {
	Rules    string `help:"Mapping rules file (.xlsx, .yaml or .json)." arg:"" optional:""`
	Accounts string `help:"Account hierarchy file used to check account codes." short:"a" placeholder:"FILE"`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	s, err := newSession(ctx, globals, "check", func(cfg *config.Config) {
		overrideString(&cfg.RulesFile, cmd.Rules)
		overrideString(&cfg.AccountHierarchyFile, cmd.Accounts)
	})
	if err != nil {
		return err
	}
	defer s.finish()

	out, err := s.pipeline("").loadRules(s.ctx)
	if err != nil {
		return s.fail(err, "check failed")
	}

	w := ctx.Stderr
	failed := false

	if len(out.ReadErrors) > 0 {
		_, _ = fmt.Fprintln(w, s.renderer.RenderAll(out.ReadErrors))
		_, _ = fmt.Fprintln(w)
		printError(w, fmt.Sprintf("%d rule row(s) could not be read", len(out.ReadErrors)))
		failed = true
	}

	if rejected := out.Set.Rejected(); len(rejected) > 0 {
		_, _ = fmt.Fprintln(w, s.renderer.RenderAll(rejected))
		_, _ = fmt.Fprintln(w)
		printError(w, fmt.Sprintf("%d rule(s) rejected", len(rejected)))
		failed = true
	}

	if len(out.Lint) > 0 {
		tbl := formatter.New().IssuesTable(out.Lint)
		tbl.Style = func(h string) string { return infoStyle.Render(h) }
		if err := tbl.Render(ctx.Stdout); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(ctx.Stdout)
		if rules.HasErrors(out.Lint) {
			printError(w, fmt.Sprintf("%d lint finding(s)", len(out.Lint)))
			failed = true
		} else {
			printWarning(w, fmt.Sprintf("%d lint finding(s)", len(out.Lint)))
		}
	}

	if failed {
		return NewCommandError(ExitFailed)
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("%d rules compiled", out.Set.Len()))
	return nil
}
