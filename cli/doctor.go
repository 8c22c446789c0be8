package cli

import (
	"fmt"
	"io"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/veritas/condition"
	"github.com/robinvdvleuten/veritas/config"
	"github.com/robinvdvleuten/veritas/loader"
)

// DoctorCmd provides doctor utilities for debugging rule conditions.
type DoctorCmd struct {
	Lex LexCmd `cmd:"" help:"Show lexical tokens of a condition, or of every rule in a rules file."`
}

// LexCmd shows lexical tokens of conditions.
type LexCmd struct {
	Condition string `help:"Condition expression to lex." arg:"" optional:""`
	Rules     string `help:"Lex the condition of every rule in this file instead." short:"r" placeholder:"FILE"`
}

// Run executes the lex command.
func (cmd *LexCmd) Run(ctx *kong.Context, globals *Globals) error {
	if cmd.Condition != "" {
		if err := lex(ctx.Stdout, cmd.Condition); err != nil {
			_, _ = fmt.Fprintln(ctx.Stderr, NewErrorRenderer(globals.ErrorFormat).Render(err))
			return NewCommandError(ExitFailed)
		}
		return nil
	}

	s, err := newSession(ctx, globals, "lex", func(cfg *config.Config) {
		overrideString(&cfg.RulesFile, cmd.Rules)
	})
	if err != nil {
		return err
	}
	defer s.finish()

	if s.cfg.RulesFile == "" {
		return fmt.Errorf("nothing to lex, pass a condition or --rules")
	}

	mrs, rowErrs, err := loader.New(loader.WithLogger(s.log)).LoadRules(s.ctx, s.cfg.RulesFile)
	if err != nil {
		return s.fail(err, "failed to load rules")
	}
	if len(rowErrs) > 0 {
		_, _ = fmt.Fprintln(ctx.Stderr, s.renderer.RenderAll(rowErrs))
	}

	failed := 0
	for i, r := range mrs {
		if i > 0 {
			_, _ = fmt.Fprintln(ctx.Stdout)
		}
		_, _ = fmt.Fprintf(ctx.Stdout, "# %s\n", r.RuleID)
		if err := lex(ctx.Stdout, r.Condition); err != nil {
			_, _ = fmt.Fprintln(ctx.Stderr, s.renderer.Render(err))
			failed++
		}
	}

	if failed > 0 {
		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, fmt.Sprintf("%d condition(s) failed to lex", failed))
		return NewCommandError(ExitFailed)
	}
	return nil
}

// lex writes one line per token in the format: TYPE column "content".
// Tokens scanned before an illegal one are still written.
func lex(w io.Writer, source string) error {
	tokens, err := condition.NewLexer(source).ScanAll()
	for _, token := range tokens {
		// Skip EOF token for clean output
		if token.Type == condition.EOF {
			continue
		}

		_, _ = fmt.Fprintf(w, "%-10s %d    %q\n",
			token.Type.String(),
			token.Column,
			token.String(source))
	}
	return err
}
