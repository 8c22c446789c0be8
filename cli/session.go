package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/veritas/config"
	"github.com/robinvdvleuten/veritas/logging"
	"github.com/robinvdvleuten/veritas/output"
	"github.com/robinvdvleuten/veritas/telemetry"
)

// session is the per-invocation state shared by the commands: merged
// configuration, logger, error renderer and optional telemetry.
type session struct {
	kctx     *kong.Context
	cfg      *config.Config
	log      zerolog.Logger
	renderer *ErrorRenderer
	name     string

	ctx       context.Context
	collector telemetry.Collector
	root      telemetry.Timer
	once      sync.Once
}

// newSession loads the environment configuration, applies the global flags and
// override, then validates the result. Invalid settings are printed and
// reported as a usage failure.
func newSession(kctx *kong.Context, globals *Globals, name string, override func(*config.Config)) (*session, error) {
	renderer := NewErrorRenderer(globals.ErrorFormat)

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintln(kctx.Stderr, renderer.Render(err))
		return nil, NewCommandError(ExitUsage)
	}
	globals.apply(cfg)
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintln(kctx.Stderr, renderer.Render(err))
		_, _ = fmt.Fprintln(kctx.Stderr)
		printError(kctx.Stderr, "invalid configuration")
		return nil, NewCommandError(ExitUsage)
	}

	logCfg := cfg.Logging()
	logCfg.Out = kctx.Stderr

	s := &session{
		kctx:     kctx,
		cfg:      cfg,
		log:      logging.New(logCfg),
		renderer: renderer,
		name:     name,
		ctx:      context.Background(),
	}

	if globals.Telemetry {
		collector := telemetry.NewTimingCollector()
		s.collector = collector
		s.ctx = telemetry.WithCollector(s.ctx, collector)
		s.root = collector.Start(name)
	}

	return s, nil
}

// finish reports telemetry once, if enabled.
func (s *session) finish() {
	s.once.Do(s.report)
}

func (s *session) report() {
	if s.collector == nil {
		return
	}
	s.root.End()
	_, _ = fmt.Fprintln(s.kctx.Stderr)
	s.collector.Report(s.kctx.Stderr, output.NewStyles(s.kctx.Stderr))
}

// restart reports the telemetry collected so far and attaches a fresh collector
// to ctx, so each watched run is timed and counted on its own. Without
// telemetry ctx is returned unchanged.
func (s *session) restart(ctx context.Context) context.Context {
	if s.collector == nil {
		return ctx
	}
	s.report()
	collector := telemetry.NewTimingCollector()
	s.collector = collector
	s.root = collector.Start(s.name)
	return telemetry.WithCollector(ctx, collector)
}

func (s *session) pipeline(ruleVersion string) *pipeline {
	return &pipeline{cfg: s.cfg, log: s.log, ruleVersion: ruleVersion}
}

// fail prints err with its context and returns the matching command error.
func (s *session) fail(err error, summary string) error {
	_, _ = fmt.Fprintln(s.kctx.Stderr, s.renderer.Render(err))
	_, _ = fmt.Fprintln(s.kctx.Stderr)
	printError(s.kctx.Stderr, summary)
	return NewCommandError(ExitFailed)
}
