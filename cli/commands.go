package cli

import (
	"github.com/robinvdvleuten/veritas/config"
)

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands. Empty values fall
// back to the VERITAS_* environment.
type Globals struct {
	Telemetry   bool   `help:"Show timing telemetry for operations."`
	LogLevel    string `help:"Log level (debug, info, warn, error, off)." placeholder:"LEVEL"`
	LogFormat   string `help:"Log format (console, json)." placeholder:"FORMAT"`
	ErrorFormat string `help:"Error output format." enum:"text,json" default:"text"`
}

type Commands struct {
	Globals

	Run    RunCmd    `cmd:"" help:"Transform a journal into a ledger workbook."`
	Check  CheckCmd  `cmd:"" help:"Compile and lint a rules file."`
	Crdr   CrdrCmd   `cmd:"" name:"crdr" help:"Report income and expense accounts with inverted CR/DR totals."`
	Doctor DoctorCmd `cmd:"" help:"Doctor utilities for debugging rule conditions."`
}

// apply overrides cfg with the global flags that are set.
func (g *Globals) apply(cfg *config.Config) {
	overrideString(&cfg.LogLevel, g.LogLevel)
	overrideString(&cfg.LogFormat, g.LogFormat)
}

// overrideString sets *dst to v unless v is empty.
func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
