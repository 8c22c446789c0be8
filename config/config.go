// Package config loads runtime settings from VERITAS_* environment variables.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/veritas/ledger"
	"github.com/robinvdvleuten/veritas/logging"
	"github.com/robinvdvleuten/veritas/model"
	"github.com/robinvdvleuten/veritas/rules"
)

// Prefix is prepended to every variable name.
const Prefix = "VERITAS_"

// Validation levels.
const (
	ValidationStrict  = "strict"
	ValidationLenient = "lenient"
)

// Config holds all application configuration.
type Config struct {
	// Inputs
	JournalFile          string `env:"JOURNAL_FILE"`
	RulesFile            string `env:"RULES_FILE"`
	AccountHierarchyFile string `env:"ACCOUNT_HIERARCHY_FILE"`
	Sheet                string `env:"SHEET"`

	// Outputs
	OutputDir  string `env:"OUTPUT_DIR"  envDefault:"./output"`
	LedgerFile string `env:"LEDGER_FILE" envDefault:"ledger_output.xlsx"`
	AuditFile  string `env:"AUDIT_FILE"  envDefault:"audit_trail.json"`

	// Engine
	SelectionPolicy string `env:"SELECTION_POLICY" envDefault:"highest"`
	Workers         int    `env:"WORKERS"          envDefault:"0"`
	Tolerance       string `env:"TOLERANCE"        envDefault:"0.01"`
	ValidationLevel string `env:"VALIDATION_LEVEL" envDefault:"strict"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"warn"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Audit
	User string `env:"USER"`
}

// Load loads configuration from the process environment.
func Load() (*Config, error) {
	return load(env.Options{Prefix: Prefix})
}

// LoadFrom loads configuration from environ instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Prefix: Prefix, Environment: environ})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	fail := func(name, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s%s: %s", Prefix, name, fmt.Sprintf(format, args...)))
	}

	if _, err := rules.ParsePolicy(c.SelectionPolicy); err != nil {
		fail("SELECTION_POLICY", "%v", err)
	}
	if _, err := ledger.ParseTolerance(c.Tolerance); err != nil {
		fail("TOLERANCE", "%v", err)
	}
	if c.Workers < 0 {
		fail("WORKERS", "must not be negative, got %d", c.Workers)
	}
	switch strings.ToLower(c.ValidationLevel) {
	case ValidationStrict, ValidationLenient:
	default:
		fail("VALIDATION_LEVEL", "invalid level %q, expected strict or lenient", c.ValidationLevel)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		fail("LOG_LEVEL", "%v", err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		fail("LOG_FORMAT", "%v", err)
	}
	if strings.TrimSpace(c.LedgerFile) == "" {
		fail("LEDGER_FILE", "must not be empty")
	}

	return model.Collect(errs)
}

// Policy returns the parsed selection policy. Call Validate first.
func (c *Config) Policy() rules.Policy {
	p, _ := rules.ParsePolicy(c.SelectionPolicy)
	return p
}

// ToleranceValue returns the parsed balance tolerance, or the default when the
// setting is invalid.
func (c *Config) ToleranceValue() decimal.Decimal {
	d, err := ledger.ParseTolerance(c.Tolerance)
	if err != nil {
		return ledger.DefaultTolerance
	}
	return d
}

// Strict reports whether errored entries fail the run.
func (c *Config) Strict() bool {
	return !strings.EqualFold(c.ValidationLevel, ValidationLenient)
}

// LedgerPath is the path of the ledger workbook.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.OutputDir, c.LedgerFile)
}

// AuditPath is the path of the audit trail, or "" when it is disabled.
func (c *Config) AuditPath() string {
	if c.AuditFile == "" {
		return ""
	}
	return filepath.Join(c.OutputDir, c.AuditFile)
}

// Logging returns the logger settings.
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.LogLevel, Format: c.LogFormat}
}
