package ledger

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultTolerance is the largest absolute difference between an entry's amount
// and the sum of its postings that still counts as balanced.
var DefaultTolerance = decimal.New(1, -2)

// Config holds the engine settings shared by the validator, transformer and
// aggregator.
type Config struct {
	Tolerance decimal.Decimal
	Workers   int
	Logger    zerolog.Logger
}

// NewConfig creates a Config with the defaults (0.01 tolerance, one worker per
// CPU, a logger that discards everything) and applies opts.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		Tolerance: DefaultTolerance,
		Workers:   runtime.GOMAXPROCS(0),
		Logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option configures the engine.
type Option func(*Config)

// WithTolerance sets the balance tolerance.
func WithTolerance(tolerance decimal.Decimal) Option {
	return func(c *Config) {
		c.Tolerance = tolerance.Abs()
	}
}

// WithWorkers sets the number of parallel workers. Values below one select one
// worker per CPU.
func WithWorkers(n int) Option {
	return func(c *Config) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		c.Workers = n
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// ParseTolerance parses a tolerance such as "0.01". Negative values are rejected.
func ParseTolerance(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tolerance %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid tolerance %q: must not be negative", s)
	}
	return d, nil
}

// contextKey is a private type to avoid key collisions in context.
type contextKey struct{}

// WithContext returns a new context with the Config attached.
func (c *Config) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// ConfigFromContext retrieves the Config from context.
// Returns a default Config if not found.
func ConfigFromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(contextKey{}).(*Config); ok {
		return cfg
	}
	return NewConfig()
}
