package rules

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Policy selects which of the matching rules are applied to an entry.
type Policy string

const (
	// PolicyHighest applies only the first matching rule in priority order.
	PolicyHighest Policy = "highest"
	// PolicyAll applies every matching rule and partitions the amount equally
	// across them.
	PolicyAll Policy = "all"
)

// ParsePolicy parses a policy name. An empty name yields PolicyHighest.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyHighest:
		return PolicyHighest, nil
	case PolicyAll:
		return PolicyAll, nil
	}
	return "", fmt.Errorf("invalid selection policy %q, expected highest or all", s)
}

type options struct {
	logger zerolog.Logger
	policy Policy
}

// Option configures a Set or an Applicator.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithPolicy sets the selection policy of an Applicator.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger: zerolog.Nop(),
		policy: PolicyHighest,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
