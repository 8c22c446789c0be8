// Package audit records how every journal entry of a run was transformed.
package audit

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/veritas/ledger"
	"github.com/robinvdvleuten/veritas/rules"
)

// AppliedRule snapshots the rule that produced postings for an entry.
type AppliedRule struct {
	RuleID            string `json:"rule_id"`
	AccountCode       string `json:"account_code"`
	Description       string `json:"description,omitempty"`
	Priority          int    `json:"priority"`
	GeneratesMultiple bool   `json:"generates_multiple"`
}

// Record is the audit record of one journal entry.
type Record struct {
	EntryID      string        `json:"entry_id"`
	Timestamp    time.Time     `json:"timestamp"`
	Outcome      string        `json:"outcome"`
	AppliedRules []AppliedRule `json:"applied_rules"`
	Postings     []string      `json:"generated_entries"`
	NoMatch      bool          `json:"no_match"`
	Error        string        `json:"error,omitempty"`
	ErrorKind    string        `json:"error_kind,omitempty"`
}

// Trail collects records for a single run. It is safe for concurrent use.
type Trail struct {
	RunID         string    `json:"run_id"`
	User          string    `json:"user,omitempty"`
	SystemVersion string    `json:"system_version,omitempty"`
	RuleVersion   string    `json:"rule_version,omitempty"`
	Started       time.Time `json:"started"`
	Ended         time.Time `json:"ended"`
	Records       []Record  `json:"records"`

	mu    sync.Mutex
	clock func() time.Time
}

// Option configures a Trail.
type Option func(*Trail)

// WithUser sets the user the run is attributed to.
func WithUser(user string) Option {
	return func(t *Trail) { t.User = user }
}

// WithSystemVersion sets the version of the running binary.
func WithSystemVersion(v string) Option {
	return func(t *Trail) { t.SystemVersion = v }
}

// WithRuleVersion sets the version of the rule set, typically a checksum of the
// rules file.
func WithRuleVersion(v string) Option {
	return func(t *Trail) { t.RuleVersion = v }
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(t *Trail) { t.clock = clock }
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(t *Trail) { t.RunID = id }
}

// New creates a trail with a fresh random run id.
func New(opts ...Option) *Trail {
	t := &Trail{
		RunID: uuid.NewString(),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start stamps the start of the run.
func (t *Trail) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Started = t.clock().UTC()
}

// End stamps the end of the run.
func (t *Trail) End() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Ended = t.clock().UTC()
}

// Record appends one record per processed entry of result. set provides the rule
// details; rules it does not know are recorded by id only.
func (t *Trail) Record(result *ledger.Result, set *rules.Set) {
	if result == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock().UTC()
	for i := range result.Entries {
		t.Records = append(t.Records, newRecord(&result.Entries[i], set, now))
	}
}

func newRecord(res *ledger.EntryResult, set *rules.Set, now time.Time) Record {
	rec := Record{
		EntryID:      res.Entry.EntryID,
		Timestamp:    now,
		Outcome:      res.Outcome.String(),
		AppliedRules: make([]AppliedRule, 0, len(res.AppliedRules)),
		Postings:     make([]string, 0, len(res.Postings)),
		NoMatch:      res.Outcome == ledger.OutcomeUnmatched,
	}

	for _, id := range res.AppliedRules {
		applied := AppliedRule{RuleID: id}
		if set != nil {
			if r, ok := set.Lookup(id); ok {
				applied.AccountCode = r.AccountCode
				applied.Description = r.Description
				applied.Priority = r.Priority
				applied.GeneratesMultiple = r.GeneratesMultiple
			}
		}
		rec.AppliedRules = append(rec.AppliedRules, applied)
	}

	for _, p := range res.Postings {
		rec.Postings = append(rec.Postings, p.EntryID)
	}

	if res.Err != nil {
		rec.Error = res.Err.Error()
		rec.ErrorKind = res.Err.Kind()
	}
	return rec
}

// ByEntry returns the record of the given journal entry.
func (t *Trail) ByEntry(entryID string) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, rec := range t.Records {
		if rec.EntryID == entryID {
			return rec, true
		}
	}
	return Record{}, false
}

// ByRule returns every record the given rule was applied to.
func (t *Trail) ByRule(ruleID string) []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Record
	for _, rec := range t.Records {
		for _, r := range rec.AppliedRules {
			if r.RuleID == ruleID {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// RuleUsage counts the entries a rule was applied to.
type RuleUsage struct {
	RuleID  string `json:"rule_id"`
	Entries int    `json:"entries"`
}

// Summary condenses a trail.
type Summary struct {
	RunID     string        `json:"run_id"`
	Total     int           `json:"total"`
	Matched   int           `json:"matched"`
	Unmatched int           `json:"unmatched"`
	Errored   int           `json:"errored"`
	Postings  int           `json:"postings"`
	Duration  time.Duration `json:"duration"`
	Rules     []RuleUsage   `json:"rules"`
}

// Summary returns outcome counts and per-rule usage ordered by usage, then id.
func (t *Trail) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{RunID: t.RunID, Total: len(t.Records)}
	if !t.Started.IsZero() && !t.Ended.IsZero() {
		s.Duration = t.Ended.Sub(t.Started)
	}

	usage := map[string]int{}
	for _, rec := range t.Records {
		switch rec.Outcome {
		case ledger.OutcomeMatched.String():
			s.Matched++
		case ledger.OutcomeUnmatched.String():
			s.Unmatched++
		case ledger.OutcomeErrored.String():
			s.Errored++
		}
		s.Postings += len(rec.Postings)
		for _, r := range rec.AppliedRules {
			usage[r.RuleID]++
		}
	}

	s.Rules = make([]RuleUsage, 0, len(usage))
	for id, n := range usage {
		s.Rules = append(s.Rules, RuleUsage{RuleID: id, Entries: n})
	}
	slices.SortFunc(s.Rules, func(a, b RuleUsage) int {
		if a.Entries != b.Entries {
			return b.Entries - a.Entries
		}
		switch {
		case a.RuleID < b.RuleID:
			return -1
		case a.RuleID > b.RuleID:
			return 1
		}
		return 0
	})
	return s
}

// WriteJSON writes the trail as indented JSON.
func (t *Trail) WriteJSON(w io.Writer) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}
