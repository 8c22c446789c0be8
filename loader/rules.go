package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/veritas/model"
)

var ruleColumns = map[string][]string{
	"rule_id":            {"rule_id", "rule id", "规则编号"},
	"condition":          {"condition", "条件"},
	"account_code":       {"account_code", "account code", "科目代码", "科目编码"},
	"priority":           {"priority", "优先级"},
	"old_type":           {"old_type", "old type"},
	"new_type":           {"new_type", "new type"},
	"description":        {"description", "描述", "说明"},
	"generates_multiple": {"generates_multiple", "generates multiple"},
	"ledger_type":        {"ledger_type", "ledger type", "借贷"},
	"weight":             {"weight", "权重"},
	"splits":             {"splits", "分拆"},
}

var requiredRuleColumns = []string{"rule_id", "condition", "account_code", "priority"}

// LoadRules reads mapping rules. Rows with unreadable values are skipped and
// returned as row errors; semantic checks (conditions, splits, accounts) are left
// to the rule set.
func (l *Loader) LoadRules(ctx context.Context, filename string) ([]model.MappingRule, []error, error) {
	f, err := detectFormat(filename)
	if err != nil {
		return nil, nil, err
	}

	var (
		rules   []model.MappingRule
		rowErrs []error
	)
	switch f {
	case formatSpreadsheet:
		t, err := readSheet(filename, l.Sheet)
		if err != nil {
			return nil, nil, err
		}
		rules, rowErrs, err = readRules(ctx, t)
		if err != nil {
			return nil, nil, err
		}
	case formatYAML:
		rules, rowErrs, err = readRulesYAML(ctx, filename)
		if err != nil {
			return nil, nil, err
		}
	}

	l.logRowErrors(filename, rowErrs)
	l.logger.Debug().
		Str("file", filename).
		Int("rules", len(rules)).
		Int("skipped", len(rowErrs)).
		Msg("rules loaded")
	return rules, rowErrs, nil
}

// ruleFields holds the raw text of one rule, from either input format.
type ruleFields struct {
	RuleID            scalar      `yaml:"rule_id"`
	Condition         scalar      `yaml:"condition"`
	AccountCode       scalar      `yaml:"account_code"`
	Priority          scalar      `yaml:"priority"`
	OldType           scalar      `yaml:"old_type"`
	NewType           scalar      `yaml:"new_type"`
	Description       scalar      `yaml:"description"`
	GeneratesMultiple scalar      `yaml:"generates_multiple"`
	LedgerType        scalar      `yaml:"ledger_type"`
	Weight            scalar      `yaml:"weight"`
	Splits            splitsField `yaml:"splits"`
}

// fieldError names the offending field of a rule row.
type fieldError struct {
	field string
	err   error
}

func (f ruleFields) rule() (model.MappingRule, *fieldError) {
	r := model.MappingRule{
		RuleID:            strings.TrimSpace(string(f.RuleID)),
		Condition:         strings.TrimSpace(string(f.Condition)),
		AccountCode:       strings.TrimSpace(string(f.AccountCode)),
		OldType:           strings.TrimSpace(string(f.OldType)),
		NewType:           strings.TrimSpace(string(f.NewType)),
		Description:       strings.TrimSpace(string(f.Description)),
		GeneratesMultiple: parseBool(string(f.GeneratesMultiple)),
		Splits:            f.Splits,
	}

	var err error
	if p := string(f.Priority); p != "" {
		if r.Priority, err = parseInt(p); err != nil {
			return r, &fieldError{"priority", err}
		}
	}
	if r.LedgerType, err = model.ParseLedgerType(string(f.LedgerType)); err != nil {
		return r, &fieldError{"ledger_type", err}
	}
	if w := strings.TrimSpace(string(f.Weight)); w != "" {
		if r.Weight, err = decimal.NewFromString(w); err != nil {
			return r, &fieldError{"weight", fmt.Errorf("invalid weight %q", w)}
		}
	}
	return r, nil
}

func readRules(ctx context.Context, t *table) ([]model.MappingRule, []error, error) {
	if len(t.header) == 0 {
		return nil, nil, nil
	}

	cols := make(map[string]int, len(ruleColumns))
	for name, aliases := range ruleColumns {
		cols[name] = t.column(aliases)
	}
	var missing []string
	for _, name := range requiredRuleColumns {
		if cols[name] < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &MissingColumnsError{File: t.file, Missing: missing, Available: t.available()}
	}

	var (
		rules []model.MappingRule
		errs  []error
	)
	for i, row := range t.rows {
		if err := checkContext(ctx); err != nil {
			return nil, nil, err
		}
		if blank(row) {
			continue
		}
		rowNum := i + 2
		get := func(name string) scalar { return scalar(cell(row, cols[name])) }

		splits, err := parseSplits(string(get("splits")))
		if err != nil {
			errs = append(errs, &RowError{File: t.file, Row: rowNum, Column: t.header[cols["splits"]], Message: err.Error()})
			continue
		}
		fields := ruleFields{
			RuleID:            get("rule_id"),
			Condition:         get("condition"),
			AccountCode:       get("account_code"),
			Priority:          get("priority"),
			OldType:           get("old_type"),
			NewType:           get("new_type"),
			Description:       get("description"),
			GeneratesMultiple: get("generates_multiple"),
			LedgerType:        get("ledger_type"),
			Weight:            get("weight"),
			Splits:            splits,
		}
		r, ferr := fields.rule()
		if ferr != nil {
			errs = append(errs, &RowError{File: t.file, Row: rowNum, Column: t.header[cols[ferr.field]], Message: ferr.err.Error()})
			continue
		}
		rules = append(rules, r)
	}
	return rules, errs, nil
}

type rulesDocument struct {
	Rules []ruleFields `yaml:"rules"`
}

func readRulesYAML(ctx context.Context, filename string) ([]model.MappingRule, []error, error) {
	var items []ruleFields
	if err := decodeYAML(filename, &items, func(doc *yaml.Node) error {
		var d rulesDocument
		err := doc.Decode(&d)
		items = d.Rules
		return err
	}); err != nil {
		return nil, nil, err
	}

	var (
		rules []model.MappingRule
		errs  []error
	)
	for i, item := range items {
		if err := checkContext(ctx); err != nil {
			return nil, nil, err
		}
		r, ferr := item.rule()
		if ferr != nil {
			errs = append(errs, &RowError{File: filename, Row: i + 1, Column: ferr.field, Message: ferr.err.Error()})
			continue
		}
		rules = append(rules, r)
	}
	return rules, errs, nil
}

// parseSplits parses "CODE[:CR|DR][:WEIGHT]" items separated by ';'.
func parseSplits(s string) ([]model.SplitLeg, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var legs []model.SplitLeg
	for _, item := range strings.Split(s, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if len(parts) > 3 {
			return nil, fmt.Errorf("invalid split %q, expected CODE[:CR|DR][:WEIGHT]", item)
		}

		leg := model.SplitLeg{AccountCode: strings.TrimSpace(parts[0])}
		if leg.AccountCode == "" {
			return nil, fmt.Errorf("invalid split %q, missing account code", item)
		}
		for _, p := range parts[1:] {
			p = strings.TrimSpace(p)
			if lt, err := model.ParseLedgerType(p); err == nil && !lt.IsZero() {
				if !leg.LedgerType.IsZero() {
					return nil, fmt.Errorf("invalid split %q, ledger type given twice", item)
				}
				leg.LedgerType = lt
				continue
			}
			w, err := decimal.NewFromString(p)
			if err != nil {
				return nil, fmt.Errorf("invalid split %q, %q is neither CR/DR nor a weight", item, p)
			}
			if !leg.Weight.IsZero() {
				return nil, fmt.Errorf("invalid split %q, weight given twice", item)
			}
			leg.Weight = w
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

// splitsField decodes either the compact string form or a list of mappings.
type splitsField []model.SplitLeg

func (s *splitsField) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		legs, err := parseSplits(n.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*s = legs
		return nil
	case yaml.SequenceNode:
		var items []struct {
			AccountCode scalar `yaml:"account_code"`
			LedgerType  scalar `yaml:"ledger_type"`
			Weight      scalar `yaml:"weight"`
		}
		if err := n.Decode(&items); err != nil {
			return err
		}
		legs := make([]model.SplitLeg, 0, len(items))
		for _, it := range items {
			leg := model.SplitLeg{AccountCode: strings.TrimSpace(string(it.AccountCode))}
			lt, err := model.ParseLedgerType(string(it.LedgerType))
			if err != nil {
				return fmt.Errorf("line %d: %w", n.Line, err)
			}
			leg.LedgerType = lt
			if w := string(it.Weight); w != "" {
				if leg.Weight, err = decimal.NewFromString(w); err != nil {
					return fmt.Errorf("line %d: invalid weight %q", n.Line, w)
				}
			}
			legs = append(legs, leg)
		}
		*s = legs
		return nil
	}
	return fmt.Errorf("line %d: splits must be a string or a list", n.Line)
}
