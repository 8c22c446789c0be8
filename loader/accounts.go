package loader

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/veritas/hierarchy"
	"github.com/robinvdvleuten/veritas/model"
)

var accountColumns = map[string][]string{
	"code":        {"code", "account_code", "编码", "科目代码"},
	"name":        {"name", "account_name", "名称", "科目名称"},
	"level":       {"level", "级别", "层级"},
	"parent_code": {"parent_code", "parent", "上级编码", "上级科目"},
}

// LoadAccounts reads account records. Unlike journals and rules, any unreadable
// row fails the load: a hierarchy with holes would mis-resolve rules.
func (l *Loader) LoadAccounts(ctx context.Context, filename string) ([]model.Account, error) {
	f, err := detectFormat(filename)
	if err != nil {
		return nil, err
	}

	var accounts []model.Account
	switch f {
	case formatSpreadsheet:
		t, err := readSheet(filename, l.Sheet)
		if err != nil {
			return nil, err
		}
		if accounts, err = readAccounts(ctx, t); err != nil {
			return nil, err
		}
	case formatYAML:
		if accounts, err = readAccountsYAML(filename); err != nil {
			return nil, err
		}
	}

	l.logger.Debug().Str("file", filename).Int("accounts", len(accounts)).Msg("accounts loaded")
	return accounts, nil
}

// LoadHierarchy reads accounts and builds the validated tree.
func (l *Loader) LoadHierarchy(ctx context.Context, filename string) (*hierarchy.Tree, error) {
	accounts, err := l.LoadAccounts(ctx, filename)
	if err != nil {
		return nil, err
	}
	tree, err := hierarchy.New(accounts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return tree, nil
}

func readAccounts(ctx context.Context, t *table) ([]model.Account, error) {
	if len(t.header) == 0 {
		return nil, nil
	}

	cols := make(map[string]int, len(accountColumns))
	for name, aliases := range accountColumns {
		cols[name] = t.column(aliases)
	}
	var missing []string
	for _, name := range []string{"code", "name", "level"} {
		if cols[name] < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{File: t.file, Missing: missing, Available: t.available()}
	}

	var (
		accounts []model.Account
		errs     []error
	)
	for i, row := range t.rows {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		if blank(row) {
			continue
		}
		acc := model.Account{
			Code:       cell(row, cols["code"]),
			Name:       cell(row, cols["name"]),
			ParentCode: cell(row, cols["parent_code"]),
		}
		level, err := parseInt(cell(row, cols["level"]))
		if err != nil {
			errs = append(errs, &RowError{File: t.file, Row: i + 2, Column: t.header[cols["level"]], Message: err.Error()})
			continue
		}
		acc.Level = level
		accounts = append(accounts, acc)
	}
	if err := model.Collect(errs); err != nil {
		return nil, err
	}
	return accounts, nil
}

type accountItem struct {
	Code       scalar `yaml:"code"`
	Name       scalar `yaml:"name"`
	Level      scalar `yaml:"level"`
	ParentCode scalar `yaml:"parent_code"`
}

type accountsDocument struct {
	Accounts []accountItem `yaml:"accounts"`
}

func readAccountsYAML(filename string) ([]model.Account, error) {
	var items []accountItem
	if err := decodeYAML(filename, &items, func(doc *yaml.Node) error {
		var d accountsDocument
		err := doc.Decode(&d)
		items = d.Accounts
		return err
	}); err != nil {
		return nil, err
	}

	accounts := make([]model.Account, 0, len(items))
	var errs []error
	for i, item := range items {
		level, err := parseInt(string(item.Level))
		if err != nil {
			errs = append(errs, &RowError{File: filename, Row: i + 1, Column: "level", Message: err.Error()})
			continue
		}
		accounts = append(accounts, model.Account{
			Code:       string(item.Code),
			Name:       string(item.Name),
			Level:      level,
			ParentCode: string(item.ParentCode),
		})
	}
	if err := model.Collect(errs); err != nil {
		return nil, err
	}
	return accounts, nil
}
