// Package hierarchy provides the account tree that postings are resolved against.
package hierarchy

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/veritas/model"
)

// PathSeparator joins ancestor names in an account's full path.
const PathSeparator = "/"

// Hierarchy is the lookup contract consumed by the rule applicator and the
// validator. Implementations must be safe for concurrent reads.
type Hierarchy interface {
	Lookup(code string) (*model.Account, bool)
	LookupByName(name string) (*model.Account, bool)
}

// Tree is an immutable, validated account hierarchy.
type Tree struct {
	accounts map[string]*model.Account
	byName   map[string]*model.Account
	children map[string][]*model.Account
	order    []*model.Account
}

var _ Hierarchy = (*Tree)(nil)

// New builds a tree from accounts. Every violation is reported together: duplicate
// codes, missing parents, level gaps and parent cycles. Full paths are derived from
// ancestor names and override any path given in the input.
func New(accounts []model.Account) (*Tree, error) {
	t := &Tree{
		accounts: make(map[string]*model.Account, len(accounts)),
		byName:   make(map[string]*model.Account, len(accounts)),
		children: make(map[string][]*model.Account),
		order:    make([]*model.Account, 0, len(accounts)),
	}

	var errs []error
	for i := range accounts {
		acc := accounts[i]
		acc.Code = strings.TrimSpace(acc.Code)
		acc.Name = strings.TrimSpace(acc.Name)
		acc.ParentCode = strings.TrimSpace(acc.ParentCode)

		if acc.Code == "" {
			errs = append(errs, &Error{Message: "account code must not be empty"})
			continue
		}
		if _, dup := t.accounts[acc.Code]; dup {
			errs = append(errs, &Error{Code: acc.Code, Message: "duplicate account code"})
			continue
		}
		if acc.Name == "" {
			errs = append(errs, &Error{Code: acc.Code, Message: "account name must not be empty"})
		}
		if acc.Level < 1 {
			errs = append(errs, &Error{Code: acc.Code, Message: "level must be at least 1"})
		}

		t.accounts[acc.Code] = &acc
		t.order = append(t.order, &acc)
	}

	for _, acc := range t.order {
		if err := t.checkParent(acc); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, model.Collect(errs)
	}

	ambiguous := make(map[string]bool)
	for _, acc := range t.order {
		acc.FullPath = t.path(acc)
		if acc.ParentCode != "" {
			t.children[acc.ParentCode] = append(t.children[acc.ParentCode], acc)
		}
		if _, seen := t.byName[acc.Name]; seen {
			ambiguous[acc.Name] = true
		}
		t.byName[acc.Name] = acc
	}
	// A name shared by several accounts cannot identify one of them.
	for name := range ambiguous {
		delete(t.byName, name)
	}

	return t, nil
}

func (t *Tree) checkParent(acc *model.Account) error {
	if acc.Level == 1 {
		if acc.ParentCode != "" {
			return &Error{Code: acc.Code, Message: "level 1 account cannot have a parent"}
		}
		return nil
	}
	if acc.ParentCode == "" {
		return &Error{Code: acc.Code, Message: "account below level 1 must have a parent"}
	}
	parent, ok := t.accounts[acc.ParentCode]
	if !ok {
		return &Error{Code: acc.Code, Message: "parent " + acc.ParentCode + " does not exist"}
	}
	if parent.Level != acc.Level-1 {
		return &Error{
			Code:    acc.Code,
			Message: "level does not follow parent " + parent.Code,
		}
	}
	return nil
}

// path walks to the root. Levels strictly decrease along the walk, so it ends.
func (t *Tree) path(acc *model.Account) string {
	names := make([]string, acc.Level)
	for cur := acc; cur != nil; cur = t.accounts[cur.ParentCode] {
		names[cur.Level-1] = cur.Name
		if cur.ParentCode == "" {
			break
		}
	}
	return strings.Join(names, PathSeparator)
}

// Lookup returns the account with code.
func (t *Tree) Lookup(code string) (*model.Account, bool) {
	acc, ok := t.accounts[code]
	return acc, ok
}

// LookupByName returns the account named name. Names shared by more than one
// account do not resolve.
func (t *Tree) LookupByName(name string) (*model.Account, bool) {
	acc, ok := t.byName[name]
	return acc, ok
}

// Children returns the direct children of code in input order.
func (t *Tree) Children(code string) []*model.Account {
	return t.children[code]
}

// ByLevel returns the accounts at level, sorted by code.
func (t *Tree) ByLevel(level int) []*model.Account {
	var out []*model.Account
	for _, acc := range t.order {
		if acc.Level == level {
			out = append(out, acc)
		}
	}
	slices.SortFunc(out, func(a, b *model.Account) int { return strings.Compare(a.Code, b.Code) })
	return out
}

// All returns every account in input order.
func (t *Tree) All() []*model.Account {
	return t.order
}

// Len returns the number of accounts.
func (t *Tree) Len() int {
	return len(t.order)
}

// Resolve looks up ref as a code first and then as a name.
func Resolve(h Hierarchy, ref string) (*model.Account, bool) {
	if acc, ok := h.Lookup(ref); ok {
		return acc, true
	}
	return h.LookupByName(ref)
}
