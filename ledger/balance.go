package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/veritas/hierarchy"
	"github.com/robinvdvleuten/veritas/model"
)

// Period is a calendar quarter. The zero Period stands for every period.
type Period struct {
	Year    int
	Quarter int
}

// IsZero reports whether p selects every period.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Quarter == 0
}

func (p Period) contains(a *model.QuarterlyAggregate) bool {
	return p.IsZero() || (a.Year == p.Year && a.Quarter == p.Quarter)
}

// Periods returns the distinct periods of aggregates in chronological order.
func Periods(aggregates []model.QuarterlyAggregate) []Period {
	seen := make(map[Period]bool)
	var out []Period
	for i := range aggregates {
		p := Period{Year: aggregates[i].Year, Quarter: aggregates[i].Quarter}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Period) int {
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		return a.Quarter - b.Quarter
	})
	return out
}

// BalanceTree is the account hierarchy with CR and DR totals rolled up from
// each account into all of its ancestors, so a parent's totals always equal its
// own postings plus the sum of its children.
type BalanceTree struct {
	// Roots are the level 1 accounts, sorted by code.
	Roots []*BalanceNode

	// Period is the quarter the totals cover.
	Period Period
}

// BalanceNode is one account of a BalanceTree.
type BalanceNode struct {
	Account *model.Account

	// Depth is 0 for roots.
	Depth int

	// CRAmount, DRAmount and EntryCount include every descendant.
	CRAmount   decimal.Decimal
	DRAmount   decimal.Decimal
	EntryCount int

	Children []*BalanceNode
}

// Net returns CR minus DR.
func (n *BalanceNode) Net() decimal.Decimal {
	return n.CRAmount.Sub(n.DRAmount)
}

// IsZero reports whether nothing was posted to the node or its descendants.
func (n *BalanceNode) IsZero() bool {
	return n.EntryCount == 0
}

// NewBalanceTree rolls aggregates of period up through t. Aggregates of
// accounts that t does not contain are ignored.
func NewBalanceTree(aggregates []model.QuarterlyAggregate, t *hierarchy.Tree, period Period) *BalanceTree {
	bt := &BalanceTree{Period: period}
	nodes := make(map[string]*BalanceNode, t.Len())

	var build func(acc *model.Account, depth int) *BalanceNode
	build = func(acc *model.Account, depth int) *BalanceNode {
		node := &BalanceNode{Account: acc, Depth: depth}
		nodes[acc.Code] = node
		for _, child := range sortedAccounts(t.Children(acc.Code)) {
			node.Children = append(node.Children, build(child, depth+1))
		}
		return node
	}

	var roots []*model.Account
	for _, acc := range t.All() {
		if acc.IsRoot() {
			roots = append(roots, acc)
		}
	}
	for _, acc := range sortedAccounts(roots) {
		bt.Roots = append(bt.Roots, build(acc, 0))
	}

	for i := range aggregates {
		a := &aggregates[i]
		node, ok := nodes[a.AccountCode]
		if !ok || !period.contains(a) {
			continue
		}
		node.CRAmount = node.CRAmount.Add(a.CRAmount)
		node.DRAmount = node.DRAmount.Add(a.DRAmount)
		node.EntryCount += a.EntryCount
	}

	for _, root := range bt.Roots {
		rollUp(root)
	}
	return bt
}

// rollUp adds the totals of every descendant into node, bottom-up.
func rollUp(node *BalanceNode) {
	for _, child := range node.Children {
		rollUp(child)
		node.CRAmount = node.CRAmount.Add(child.CRAmount)
		node.DRAmount = node.DRAmount.Add(child.DRAmount)
		node.EntryCount += child.EntryCount
	}
}

// Walk visits the nodes depth-first, parents before their children. Returning
// false from fn skips the node's children.
func (bt *BalanceTree) Walk(fn func(*BalanceNode) bool) {
	var walk func(nodes []*BalanceNode)
	walk = func(nodes []*BalanceNode) {
		for _, n := range nodes {
			if fn(n) {
				walk(n.Children)
			}
		}
	}
	walk(bt.Roots)
}

// Lookup returns the node of an account code.
func (bt *BalanceTree) Lookup(code string) (*BalanceNode, bool) {
	var found *BalanceNode
	bt.Walk(func(n *BalanceNode) bool {
		if found != nil {
			return false
		}
		if n.Account.Code == code {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

func sortedAccounts(accs []*model.Account) []*model.Account {
	out := append([]*model.Account(nil), accs...)
	slices.SortFunc(out, func(a, b *model.Account) int {
		return strings.Compare(a.Code, b.Code)
	})
	return out
}
