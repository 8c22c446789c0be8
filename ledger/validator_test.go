package ledger

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/veritas/model"
	"github.com/robinvdvleuten/veritas/rules"
)

func TestValidatorAcceptsBalancedPostings(t *testing.T) {
	e := entry("JE-1", "差旅", "500.00", 2)
	app := testApplicator(t).Apply(&e, testTree(t))
	assert.NoError(t, app.Err)

	ok, errs := NewValidator(testTree(t)).Validate(&e, app.Postings)
	assert.True(t, ok)
	assert.Equal(t, 0, len(errs))
}

func TestValidatorCatchesDuplicatedAmount(t *testing.T) {
	e := entry("JE-1", "差旅", "500.00", 2)

	// Two legs each carrying the full amount double the reported total.
	postings := []model.Posting{
		{EntryID: "LE-1", AccountCode: "4100", Amount: dec("500.00"), SourceEntryID: "JE-1", RuleApplied: "R-SPLIT"},
		{EntryID: "LE-2", AccountCode: "5300", Amount: dec("500.00"), SourceEntryID: "JE-1", RuleApplied: "R-SPLIT"},
	}

	ok, errs := NewValidator(nil).Validate(&e, postings)
	assert.False(t, ok)
	assert.Equal(t, 1, len(errs))

	var be *BalanceInvariantError
	assert.True(t, errors.As(errs[0], &be))
	assert.Equal(t, "BalanceInvariantError", be.Kind())
	assert.Equal(t, "JE-1", be.GetEntryID())
	assert.Equal(t, "R-SPLIT", be.GetRuleID())
	assert.True(t, be.Difference().Equal(dec("500")))
	assert.Equal(t, "entry JE-1: postings sum to 1000 but entry amount is 500 (difference 500 exceeds tolerance 0.01)", be.Error())
}

func TestValidatorTolerance(t *testing.T) {
	e := entry("JE-1", "工资", "100.00", 1)
	postings := []model.Posting{{EntryID: "LE-1", AccountCode: "4100", Amount: dec("100.01"), SourceEntryID: "JE-1"}}

	ok, _ := NewValidator(nil).Validate(&e, postings)
	assert.True(t, ok)

	postings[0].Amount = dec("100.02")
	ok, _ = NewValidator(nil).Validate(&e, postings)
	assert.False(t, ok)

	ok, _ = NewValidator(nil, WithTolerance(dec("0.05"))).Validate(&e, postings)
	assert.True(t, ok)
}

func TestValidatorBackReferenceAndAccounts(t *testing.T) {
	e := entry("JE-1", "工资", "100.00", 1)
	postings := []model.Posting{
		{EntryID: "LE-1", AccountCode: "9999", Amount: dec("100.00"), SourceEntryID: "JE-2", RuleApplied: "R-X"},
	}

	ok, errs := NewValidator(testTree(t)).Validate(&e, postings)
	assert.False(t, ok)
	assert.Equal(t, 2, len(errs))

	var br *BackReferenceError
	assert.True(t, errors.As(errs[0], &br))
	assert.Equal(t, `entry JE-1: posting LE-1 references source entry "JE-2"`, br.Error())

	var ue *rules.UnresolvedAccountError
	assert.True(t, errors.As(errs[1], &ue))
	assert.Equal(t, "9999", ue.GetAccountCode())
	assert.Equal(t, "R-X", ue.GetRuleID())
}
