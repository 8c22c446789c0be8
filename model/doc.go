// Package model defines the records that flow through the transformation engine:
// journal entries and mapping rules going in, ledger postings and quarterly
// aggregates coming out, and the accounts that postings are attached to.
//
// All monetary values are decimal.Decimal. Records are treated as immutable once
// constructed; the engine never mutates an entry or a rule after load.
package model
