package condition

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/veritas/model"
)

// ValueKind is the type of a field or literal.
type ValueKind uint8

const (
	KindString ValueKind = iota + 1
	KindNumber
	KindDate
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	}
	return "unknown"
}

// Field is a journal entry field that conditions may reference.
type Field uint8

const (
	FieldEntryID Field = iota + 1
	FieldYear
	FieldDescription
	FieldOldType
	FieldAmount
	FieldDate
	FieldQuarter
	FieldNotes
)

var fieldNames = map[Field]string{
	FieldEntryID:     "entry_id",
	FieldYear:        "year",
	FieldDescription: "description",
	FieldOldType:     "old_type",
	FieldAmount:      "amount",
	FieldDate:        "date",
	FieldQuarter:     "quarter",
	FieldNotes:       "notes",
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, len(fieldNames))
	for f, name := range fieldNames {
		m[name] = f
	}
	return m
}()

// LookupField resolves a field reference by name.
func LookupField(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// FieldNames returns the names of all referenceable fields, sorted.
func FieldNames() []string {
	names := make([]string, 0, len(fieldNames))
	for _, name := range fieldNames {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (f Field) String() string {
	return fieldNames[f]
}

// Kind returns the value type of the field.
func (f Field) Kind() ValueKind {
	switch f {
	case FieldYear, FieldAmount, FieldQuarter:
		return KindNumber
	case FieldDate:
		return KindDate
	}
	return KindString
}

// Value is a typed literal or a resolved field value.
type Value struct {
	Kind ValueKind
	Str  string
	Num  decimal.Decimal
	Date time.Time
}

func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return quoteString(v.Str)
	case KindNumber:
		return v.Num.String()
	case KindDate:
		return v.Date.Format("2006-01-02")
	}
	return "<invalid>"
}

// compare returns -1, 0 or 1. Both values must have the same kind.
func (v Value) compare(o Value) int {
	switch v.Kind {
	case KindNumber:
		return v.Num.Cmp(o.Num)
	case KindDate:
		return v.Date.Compare(o.Date)
	default:
		switch {
		case v.Str < o.Str:
			return -1
		case v.Str > o.Str:
			return 1
		}
		return 0
	}
}

// resolve reads field f from entry. A missing quarter is derived from the date and
// missing notes read as the empty string.
func resolve(f Field, e *model.JournalEntry) Value {
	switch f {
	case FieldEntryID:
		return Value{Kind: KindString, Str: e.EntryID}
	case FieldYear:
		return Value{Kind: KindNumber, Num: decimal.NewFromInt(int64(e.Year))}
	case FieldDescription:
		return Value{Kind: KindString, Str: e.Description}
	case FieldOldType:
		return Value{Kind: KindString, Str: e.OldType}
	case FieldAmount:
		return Value{Kind: KindNumber, Num: e.Amount}
	case FieldDate:
		y, m, d := e.Date.Date()
		return Value{Kind: KindDate, Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
	case FieldQuarter:
		return Value{Kind: KindNumber, Num: decimal.NewFromInt(int64(e.EffectiveQuarter()))}
	case FieldNotes:
		return Value{Kind: KindString, Str: e.Notes}
	}
	return Value{}
}
