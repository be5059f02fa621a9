package domain

// FilterAll is the sentinel category meaning "no category restriction".
const FilterAll = "All"

// FetchParams carries the list intent coming from the client: a category
// filter, a free-text search term and a result cap. Zero values mean
// "not set".
type FetchParams struct {
	Filter string
	Query  string
	Limit  int
}

type PredicateOp string

const (
	OpOrderDesc PredicateOp = "order_desc"
	OpEqual     PredicateOp = "equal"
	OpSearch    PredicateOp = "search"
	OpLimit     PredicateOp = "limit"
)

// Predicate is a single clause sent to the document store. Stores apply
// predicates in the order given.
type Predicate struct {
	Op     PredicateOp
	Field  string   // OpOrderDesc, OpEqual
	Fields []string // OpSearch: term matches if found in any of these
	Value  string   // OpEqual, OpSearch
	Count  int      // OpLimit
}

func OrderDesc(field string) Predicate { return Predicate{Op: OpOrderDesc, Field: field} }

func Equal(field, value string) Predicate {
	return Predicate{Op: OpEqual, Field: field, Value: value}
}

// SearchAny matches documents where value appears in any of the fields
// (one OR clause, not independent AND clauses).
func SearchAny(fields []string, value string) Predicate {
	return Predicate{Op: OpSearch, Fields: fields, Value: value}
}

func LimitTo(n int) Predicate { return Predicate{Op: OpLimit, Count: n} }
