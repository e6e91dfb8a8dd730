package domain

import "fmt"

// FilterOp is a comparison operator in a filter condition.
type FilterOp string

// Supported operators.
const (
	// FilterOpEq matches documents whose field equals the single value.
	FilterOpEq FilterOp = "eq"

	// FilterOpIn matches documents whose field equals any of the values.
	FilterOpIn FilterOp = "in"
)

// IsValid returns true if the operator is recognised.
func (o FilterOp) IsValid() bool {
	switch o {
	case FilterOpEq, FilterOpIn:
		return true
	default:
		return false
	}
}

// FilterCondition is one field/operator/values triple.
type FilterCondition struct {
	// Field is the metadata field name (e.g., "project_id").
	Field string `json:"field"`

	// Op is the comparison operator.
	Op FilterOp `json:"op"`

	// Values are the comparison values. Exactly one for eq, one or
	// more for in.
	Values []string `json:"values"`
}

// Filter is a structured retrieval predicate. Conditions are ANDed.
//
// The predicate is passed opaquely to the vector store client and is
// never assembled by splicing values into a query string. Membership
// filters (e.g., a project-id list) must use FilterOpIn.
type Filter struct {
	// Conditions are the predicate terms. Empty means no filtering.
	Conditions []FilterCondition `json:"conditions,omitempty"`
}

// IsEmpty returns true when the filter matches everything.
func (f Filter) IsEmpty() bool {
	return len(f.Conditions) == 0
}

// Validate rejects malformed predicates before any retrieval happens.
func (f Filter) Validate() error {
	for i, c := range f.Conditions {
		if c.Field == "" {
			return fmt.Errorf("%w: condition %d has no field", ErrInvalidFilter, i)
		}
		if !c.Op.IsValid() {
			return fmt.Errorf("%w: condition %d has unknown operator %q", ErrInvalidFilter, i, string(c.Op))
		}
		if len(c.Values) == 0 {
			return fmt.Errorf("%w: condition %d has no values", ErrInvalidFilter, i)
		}
		if c.Op == FilterOpEq && len(c.Values) != 1 {
			return fmt.Errorf("%w: condition %d uses eq with %d values", ErrInvalidFilter, i, len(c.Values))
		}
		for j, v := range c.Values {
			if v == "" {
				return fmt.Errorf("%w: condition %d value %d is empty", ErrInvalidFilter, i, j)
			}
		}
	}
	return nil
}
