// Package targeting holds the typed filter algebra and the pure translator
// from match constraints to a filter expression consumable by a vector
// index adapter.
package targeting

import "github.com/patrickwarner/sponsorstream-match/internal/apperr"

// Op is a field-predicate operator. Unknown values are rejected at
// construction rather than silently accepted.
type Op string

const (
	Equals    Op = "equals"
	AnyOf     Op = "any_of"
	AllOf     Op = "all_of"
	NotEquals Op = "not_equals"
	NotIn     Op = "not_in"
)

func (o Op) valid() bool {
	switch o {
	case Equals, AnyOf, AllOf, NotEquals, NotIn:
		return true
	default:
		return false
	}
}

// FieldFilter is a single predicate: a field name, an operator, and a value
// that is either a scalar or a list depending on the operator.
type FieldFilter struct {
	Key   string
	Op    Op
	Value any
}

// NewFieldFilter validates op before constructing a predicate, matching the
// design note that unknown operators are rejected at construction.
func NewFieldFilter(key string, op Op, value any) (FieldFilter, error) {
	if !op.valid() {
		return FieldFilter{}, apperr.New(apperr.InvalidInput, "unknown filter operator: "+string(op))
	}
	if key == "" {
		return FieldFilter{}, apperr.New(apperr.InvalidInput, "filter predicate requires a non-empty field key")
	}
	return FieldFilter{Key: key, Op: op, Value: value}, nil
}

// VectorFilter is the expression passed to the index adapter: an ordered
// must list (all predicates must hold) and an ordered must_not list (no
// predicate may hold).
type VectorFilter struct {
	Must    []FieldFilter
	MustNot []FieldFilter
}

// IsEmpty reports whether the expression carries no predicates at all,
// meaning "no filter".
func (f VectorFilter) IsEmpty() bool {
	return len(f.Must) == 0 && len(f.MustNot) == 0
}

// Values normalizes a value into a string slice for operators that compare
// against lists (any_of, all_of, not_in). A string scalar becomes a
// single-element slice; a decoded JSON list ([]any) keeps its string
// elements. Any other type yields nil.
func Values(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{t}
	default:
		return nil
	}
}
