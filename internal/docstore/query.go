package docstore

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Op is a constraint operator.
type Op string

const (
	// OpEqual matches documents whose field equals the value.
	OpEqual Op = "=="
	// OpArrayContains matches documents whose array field contains the value.
	OpArrayContains Op = "array-contains"
)

// Constraint is a single field predicate. Constraint order is significant:
// two queries with the same constraints in a different order are distinct.
type Constraint struct {
	Field string `json:"field"`
	Op    Op     `json:"op"`
	Value any    `json:"value"`
}

// Query describes a filtered read over one collection.
type Query struct {
	Collection  string       `json:"collection"`
	Constraints []Constraint `json:"constraints,omitempty"`
	OrderField  string       `json:"order_field,omitempty"`
	Desc        bool         `json:"desc,omitempty"`
	Limit       int          `json:"limit,omitempty"`
}

// C starts a query over a collection.
func C(collection string) *Query {
	return &Query{Collection: collection}
}

// Where appends a constraint.
func (q *Query) Where(field string, op Op, value any) *Query {
	q.Constraints = append(q.Constraints, Constraint{Field: field, Op: op, Value: value})
	return q
}

// OrderBy sets the sort field. Documents sort by creation time when unset.
func (q *Query) OrderBy(field string, desc bool) *Query {
	q.OrderField = field
	q.Desc = desc
	return q
}

// WithLimit caps the result size. Zero means no limit.
func (q *Query) WithLimit(n int) *Query {
	q.Limit = n
	return q
}

// CacheKey returns a deterministic string identity for the query, so that
// structurally identical queries share a cache slot. Struct fields marshal in
// declaration order, which keeps the serialization stable.
func (q *Query) CacheKey() string {
	b, err := sonic.Marshal(q)
	if err != nil {
		// Constraint values are plain JSON scalars in practice; a marshal
		// failure would only come from an exotic caller-supplied value.
		return fmt.Sprintf("%s?unkeyed:%v", q.Collection, err)
	}
	return q.Collection + "?" + string(b)
}
