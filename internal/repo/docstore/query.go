package docstore

import (
	"encoding/json"
	"fmt"
)

type Operator string

const (
	OpEq Operator = "$eq"
	// OpContains matches array fields holding the value.
	OpContains Operator = "$elemMatch"
)

// Predicate is one field condition of a selector.
type Predicate struct {
	Op    Operator
	Value any
}

func Eq(v any) Predicate {
	return Predicate{Op: OpEq, Value: v}
}

func Contains(v any) Predicate {
	return Predicate{Op: OpContains, Value: v}
}

func (p Predicate) MarshalJSON() ([]byte, error) {
	switch p.Op {
	case OpEq:
		return json.Marshal(map[string]any{"$eq": p.Value})
	case OpContains:
		return json.Marshal(map[string]any{"$elemMatch": map[string]any{"$eq": p.Value}})
	}
	return nil, fmt.Errorf("unsupported operator %q", p.Op)
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type SortField struct {
	Field     string
	Direction Direction
}

func (s SortField) MarshalJSON() ([]byte, error) {
	dir := s.Direction
	if dir == "" {
		dir = Asc
	}
	return json.Marshal(map[string]Direction{s.Field: dir})
}

// Query is the structured form of a selector query. Limit must already be
// clamped by the caller.
type Query struct {
	Selector map[string]Predicate `json:"selector"`
	Sort     []SortField          `json:"sort,omitempty"`
	Limit    int                  `json:"limit,omitempty"`
}

// NewQuery starts a query with an empty selector.
func NewQuery() Query {
	return Query{Selector: map[string]Predicate{}}
}

func (q Query) Where(field string, p Predicate) Query {
	sel := make(map[string]Predicate, len(q.Selector)+1)
	for k, v := range q.Selector {
		sel[k] = v
	}
	sel[field] = p
	q.Selector = sel
	return q
}

func (q Query) OrderBy(field string, dir Direction) Query {
	q.Sort = append(append([]SortField(nil), q.Sort...), SortField{Field: field, Direction: dir})
	return q
}

func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}
