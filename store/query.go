package store

import (
	"time"
)

// Document exposes named field values for query evaluation. Stored record
// types implement Field explicitly; no reflection is involved.
type Document interface {
	Field(name string) (any, bool)
}

// Expr is a query expression evaluated against a Document.
type Expr interface {
	Matches(doc Document) bool
}

// cond is a single field comparison.
type cond struct {
	field string
	op    string
	value any
	set   []any
}

const (
	opEq  = "eq"
	opNe  = "ne"
	opGte = "gte"
	opLte = "lte"
	opIn  = "in"
)

// Eq matches documents whose field equals value.
func Eq(field string, value any) Expr { return &cond{field: field, op: opEq, value: value} }

// Ne matches documents whose field does not equal value.
func Ne(field string, value any) Expr { return &cond{field: field, op: opNe, value: value} }

// Gte matches documents whose field is greater than or equal to value.
func Gte(field string, value any) Expr { return &cond{field: field, op: opGte, value: value} }

// Lte matches documents whose field is less than or equal to value.
func Lte(field string, value any) Expr { return &cond{field: field, op: opLte, value: value} }

// In matches documents whose field equals any of the given values.
func In(field string, values ...any) Expr { return &cond{field: field, op: opIn, set: values} }

func (c *cond) Matches(doc Document) bool {
	got, ok := doc.Field(c.field)
	if !ok {
		return false
	}
	switch c.op {
	case opEq:
		return equal(got, c.value)
	case opNe:
		return !equal(got, c.value)
	case opGte:
		cmp, ok := compare(got, c.value)
		return ok && cmp >= 0
	case opLte:
		cmp, ok := compare(got, c.value)
		return ok && cmp <= 0
	case opIn:
		for _, v := range c.set {
			if equal(got, v) {
				return true
			}
		}
		return false
	}
	return false
}

// andExpr matches when every child matches.
type andExpr struct{ children []Expr }

// And combines expressions conjunctively. And() with no children matches all.
func And(exprs ...Expr) Expr { return &andExpr{children: exprs} }

func (a *andExpr) Matches(doc Document) bool {
	for _, e := range a.children {
		if !e.Matches(doc) {
			return false
		}
	}
	return true
}

// orExpr matches when any child matches.
type orExpr struct{ children []Expr }

// Or combines expressions disjunctively. Or() with no children matches none.
func Or(exprs ...Expr) Expr { return &orExpr{children: exprs} }

func (o *orExpr) Matches(doc Document) bool {
	for _, e := range o.children {
		if e.Matches(doc) {
			return true
		}
	}
	return false
}

// equal compares two field values, normalizing numeric widths and times.
func equal(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	return a == b
}

// compare returns -1, 0, or 1 for ordered values. The second return is
// false when the values are not comparable.
func compare(a, b any) (int, bool) {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		default:
			return 0, true
		}
	}

	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}

	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		default:
			return 0, true
		}
	}

	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
