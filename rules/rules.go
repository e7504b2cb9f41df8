// Package rules provides reusable cross-field validators composed on top of
// the form's ValidateFunc hook.
package rules

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"github.com/reforma-go/reforma"
	"github.com/reforma-go/reforma/internal/paths"
)

// Op defines simple comparison operators for If(...).Then(...)
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Conditional composes conditional execution of validators.
type Conditional struct {
	path string
	op   Op
	want any
	all  []Conditional // composite AND
	any  []Conditional // composite OR
}

// If builds a conditional that evaluates a form path against a value using
// an operator.
func If(path string, op Op, want any) Conditional {
	return Conditional{path: path, op: op, want: want}
}

// IfAll builds a conditional that requires all conditions to hold.
func IfAll(conds ...Conditional) Conditional { return Conditional{all: conds} }

// IfAny builds a conditional that requires any condition to hold.
func IfAny(conds ...Conditional) Conditional { return Conditional{any: conds} }

// And combines the receiver with additional conditions using logical AND.
func (c Conditional) And(others ...Conditional) Conditional {
	return IfAll(append([]Conditional{c}, others...)...)
}

// Or combines the receiver with additional conditions using logical OR.
func (c Conditional) Or(others ...Conditional) Conditional {
	return IfAny(append([]Conditional{c}, others...)...)
}

// Then attaches validators to run when the condition is satisfied. When it
// is not, the composed validator passes.
func (c Conditional) Then(fns ...reforma.ValidateFunc) reforma.ValidateFunc {
	return func(ctx context.Context, value any, values map[string]any) error {
		if !evalConditional(values, c) {
			return nil
		}
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if err := fn(ctx, value, values); err != nil {
				return err
			}
		}
		return nil
	}
}

func evalConditional(values map[string]any, c Conditional) bool {
	if len(c.all) > 0 {
		for _, sub := range c.all {
			if !evalConditional(values, sub) {
				return false
			}
		}
		return true
	}
	if len(c.any) > 0 {
		for _, sub := range c.any {
			if evalConditional(values, sub) {
				return true
			}
		}
		return false
	}
	got, ok := paths.Get(values, c.path)
	if !ok {
		return false
	}
	return compare(got, c.op, c.want)
}

// NonEmpty fails when the field value is nil, an empty string, or an empty
// collection. Useful as the consequent of a conditional.
func NonEmpty(message string) reforma.ValidateFunc {
	return func(_ context.Context, value any, _ map[string]any) error {
		if isEmpty(value) {
			return &reforma.FieldError{Type: reforma.TypeValidate, Message: message}
		}
		return nil
	}
}

// Equals fails unless the field value equals the value at otherPath.
// The classic use is password confirmation.
func Equals(otherPath, message string) reforma.ValidateFunc {
	return func(_ context.Context, value any, values map[string]any) error {
		other, _ := paths.Get(values, otherPath)
		if !compare(value, Eq, other) {
			return &reforma.FieldError{Type: reforma.TypeValidate, Message: message}
		}
		return nil
	}
}

// AtLeastOne ensures the field holds a collection with at least 1 element.
func AtLeastOne() reforma.ValidateFunc {
	return func(_ context.Context, value any, _ map[string]any) error {
		sl, ok := value.([]any)
		if !ok {
			// Not a collection; stay silent rather than compound a type
			// problem with a count problem.
			return nil
		}
		if len(sl) == 0 {
			return &reforma.FieldError{Type: reforma.TypeValidate, Message: "at least 1 item is required"}
		}
		return nil
	}
}

// UniqueBy ensures elements of the collection at the field have unique
// values under key, a relative path inside each element ("" compares the
// elements themselves). Prefer a stable, comparable key type such as
// string; mixed-type keys may stringify to identical values.
func UniqueBy(key string) reforma.ValidateFunc {
	return func(_ context.Context, value any, _ map[string]any) error {
		sl, ok := value.([]any)
		if !ok {
			return nil
		}
		seen := map[string]int{}
		for i, el := range sl {
			kv := el
			if key != "" {
				m, ok := el.(map[string]any)
				if !ok {
					continue
				}
				kv, ok = paths.Get(m, key)
				if !ok {
					continue
				}
			}
			k := fmt.Sprint(kv)
			if prev, dup := seen[k]; dup {
				return &reforma.FieldError{
					Type:    reforma.TypeValidate,
					Message: fmt.Sprintf("duplicate value %q at indexes %d and %d", k, prev, i),
				}
			}
			seen[k] = i
		}
		return nil
	}
}

func compare(got any, op Op, want any) bool {
	gf, gok := toFloat(got)
	wf, wok := toFloat(want)
	if gok && wok {
		switch op {
		case Eq:
			return gf == wf
		case Ne:
			return gf != wf
		case Lt:
			return gf < wf
		case Le:
			return gf <= wf
		case Gt:
			return gf > wf
		case Ge:
			return gf >= wf
		}
	}
	switch op {
	case Eq:
		return reflect.DeepEqual(got, want)
	case Ne:
		return !reflect.DeepEqual(got, want)
	default:
		// Ordering is only defined for numbers.
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	default:
		return false
	}
}
