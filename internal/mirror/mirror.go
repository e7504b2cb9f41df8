// Package mirror implements the structural diffing primitives behind dirty
// tracking: a deep equality over JSON-shaped value trees and a sparse
// boolean-mirror diff.
//
// Three deliberate deviations from plain reflect.DeepEqual:
//   - a nil value and an absent map key are equivalent,
//   - numbers compare numerically across Go types, because value trees that
//     round-trip through JSON land as float64 while caller-supplied
//     defaults may be int, and
//   - a time.Time compares equal to a string parseable as the same instant,
//     because JSON round-trips degrade time defaults to RFC 3339 strings.
package mirror

import (
	"reflect"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// DeepEqual reports structural equality of two JSON-shaped values.
func DeepEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if am, ok := a.(map[string]any); ok {
		bm, ok := b.(map[string]any)
		if !ok {
			return false
		}
		for k, av := range am {
			if !DeepEqual(av, bm[k]) {
				return false
			}
		}
		for k, bv := range bm {
			if _, seen := am[k]; !seen && !DeepEqual(nil, bv) {
				return false
			}
		}
		return true
	}
	if as, ok := a.([]any); ok {
		bs, ok := b.([]any)
		if !ok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !DeepEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	if af, ok := toFloat(a); ok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	if at, ok := a.(time.Time); ok {
		bt, bok := asTime(b)
		return bok && at.Equal(bt)
	}
	if bt, ok := b.(time.Time); ok {
		at, aok := asTime(a)
		return aok && at.Equal(bt)
	}
	if a == nil || b == nil {
		// nil vs empty container: absent and empty are distinct values.
		return false
	}
	if reflect.TypeOf(a).Comparable() && reflect.TypeOf(b).Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// asTime accepts a time.Time as-is and parses strings in the two formats
// date coercion emits. Default trees round-trip through JSON, so a time.Time
// default arrives here as its RFC 3339 string while the live value may be a
// real time.Time; the two must still compare equal.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse("2006-01-02", t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
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
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := strconv.ParseFloat(n.String(), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Diff returns the sparse boolean mirror of where value differs from def:
// true at differing leaves, nested map[string]any / []any at differing
// containers, nil where the subtrees are equal. Absence in the result means
// "not dirty".
func Diff(value, def any) any {
	if DeepEqual(value, def) {
		return nil
	}
	switch v := value.(type) {
	case map[string]any:
		dm, ok := def.(map[string]any)
		if !ok {
			return MarkAll(v)
		}
		out := map[string]any{}
		for k, vv := range v {
			if d := Diff(vv, dm[k]); d != nil {
				out[k] = d
			}
		}
		for k, dv := range dm {
			if _, seen := v[k]; !seen {
				if d := Diff(nil, dv); d != nil {
					out[k] = d
				}
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []any:
		ds, ok := def.([]any)
		if !ok {
			return MarkAll(v)
		}
		n := len(v)
		if len(ds) > n {
			n = len(ds)
		}
		out := make([]any, n)
		dirty := false
		for i := 0; i < n; i++ {
			var vv, dv any
			if i < len(v) {
				vv = v[i]
			}
			if i < len(ds) {
				dv = ds[i]
			}
			if d := Diff(vv, dv); d != nil {
				out[i] = d
				dirty = true
			}
		}
		if !dirty {
			return nil
		}
		return out
	default:
		return true
	}
}

// MarkAll mirrors the shape of v with every leaf marked true. Used when a
// whole subtree appeared where the default had none (or a different kind).
func MarkAll(v any) any {
	switch c := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, vv := range c {
			if m := MarkAll(vv); m != nil {
				out[k] = m
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []any:
		out := make([]any, len(c))
		any_ := false
		for i, vv := range c {
			if m := MarkAll(vv); m != nil {
				out[i] = m
				any_ = true
			}
		}
		if !any_ {
			return nil
		}
		return out
	case nil:
		return nil
	default:
		return true
	}
}

// Empty reports whether a mirror subtree carries no true leaf.
func Empty(m any) bool {
	switch c := m.(type) {
	case nil:
		return true
	case map[string]any:
		for _, v := range c {
			if !Empty(v) {
				return false
			}
		}
		return true
	case []any:
		for _, v := range c {
			if !Empty(v) {
				return false
			}
		}
		return true
	case bool:
		return !c
	default:
		return false
	}
}
