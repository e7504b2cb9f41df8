package reforma

import (
	"fmt"
	"sort"
	"strings"
)

// Error type codes produced by the built-in rules (exported consts for IDE
// completion and stable wire-level codes). Resolvers may use their own.
const (
	TypeRequired  = "required"
	TypeMin       = "min"
	TypeMax       = "max"
	TypeMinLength = "minLength"
	TypeMaxLength = "maxLength"
	TypePattern   = "pattern"
	TypeValidate  = "validate"
)

// FieldError is a single named validation failure. A field holds at most
// one active FieldError; each validation pass overwrites it. Under
// CriteriaAll, Types additionally collects every failing rule.
type FieldError struct {
	Type    string
	Message string
	// Types maps rule type to message when CriteriaAll collected more than
	// the first failure. Nil under CriteriaFirstError.
	Types map[string]string
}

// Error implements error so a *FieldError can travel through a
// ValidateFunc return.
func (e *FieldError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Type
}

// ErrorTree maps field paths to their active error. It is the only error
// channel the engine exposes; it also implements error so submit failures
// can propagate as a value.
type ErrorTree map[string]*FieldError

// Error summarizes the first few entries in path order.
func (t ErrorTree) Error() string {
	if len(t) == 0 {
		return ""
	}
	const maxShown = 3
	keys := t.sortedPaths()
	b := &strings.Builder{}
	lim := len(keys)
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %s", t[keys[i]].Type, keys[i])
	}
	if len(keys) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(keys))
	}
	return b.String()
}

func (t ErrorTree) sortedPaths() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// clone returns an independent copy of the tree; FieldError values are
// copied so observers cannot mutate engine state.
func (t ErrorTree) clone() ErrorTree {
	if t == nil {
		return nil
	}
	out := make(ErrorTree, len(t))
	for k, v := range t {
		out[k] = v.clone()
	}
	return out
}

func (e *FieldError) clone() *FieldError {
	if e == nil {
		return nil
	}
	c := &FieldError{Type: e.Type, Message: e.Message}
	if e.Types != nil {
		c.Types = make(map[string]string, len(e.Types))
		for k, v := range e.Types {
			c.Types[k] = v
		}
	}
	return c
}
