package reforma

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/reforma-go/reforma/internal/paths"
)

// validatePass carries per-pass behavior flags.
type validatePass struct {
	// delay routes produced errors through the DelayError timer.
	delay bool
	// focus requests focusing the first invalid field on failure.
	focus bool
}

// passKey identifies a validation target set for generation-token
// bookkeeping. The whole form shares one key.
func passKey(names []string) string {
	if len(names) == 0 {
		return "*"
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

// targetsLocked resolves the requested names to registered field paths, in
// registration order. A requested name matches itself and every registered
// descendant. Disabled fields are excluded. Callers hold f.mu.
func (f *Form) targetsLocked(names []string) []string {
	var out []string
	for _, field := range f.order {
		node := f.fields[field]
		if node == nil || !node.mounted || node.opts.Disabled {
			continue
		}
		if len(names) == 0 {
			out = append(out, field)
			continue
		}
		for _, n := range names {
			if paths.HasPrefix(field, n) {
				out = append(out, field)
				break
			}
		}
	}
	return out
}

func underAny(path string, targets []string) bool {
	for _, t := range targets {
		if paths.HasPrefix(path, t) {
			return true
		}
	}
	return false
}

// Trigger validates the named fields, or the whole form when no name is
// given. It reports whether the targeted set is fully valid. The returned
// error is a resolver failure, never a validation verdict.
func (f *Form) Trigger(ctx context.Context, names ...string) (bool, error) {
	ok, _, err := f.validate(ctx, names, validatePass{})
	return ok, err
}

// TriggerOptions configures an explicit validation run.
type TriggerOptions struct {
	// ShouldFocus focuses the first invalid field on failure.
	ShouldFocus bool
}

// TriggerOpts is Trigger with options.
func (f *Form) TriggerOpts(ctx context.Context, opt TriggerOptions, names ...string) (bool, error) {
	ok, _, err := f.validate(ctx, names, validatePass{focus: opt.ShouldFocus})
	return ok, err
}

// validateNames is the internal entry for mode-driven passes.
func (f *Form) validateNames(ctx context.Context, names []string, pass validatePass) (bool, error) {
	ok, _, err := f.validate(ctx, names, pass)
	return ok, err
}

// validate runs one validation pass. The form lock is released while the
// resolver or custom validate funcs run; commit is gated on the pass's
// generation token so only the most recent pass for a target set wins.
// Resolver-substituted values are returned for the submit flow.
func (f *Form) validate(ctx context.Context, names []string, pass validatePass) (bool, map[string]any, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return true, nil, nil
	}
	f.flushUnmountedLocked()
	key := passKey(names)
	f.generation[key]++
	token := f.generation[key]
	f.inFlight++
	f.state.isValidating = true
	d0 := f.stateDeltaLocked(bitIsValidating)
	targets := f.targetsLocked(names)
	fieldOpts := make(map[string]RegisterOpts, len(targets))
	for _, t := range targets {
		fieldOpts[t] = f.fields[t].opts
	}
	values := cloneTree(f.values)
	resolver := f.opts.Resolver
	criteria := f.opts.CriteriaMode
	resolverCtx := f.opts.ResolverContext
	f.mu.Unlock()
	run([]func(){d0})

	// Suspension point: everything below runs without the lock.
	result := ErrorTree{}
	var resolvedValues map[string]any
	var rerr error
	if resolver != nil {
		rc := ResolverContext{
			Fields:       fieldOpts,
			Names:        targets,
			CriteriaMode: criteria,
			Context:      resolverCtx,
		}
		res, err := resolver(ctx, values, rc)
		if err != nil {
			rerr = err
		} else {
			resolvedValues = res.Values
			for k, e := range res.Errors {
				if underAny(k, targets) {
					result[k] = e.clone()
				}
			}
		}
	} else {
		for _, t := range targets {
			v, _ := paths.Get(values, t)
			if fe := evalRules(ctx, v, values, fieldOpts[t], criteria); fe != nil {
				result[t] = fe
			}
		}
	}

	f.mu.Lock()
	f.inFlight--
	if f.inFlight == 0 {
		f.state.isValidating = false
	}
	if f.closed {
		f.mu.Unlock()
		return len(result) == 0 && rerr == nil, resolvedValues, rerr
	}
	if rerr != nil || f.generation[key] != token {
		// Resolver failure or a newer pass for this target set started:
		// discard the result, only the isValidating transition publishes.
		d := f.stateDeltaLocked(bitIsValidating)
		f.mu.Unlock()
		run([]func(){d})
		return len(result) == 0 && rerr == nil, resolvedValues, rerr
	}

	for k := range f.errors {
		if underAny(k, targets) {
			if _, keep := result[k]; !keep {
				f.cancelDelayedLocked(k)
				delete(f.errors, k)
			}
		}
	}
	// Pending delayed errors for now-valid targets must never surface.
	for k := range f.delayed {
		if underAny(k, targets) {
			if _, keep := result[k]; !keep {
				f.cancelDelayedLocked(k)
			}
		}
	}
	for k, e := range result {
		if pass.delay && f.opts.DelayError > 0 {
			f.scheduleDelayedLocked(k, e)
		} else {
			f.cancelDelayedLocked(k)
			f.errors[k] = e
		}
	}
	f.state.isValid = len(f.errors) == 0 && len(f.delayed) == 0
	focusPath := ""
	if pass.focus && len(result) > 0 {
		focusPath = f.firstErrorLocked(targets, result)
		f.names.focus = focusPath
	}
	d := f.stateDeltaLocked(bitIsValidating | bitErrors | bitIsValid)
	f.mu.Unlock()
	run([]func(){d})
	if focusPath != "" {
		f.requestFocus(focusPath)
	}
	return len(result) == 0, resolvedValues, nil
}

// firstErrorLocked returns the first errored path in registration order.
func (f *Form) firstErrorLocked(targets []string, errs ErrorTree) string {
	for _, p := range targets {
		if _, ok := errs[p]; ok {
			return p
		}
		for k := range errs {
			if paths.HasPrefix(k, p) {
				return p
			}
		}
	}
	return ""
}

// scheduleDelayedLocked arms (or re-arms) the cancellable error timer for
// path. The commit is a no-op if a newer pass replaced or cleared the
// pending entry, or the form was closed, before the delay elapsed.
func (f *Form) scheduleDelayedLocked(path string, e *FieldError) {
	f.cancelDelayedLocked(path)
	de := &delayedError{err: e}
	de.timer = time.AfterFunc(f.opts.DelayError, func() {
		f.mu.Lock()
		if f.closed || f.delayed[path] != de {
			f.mu.Unlock()
			return
		}
		delete(f.delayed, path)
		f.errors[path] = de.err
		f.state.isValid = false
		d := f.stateDeltaLocked(bitErrors | bitIsValid)
		f.mu.Unlock()
		run([]func(){d})
	})
	f.delayed[path] = de
}

// ---- native rule evaluation ----

// evalRules runs the built-in rules in their fixed order (required ->
// min/max -> minLength/maxLength -> pattern -> custom validate) against one
// value. Empty values only fail Required; the remaining rules skip them.
func evalRules(ctx context.Context, value any, values map[string]any, o RegisterOpts, criteria CriteriaMode) *FieldError {
	var fe *FieldError
	record := func(typ, msg string) {
		if fe == nil {
			fe = &FieldError{Type: typ, Message: msg}
		}
		if criteria == CriteriaAll {
			if fe.Types == nil {
				fe.Types = map[string]string{}
			}
			fe.Types[typ] = msg
		}
	}
	halted := func() bool { return fe != nil && criteria == CriteriaFirstError }

	empty := isEmpty(value)
	if o.Required != nil && empty {
		record(TypeRequired, o.Required.Message)
	}
	if !empty {
		if o.Min != nil && !halted() && exceedsBound(value, o.Min.Value, false) {
			record(TypeMin, o.Min.Message)
		}
		if o.Max != nil && !halted() && exceedsBound(value, o.Max.Value, true) {
			record(TypeMax, o.Max.Message)
		}
		if o.MinLength != nil && !halted() {
			if n, ok := valueLength(value); ok && n < o.MinLength.Value {
				record(TypeMinLength, o.MinLength.Message)
			}
		}
		if o.MaxLength != nil && !halted() {
			if n, ok := valueLength(value); ok && n > o.MaxLength.Value {
				record(TypeMaxLength, o.MaxLength.Message)
			}
		}
		if o.Pattern != nil && o.Pattern.Value != nil && !halted() {
			if s, ok := value.(string); ok && !o.Pattern.Value.MatchString(s) {
				record(TypePattern, o.Pattern.Message)
			}
		}
	}
	runCustom := func(name string, fn ValidateFunc) {
		if fn == nil || halted() {
			return
		}
		err := fn(ctx, value, values)
		if err == nil {
			return
		}
		var ferr *FieldError
		if errors.As(err, &ferr) {
			typ := ferr.Type
			if typ == "" {
				typ = name
			}
			record(typ, ferr.Message)
			return
		}
		record(name, err.Error())
	}
	runCustom(TypeValidate, o.Validate)
	if len(o.ValidateFns) > 0 {
		keys := make([]string, 0, len(o.ValidateFns))
		for k := range o.ValidateFns {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			runCustom(k, o.ValidateFns[k])
		}
	}
	return fe
}

// isEmpty reports the values Required rejects: nil, "", false, and empty
// containers.
func isEmpty(v any) bool {
	switch c := v.(type) {
	case nil:
		return true
	case string:
		return c == ""
	case bool:
		return !c
	case []any:
		return len(c) == 0
	case map[string]any:
		return len(c) == 0
	default:
		return false
	}
}

// exceedsBound compares value against a min or max bound, numerically or
// as dates. Incomparable pairs never fail.
func exceedsBound(value, bound any, isMax bool) bool {
	if vf, ok := asFloat(value); ok {
		if bf, ok := asFloat(bound); ok {
			if isMax {
				return vf > bf
			}
			return vf < bf
		}
	}
	if vt, ok := asTime(value); ok {
		if bt, ok := asTime(bound); ok {
			if isMax {
				return vt.After(bt)
			}
			return vt.Before(bt)
		}
	}
	return false
}

func asFloat(v any) (float64, bool) {
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
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts, true
		}
		if ts, err := time.Parse("2006-01-02", t); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// valueLength measures strings in runes and slices in elements.
func valueLength(v any) (int, bool) {
	switch c := v.(type) {
	case string:
		return utf8.RuneCountInString(c), true
	case []any:
		return len(c), true
	default:
		return 0, false
	}
}
