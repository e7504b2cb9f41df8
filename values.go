package reforma

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/reforma-go/reforma/internal/paths"
)

// cloneTree deep-copies a JSON-shaped tree by round-tripping through
// go-json. Non-serializable values fall back to a shallow copy; numbers
// land as float64, which the diff engine compares numerically.
func cloneTree(src map[string]any) map[string]any {
	if len(src) == 0 {
		return map[string]any{}
	}
	b, err := json.Marshal(src)
	if err != nil {
		out := make(map[string]any, len(src))
		for k, v := range src {
			out[k] = v
		}
		return out
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil || out == nil {
		out = make(map[string]any, len(src))
		for k, v := range src {
			out[k] = v
		}
	}
	return out
}

// cloneValue deep-copies one subtree.
func cloneValue(v any) any {
	switch v.(type) {
	case nil, bool, string, float64, int, int64:
		return v
	}
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

// GetValues returns a deep copy of the whole value tree.
func (f *Form) GetValues() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneTree(f.values)
}

// GetValue returns a deep copy of the value at path; ok is false when the
// path is absent or malformed.
func (f *Form) GetValue(path string) (any, bool) {
	f.mu.Lock()
	v, ok := paths.Get(f.values, path)
	f.mu.Unlock()
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// SetValue writes v at path programmatically, through the same pipeline as
// a recorded change. Side effects are opt-in via SetValueOpts.
func (f *Form) SetValue(ctx context.Context, path string, v any, opts ...SetValueOpts) error {
	var o SetValueOpts
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.flushUnmountedLocked()
	paths.Set(f.values, path, v)
	bits := stateBits(0)
	if o.ShouldDirty {
		f.recomputeDirtyLocked(path)
		bits |= bitDirtyFields | bitIsDirty
	}
	if o.ShouldTouch {
		paths.Set(f.touched, path, true)
		bits |= bitTouchedFields
	}
	// Replacing an array field wholesale resets its element identities.
	if _, isArray := f.names.array[path]; isArray {
		if sl, ok := v.([]any); ok {
			ids := make([]string, len(sl))
			for i := range ids {
				ids[i] = f.nextIDLocked()
			}
			f.arrayIDs[path] = ids
		}
	}
	var dispatch []func()
	dispatch = append(dispatch, f.watchEventLocked(path, EventChange))
	dispatch = append(dispatch, f.stateDeltaLocked(bits))
	f.mu.Unlock()
	run(dispatch)
	if !o.ShouldValidate {
		return nil
	}
	_, err := f.validateNames(ctx, []string{path}, validatePass{})
	return err
}

// SetFocus records path as the focus target and forwards it to the focus
// collaborator.
func (f *Form) SetFocus(path string) {
	f.mu.Lock()
	f.names.focus = path
	f.mu.Unlock()
	f.requestFocus(path)
}

// SetError manually writes one field error; it survives until the next
// validation pass for that path.
func (f *Form) SetError(path string, err *FieldError) {
	f.mu.Lock()
	if f.closed || err == nil {
		f.mu.Unlock()
		return
	}
	f.errors[path] = err.clone()
	f.state.isValid = false
	d := f.stateDeltaLocked(bitErrors | bitIsValid)
	f.mu.Unlock()
	run([]func(){d})
}

// ClearErrors removes the named errors, or every error when no path is
// given.
func (f *Form) ClearErrors(pathsToClear ...string) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	if len(pathsToClear) == 0 {
		for p := range f.delayed {
			f.cancelDelayedLocked(p)
		}
		f.errors = ErrorTree{}
	} else {
		for _, p := range pathsToClear {
			f.cancelDelayedLocked(p)
			delete(f.errors, p)
		}
	}
	f.state.isValid = len(f.errors) == 0 && len(f.delayed) == 0
	d := f.stateDeltaLocked(bitErrors | bitIsValid)
	f.mu.Unlock()
	run([]func(){d})
}

// Reset rewinds the form. With values, they become the new defaults (and
// the new dirty baseline) unless KeepDefaultValues; the zero ResetOpts
// clears values, mirrors, errors, and submit state.
func (f *Form) Reset(values map[string]any, opts ...ResetOpts) {
	var o ResetOpts
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	if values != nil && !o.KeepDefaultValues {
		f.defaults = cloneTree(values)
	}
	if !o.KeepValues {
		if values != nil {
			f.values = cloneTree(values)
		} else {
			f.values = cloneTree(f.defaults)
		}
		// Whole-array resets regenerate element identities lazily.
		f.arrayIDs = map[string][]string{}
	}
	bits := bitDirtyFields | bitIsDirty
	if !o.KeepDirty {
		f.dirty = map[string]any{}
		if o.KeepValues || (values != nil && o.KeepDefaultValues) {
			// Values and baseline may now disagree; re-diff every field.
			for top := range f.values {
				f.recomputeDirtyLocked(top)
			}
			for top := range f.defaults {
				f.recomputeDirtyLocked(top)
			}
		}
		f.state.isDirty = len(f.dirty) > 0
	}
	if !o.KeepTouched {
		f.touched = map[string]any{}
		bits |= bitTouchedFields
	}
	if !o.KeepErrors {
		for p := range f.delayed {
			f.cancelDelayedLocked(p)
		}
		f.errors = ErrorTree{}
		f.state.isValid = true
		bits |= bitErrors | bitIsValid
	}
	if !o.KeepIsSubmitted {
		f.state.isSubmitted = false
		f.state.isSubmitSuccessful = false
		bits |= bitIsSubmitted | bitIsSubmitSuccessful
	}
	if !o.KeepSubmitCount {
		f.state.submitCount = 0
		bits |= bitSubmitCount
	}
	var dispatch []func()
	dispatch = append(dispatch, f.watchEventLocked("", EventReset))
	dispatch = append(dispatch, f.stateDeltaLocked(bits))
	f.mu.Unlock()
	run(dispatch)
}

// ResetField rewinds one field to its default value and, per the keep
// flags, clears its error, dirty, and touched state.
func (f *Form) ResetField(path string, opts ...ResetOpts) {
	var o ResetOpts
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	if !o.KeepValues {
		if dv, ok := paths.Get(f.defaults, path); ok {
			paths.Set(f.values, path, cloneValue(dv))
		} else {
			paths.Unset(f.values, path)
		}
	}
	bits := stateBits(0)
	if !o.KeepDirty {
		f.recomputeDirtyLocked(path)
		bits |= bitDirtyFields | bitIsDirty
	}
	if !o.KeepTouched {
		paths.Unset(f.touched, path)
		bits |= bitTouchedFields
	}
	if !o.KeepErrors {
		f.cancelDelayedLocked(path)
		delete(f.errors, path)
		f.state.isValid = len(f.errors) == 0 && len(f.delayed) == 0
		bits |= bitErrors | bitIsValid
	}
	var dispatch []func()
	dispatch = append(dispatch, f.watchEventLocked(path, EventReset))
	dispatch = append(dispatch, f.stateDeltaLocked(bits))
	f.mu.Unlock()
	run(dispatch)
}
