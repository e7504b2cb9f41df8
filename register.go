package reforma

import (
	"context"
	"time"

	"github.com/reforma-go/reforma/internal/mirror"
	"github.com/reforma-go/reforma/internal/paths"
)

// Register inserts or updates the field at path and returns its Binding.
// Registering the same path twice never duplicates name-set entries; the
// later registration's options win for the keys it sets (zero-valued keys
// inherit the earlier registration), and an existing ref binding survives
// unless the new registration supplies one.
func (f *Form) Register(path string, opts ...RegisterOpts) Binding {
	var o RegisterOpts
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	f.mu.Lock()
	node := f.fields[path]
	if node == nil {
		node = &fieldNode{opts: o}
		f.fields[path] = node
		f.order = append(f.order, path)
	} else {
		node.opts = mergeRegisterOpts(node.opts, o)
	}
	node.mounted = true
	f.names.mount[path] = struct{}{}
	delete(f.names.unMount, path)
	var seeded func()
	if o.Value != nil {
		if _, present := paths.Get(f.values, path); !present {
			paths.Set(f.values, path, o.Value)
			f.recomputeDirtyLocked(path)
			seeded = f.stateDeltaLocked(bitDirtyFields | bitIsDirty)
		}
	}
	f.mu.Unlock()
	run([]func(){seeded})

	return Binding{
		Path: path,
		RecordChange: func(ctx context.Context, raw any) error {
			return f.recordChange(ctx, path, raw)
		},
		RecordBlur: func(ctx context.Context) error {
			return f.recordBlur(ctx, path)
		},
		BindRef: func(ref any) {
			f.mu.Lock()
			if n := f.fields[path]; n != nil && ref != nil {
				n.ref = ref
			}
			f.mu.Unlock()
		},
		Unmount: func() {
			f.mu.Lock()
			if _, ok := f.fields[path]; ok {
				f.names.unMount[path] = struct{}{}
			}
			f.mu.Unlock()
		},
	}
}

// mergeRegisterOpts overlays later onto earlier: set (non-zero) keys of
// later win, unset keys inherit. Boolean options can only be switched on
// by a re-registration; clearing them requires Unregister.
func mergeRegisterOpts(earlier, later RegisterOpts) RegisterOpts {
	out := earlier
	if later.Required != nil {
		out.Required = later.Required
	}
	if later.Min != nil {
		out.Min = later.Min
	}
	if later.Max != nil {
		out.Max = later.Max
	}
	if later.MinLength != nil {
		out.MinLength = later.MinLength
	}
	if later.MaxLength != nil {
		out.MaxLength = later.MaxLength
	}
	if later.Pattern != nil {
		out.Pattern = later.Pattern
	}
	if later.Validate != nil {
		out.Validate = later.Validate
	}
	if later.ValidateFns != nil {
		out.ValidateFns = later.ValidateFns
	}
	if later.Value != nil {
		out.Value = later.Value
	}
	if later.SetValueAs != nil {
		out.SetValueAs = later.SetValueAs
	}
	out.ValueAsNumber = out.ValueAsNumber || later.ValueAsNumber
	out.ValueAsDate = out.ValueAsDate || later.ValueAsDate
	out.Disabled = out.Disabled || later.Disabled
	out.KeepOnUnmount = out.KeepOnUnmount || later.KeepOnUnmount
	out.UnregisterOnUnmount = out.UnregisterOnUnmount || later.UnregisterOnUnmount
	return out
}

// Unregister removes the field at path immediately. Keep flags preserve
// individual state categories; each is honored independently.
func (f *Form) Unregister(path string, keep ...KeepState) {
	var k KeepState
	if len(keep) > 0 {
		k = keep[len(keep)-1]
	}
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.unregisterLocked(path, k)
	d := f.stateDeltaLocked(bitDirtyFields | bitIsDirty | bitTouchedFields | bitErrors | bitIsValid)
	f.mu.Unlock()
	run([]func(){d})
}

func (f *Form) unregisterLocked(path string, k KeepState) {
	delete(f.fields, path)
	for i, p := range f.order {
		if p == path {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	delete(f.names.mount, path)
	delete(f.names.unMount, path)
	delete(f.names.array, path)
	f.cancelDelayedLocked(path)
	if !k.KeepValue {
		paths.Unset(f.values, path)
	}
	if !k.KeepDefaultValue {
		paths.Unset(f.defaults, path)
	}
	if !k.KeepError {
		delete(f.errors, path)
		f.state.isValid = len(f.errors) == 0 && len(f.delayed) == 0
	}
	if !k.KeepDirty {
		f.recomputeDirtyLocked(path)
	}
	if !k.KeepTouched {
		paths.Unset(f.touched, path)
	}
}

// recordChange is the single entry point for field value changes: coerce,
// write, re-diff, validate per the active mode, and publish.
func (f *Form) recordChange(ctx context.Context, path string, raw any) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.flushUnmountedLocked()
	node := f.fields[path]
	if node == nil {
		f.mu.Unlock()
		return nil
	}
	v := coerceValue(node.opts, raw)
	paths.Set(f.values, path, v)
	f.recomputeDirtyLocked(path)
	var dispatch []func()
	dispatch = append(dispatch, f.watchEventLocked(path, EventChange))
	shouldValidate := f.shouldValidateOnChangeLocked(path) && !node.opts.Disabled
	if !shouldValidate {
		dispatch = append(dispatch, f.stateDeltaLocked(bitDirtyFields|bitIsDirty))
		f.mu.Unlock()
		run(dispatch)
		return nil
	}
	dispatch = append(dispatch, f.stateDeltaLocked(bitDirtyFields|bitIsDirty))
	f.mu.Unlock()
	run(dispatch)
	_, err := f.validateNames(ctx, []string{path}, validatePass{delay: f.opts.DelayError > 0})
	return err
}

// recordBlur marks path touched (monotonic) and validates per the blur
// policy.
func (f *Form) recordBlur(ctx context.Context, path string) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	node := f.fields[path]
	if node == nil {
		f.mu.Unlock()
		return nil
	}
	paths.Set(f.touched, path, true)
	var dispatch []func()
	dispatch = append(dispatch, f.watchEventLocked(path, EventBlur))
	shouldValidate := f.shouldValidateOnBlurLocked() && !node.opts.Disabled
	dispatch = append(dispatch, f.stateDeltaLocked(bitTouchedFields))
	f.mu.Unlock()
	run(dispatch)
	if !shouldValidate {
		return nil
	}
	_, err := f.validateNames(ctx, []string{path}, validatePass{})
	return err
}

func (f *Form) isTouchedLocked(path string) bool {
	v, ok := paths.Get(f.touched, path)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// shouldValidateOnChangeLocked applies the mode policy for a change event.
// After the first completed submit the re-validation mode governs instead.
func (f *Form) shouldValidateOnChangeLocked(path string) bool {
	if f.state.isSubmitted {
		return f.opts.ReValidateMode == ModeOnChange
	}
	switch f.opts.Mode {
	case ModeOnChange, ModeAll:
		return true
	case ModeOnTouched:
		return f.isTouchedLocked(path)
	default:
		return false
	}
}

func (f *Form) shouldValidateOnBlurLocked() bool {
	if f.state.isSubmitted {
		return f.opts.ReValidateMode == ModeOnBlur
	}
	switch f.opts.Mode {
	case ModeOnBlur, ModeAll, ModeOnTouched:
		// onTouched: the blur that makes a field touched also validates it.
		return true
	default:
		return false
	}
}

// coerceValue normalizes a raw value per the field's declared coercion.
func coerceValue(o RegisterOpts, raw any) any {
	if o.SetValueAs != nil {
		return o.SetValueAs(raw)
	}
	if o.ValueAsNumber {
		return coerceNumber(raw)
	}
	if o.ValueAsDate {
		return coerceDate(raw)
	}
	return raw
}

func coerceNumber(raw any) any {
	if s, ok := raw.(string); ok {
		if s == "" {
			return nil
		}
	}
	if n, ok := asFloat(raw); ok {
		return n
	}
	return raw
}

func coerceDate(raw any) any {
	switch v := raw.(type) {
	case time.Time:
		return v
	case string:
		if v == "" {
			return nil
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t
		}
	}
	return raw
}

// GetFieldState returns the per-field snapshot for path.
func (f *Form) GetFieldState(path string) FieldState {
	f.mu.Lock()
	defer f.mu.Unlock()
	var st FieldState
	if e, ok := f.errors[path]; ok {
		st.Invalid = true
		st.Error = e.clone()
	}
	st.IsTouched = f.isTouchedLocked(path)
	segs := paths.Split(path)
	if len(segs) > 0 {
		if top, ok := f.dirty[segs[0]]; ok {
			if len(segs) == 1 {
				st.IsDirty = !mirror.Empty(top)
			} else if sub, ok := paths.GetSegs(top, segs[1:]); ok {
				st.IsDirty = !mirror.Empty(sub)
			}
		}
	}
	return st
}
