package reforma

import "context"

// HandleSubmit returns the submit handler. The handler validates the whole
// form, then invokes onValid with the value snapshot (resolver-substituted
// values when a resolver supplied them) or onInvalid with the error tree.
// isSubmitted, isSubmitSuccessful, isSubmitting, and submitCount are
// maintained regardless of which branch ran or whether a callback failed
// or panicked; a failing callback never leaves the form stuck submitting.
//
// The returned error is a resolver failure or a callback's own error.
// A plain validation failure surfaces through onInvalid and returns nil.
func (f *Form) HandleSubmit(
	onValid func(ctx context.Context, values map[string]any) error,
	onInvalid func(ctx context.Context, errs ErrorTree) error,
) func(context.Context) error {
	return func(ctx context.Context) error {
		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return nil
		}
		f.flushUnmountedLocked()
		f.state.isSubmitting = true
		d := f.stateDeltaLocked(bitIsSubmitting)
		f.mu.Unlock()
		run([]func(){d})

		success := false
		defer func() {
			f.mu.Lock()
			if f.closed {
				f.mu.Unlock()
				return
			}
			f.state.isSubmitting = false
			f.state.isSubmitted = true
			f.state.isSubmitSuccessful = success
			f.state.submitCount++
			d := f.stateDeltaLocked(bitIsSubmitting | bitIsSubmitted |
				bitIsSubmitSuccessful | bitSubmitCount)
			f.mu.Unlock()
			run([]func(){d})
		}()

		valid, resolved, err := f.validate(ctx, nil, validatePass{})
		if err != nil {
			return err
		}
		if !valid {
			f.mu.Lock()
			errs := f.errors.clone()
			focus := ""
			if !f.opts.DisableFocusError {
				focus = f.firstErrorLocked(f.targetsLocked(nil), f.errors)
				f.names.focus = focus
			}
			f.mu.Unlock()
			if focus != "" {
				f.requestFocus(focus)
			}
			if onInvalid != nil {
				return onInvalid(ctx, errs)
			}
			return nil
		}
		values := resolved
		if values == nil {
			values = f.GetValues()
		}
		if onValid != nil {
			if err := onValid(ctx, values); err != nil {
				return err
			}
		}
		success = true
		return nil
	}
}
