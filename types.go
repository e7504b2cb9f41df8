package reforma

import (
	"context"
	"regexp"
	"time"
)

// Mode selects when validation runs for a field that has not yet been part
// of a failed submit.
type Mode int

const (
	ModeOnSubmit Mode = iota // Validate only at submit (default).
	ModeOnBlur               // Validate when a field is blurred.
	ModeOnChange             // Validate on every change.
	ModeOnTouched            // Validate on change, but only after the first blur.
	ModeAll                  // Validate on both blur and change.
)

// CriteriaMode controls whether rule evaluation stops at the first failing
// rule or collects every failure for a field.
type CriteriaMode int

const (
	CriteriaFirstError CriteriaMode = iota
	CriteriaAll
)

// Options configures a Form. The zero value is usable: ModeOnSubmit,
// re-validation on change, native rules, focus-on-error enabled.
type Options struct {
	// Mode selects the pre-submit validation trigger. Default ModeOnSubmit.
	Mode Mode
	// ReValidateMode governs re-validation after the first failed submit.
	// Default ModeOnChange. ModeAll and ModeOnTouched are not meaningful
	// here and behave like ModeOnChange.
	ReValidateMode Mode
	// DefaultValues seeds the value tree and becomes the dirty baseline.
	// The Form captures a deep copy; the caller's map is not retained.
	DefaultValues map[string]any
	// Resolver, when set, replaces native per-field rules with whole-form
	// external validation. The two strategies are mutually exclusive.
	Resolver Resolver
	// ResolverContext is passed through to the Resolver untouched.
	ResolverContext any
	// CriteriaMode selects firstError (default) or all-failures collection.
	CriteriaMode CriteriaMode
	// DisableFocusError turns off focusing the first invalid field after a
	// failed submit.
	DisableFocusError bool
	// ShouldUnregister, when true, makes unmounted fields clean up their
	// state on the next mutation instead of being kept.
	ShouldUnregister bool
	// DelayError postpones surfacing a change-triggered field error by the
	// given duration; the pending error is cancelled if the field becomes
	// valid (or the form is closed) before it elapses.
	DelayError time.Duration
	// RequestFocus is the best-effort focus collaborator. It must not
	// panic; a nil callback disables focusing.
	RequestFocus func(path string)
}

// RequiredRule rejects empty values: nil, "", false, and empty slices.
type RequiredRule struct {
	Message string
}

// BoundRule constrains a numeric or time value. Value may be any numeric
// type, a time.Time, or an RFC 3339 string for date comparison.
type BoundRule struct {
	Value   any
	Message string
}

// LengthRule constrains the length of a string or slice value.
type LengthRule struct {
	Value   int
	Message string
}

// PatternRule matches a string value against a compiled regexp.
type PatternRule struct {
	Value   *regexp.Regexp
	Message string
}

// ValidateFunc is a custom, possibly blocking, validation predicate. A nil
// return means valid. Returning a *FieldError surfaces it as-is; any other
// error becomes a FieldError with type "validate" (or the map key when the
// func was registered under a name).
type ValidateFunc func(ctx context.Context, value any, values map[string]any) error

// RegisterOpts carries a field's rule set and registration options. Every
// recognized option is enumerated; the zero value registers a bare field.
type RegisterOpts struct {
	Required  *RequiredRule
	Min       *BoundRule
	Max       *BoundRule
	MinLength *LengthRule
	MaxLength *LengthRule
	Pattern   *PatternRule
	// Validate runs after the built-in rules under the type "validate".
	Validate ValidateFunc
	// ValidateFns are named custom rules, run in sorted key order after
	// Validate; the failing key becomes the error type.
	ValidateFns map[string]ValidateFunc

	// Value seeds the value tree at this path when the path is not yet
	// present. It never overwrites an existing value.
	Value any
	// ValueAsNumber coerces recorded raw values to float64 (empty string
	// to nil).
	ValueAsNumber bool
	// ValueAsDate coerces recorded raw strings to time.Time via RFC 3339.
	ValueAsDate bool
	// SetValueAs applies an arbitrary coercion to recorded raw values.
	// It runs instead of ValueAsNumber/ValueAsDate when set.
	SetValueAs func(any) any

	// Disabled excludes the field from validation while set.
	Disabled bool
	// KeepOnUnmount overrides Options.ShouldUnregister for this field:
	// when set, unmounting never removes its state.
	KeepOnUnmount bool
	// UnregisterOnUnmount removes this field's state on unmount even when
	// the form-level ShouldUnregister is off.
	UnregisterOnUnmount bool
}

// KeepState selects, flag by flag, which per-field state survives an
// Unregister. Each flag is honored independently.
type KeepState struct {
	KeepValue        bool
	KeepDefaultValue bool
	KeepError        bool
	KeepDirty        bool
	KeepTouched      bool
}

// SetValueOpts controls the side effects of a programmatic SetValue.
type SetValueOpts struct {
	ShouldValidate bool
	ShouldDirty    bool
	ShouldTouch    bool
}

// ResetOpts selects which state a Reset preserves. The zero value resets
// everything to the (possibly new) defaults.
type ResetOpts struct {
	KeepErrors        bool
	KeepDirty         bool
	KeepTouched       bool
	KeepValues        bool
	KeepDefaultValues bool
	KeepIsSubmitted   bool
	KeepSubmitCount   bool
}

// EventType tags watch-channel events with their origin.
type EventType int

const (
	EventChange EventType = iota + 1
	EventBlur
	EventArray
	EventReset
)

// WatchEvent is the watch-channel payload: the changed path, what caused
// the change, and a snapshot of the whole value tree.
type WatchEvent struct {
	Name   string
	Type   EventType
	Values map[string]any
}

// ArrayEvent is the array-channel payload: the path of the field array
// whose structure changed. Consumers re-read identities and resubscribe.
type ArrayEvent struct {
	Path string
}

// FieldState is the per-field snapshot returned by GetFieldState.
type FieldState struct {
	Invalid   bool
	IsDirty   bool
	IsTouched bool
	Error     *FieldError
}

// Binding is what Register hands back to the UI collaborator: the engine's
// entry points for this field. Wiring them to native events is the
// collaborator's job.
type Binding struct {
	Path string
	// RecordChange is the single entry point for value changes.
	RecordChange func(ctx context.Context, raw any) error
	// RecordBlur marks the field touched and validates per the blur policy.
	RecordBlur func(ctx context.Context) error
	// BindRef attaches the collaborator's element handle to the field.
	BindRef func(ref any)
	// Unmount marks the field unmounted; state cleanup follows the
	// shouldUnregister policy on the next mutation.
	Unmount func()
}
