package reforma_test

import (
	"context"
	"testing"
	"time"

	"github.com/reforma-go/reforma"
)

func TestNewSeedsValuesFromDefaults(t *testing.T) {
	f := reforma.New(reforma.Options{DefaultValues: map[string]any{
		"user": map[string]any{"name": "ada"},
	}})
	defer f.Close()
	v, ok := f.GetValue("user.name")
	if !ok || v != "ada" {
		t.Fatalf("user.name = %v, %v", v, ok)
	}
	if f.GetFormState().IsDirty() {
		t.Fatalf("fresh form reported dirty")
	}
}

func TestGetValuesReturnsCopy(t *testing.T) {
	f := reforma.New(reforma.Options{DefaultValues: map[string]any{"a": "x"}})
	defer f.Close()
	vals := f.GetValues()
	vals["a"] = "mutated"
	if v, _ := f.GetValue("a"); v != "x" {
		t.Fatalf("caller mutation leaked into the form: %v", v)
	}
}

func TestRegisterSeedsValueOnce(t *testing.T) {
	f := reforma.New()
	defer f.Close()
	f.Register("a", reforma.RegisterOpts{Value: "first"})
	f.Register("a", reforma.RegisterOpts{Value: "second"})
	if v, _ := f.GetValue("a"); v != "first" {
		t.Fatalf("a = %v, want the original seed", v)
	}
}

func TestReRegisterMergesRules(t *testing.T) {
	ctx := context.Background()
	f := reforma.New()
	defer f.Close()
	f.Register("a", reforma.RegisterOpts{Required: &reforma.RequiredRule{}})
	b := f.Register("a", reforma.RegisterOpts{MinLength: &reforma.LengthRule{Value: 3}})
	_ = b.RecordChange(ctx, "x")
	if ok, _ := f.Trigger(ctx, "a"); ok {
		t.Fatalf("minLength from the later registration not applied")
	}
	if e := f.GetFormState().Errors()["a"]; e == nil || e.Type != reforma.TypeMinLength {
		t.Fatalf("error = %+v, want minLength", e)
	}
	_ = b.RecordChange(ctx, "")
	if ok, _ := f.Trigger(ctx, "a"); ok {
		t.Fatalf("required from the earlier registration lost")
	}
	if e := f.GetFormState().Errors()["a"]; e == nil || e.Type != reforma.TypeRequired {
		t.Fatalf("error = %+v, want required", e)
	}
}

func TestDirtyTracksDefaultBaseline(t *testing.T) {
	ctx := context.Background()
	f := reforma.New(reforma.Options{DefaultValues: map[string]any{"a": ""}})
	defer f.Close()
	b := f.Register("a")
	_ = b.RecordChange(ctx, "y")
	st := f.GetFormState()
	if !st.IsDirty() || st.DirtyFields()["a"] != true {
		t.Fatalf("edit not tracked dirty: %v %v", st.IsDirty(), st.DirtyFields())
	}
	_ = b.RecordChange(ctx, "")
	if f.GetFormState().IsDirty() {
		t.Fatalf("restoring the default must clear dirty")
	}
}

func TestDirtyDateDefaultSurvivesClone(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	// The defaults clone round-trips through JSON, so the time.Time
	// baseline lands as an RFC 3339 string while ValueAsDate stores a
	// real time.Time. Re-entering the default date must still read clean.
	f := reforma.New(reforma.Options{DefaultValues: map[string]any{"when": day}})
	defer f.Close()
	b := f.Register("when", reforma.RegisterOpts{ValueAsDate: true})

	_ = b.RecordChange(ctx, "2024-03-16")
	if !f.GetFormState().IsDirty() {
		t.Fatalf("changed date not tracked dirty")
	}
	_ = b.RecordChange(ctx, day.Format(time.RFC3339))
	if st := f.GetFormState(); st.IsDirty() {
		t.Fatalf("default date re-entered but still dirty: %v", st.DirtyFields())
	}
}

func TestResetClearsDirty(t *testing.T) {
	ctx := context.Background()
	f := reforma.New(reforma.Options{DefaultValues: map[string]any{"a": "x"}})
	defer f.Close()
	b := f.Register("a")
	_ = b.RecordChange(ctx, "changed")
	if !f.GetFormState().IsDirty() {
		t.Fatalf("precondition: dirty")
	}
	f.Reset(nil)
	st := f.GetFormState()
	if st.IsDirty() || len(st.DirtyFields()) != 0 {
		t.Fatalf("reset left dirty state: %v", st.DirtyFields())
	}
	if v, _ := f.GetValue("a"); v != "x" {
		t.Fatalf("reset did not restore defaults: %v", v)
	}
}

func TestResetWithNewDefaults(t *testing.T) {
	f := reforma.New(reforma.Options{DefaultValues: map[string]any{"a": "x"}})
	defer f.Close()
	f.Register("a")
	f.Reset(map[string]any{"a": "fresh"})
	if v, _ := f.GetValue("a"); v != "fresh" {
		t.Fatalf("a = %v", v)
	}
	if f.GetFormState().IsDirty() {
		t.Fatalf("new defaults are the new clean baseline")
	}
}

func TestTouchedIsMonotonic(t *testing.T) {
	ctx := context.Background()
	f := reforma.New(reforma.Options{DefaultValues: map[string]any{"a": ""}})
	defer f.Close()
	b := f.Register("a")
	_ = b.RecordBlur(ctx)
	for _, v := range []string{"x", "", "y"} {
		_ = b.RecordChange(ctx, v)
		if !f.GetFieldState("a").IsTouched {
			t.Fatalf("touched cleared by an edit (value %q)", v)
		}
	}
	f.Reset(nil)
	if f.GetFieldState("a").IsTouched {
		t.Fatalf("reset must clear touched")
	}
}

func TestUnregisterKeepFlags(t *testing.T) {
	ctx := context.Background()
	f := reforma.New(reforma.Options{DefaultValues: map[string]any{"b": ""}})
	defer f.Close()
	bind := f.Register("b")
	_ = bind.RecordChange(ctx, "edited")
	_ = bind.RecordBlur(ctx)
	f.SetError("b", &reforma.FieldError{Type: "manual"})

	f.Unregister("b", reforma.KeepState{KeepTouched: true})
	if _, ok := f.GetValue("b"); ok {
		t.Errorf("value should be removed")
	}
	st := f.GetFormState()
	if st.Errors()["b"] != nil {
		t.Errorf("error should be removed")
	}
	if len(st.DirtyFields()) != 0 {
		t.Errorf("dirty should be removed: %v", st.DirtyFields())
	}
	if !f.GetFieldState("b").IsTouched {
		t.Errorf("touched was explicitly kept")
	}
}

func TestUnmountDeferredCleanup(t *testing.T) {
	ctx := context.Background()
	f := reforma.New(reforma.Options{ShouldUnregister: true})
	defer f.Close()
	bind := f.Register("gone", reforma.RegisterOpts{Value: "v"})
	keep := f.Register("kept", reforma.RegisterOpts{Value: "v", KeepOnUnmount: true})
	bind.Unmount()
	keep.Unmount()
	// Cleanup is deferred to the next mutation entry point.
	if _, ok := f.GetValue("gone"); !ok {
		t.Fatalf("cleanup ran before any mutation")
	}
	_ = f.SetValue(ctx, "other", 1)
	if _, ok := f.GetValue("gone"); ok {
		t.Errorf("unmounted field not cleaned up")
	}
	if _, ok := f.GetValue("kept"); !ok {
		t.Errorf("KeepOnUnmount field lost its value")
	}
}

func TestSetValueOpts(t *testing.T) {
	ctx := context.Background()
	f := reforma.New(reforma.Options{DefaultValues: map[string]any{"a": ""}})
	defer f.Close()
	f.Register("a", reforma.RegisterOpts{Required: &reforma.RequiredRule{}})

	_ = f.SetValue(ctx, "a", "x")
	st := f.GetFormState()
	if st.IsDirty() || f.GetFieldState("a").IsTouched {
		t.Fatalf("plain SetValue must not dirty or touch")
	}
	_ = f.SetValue(ctx, "a", "", reforma.SetValueOpts{
		ShouldValidate: true, ShouldDirty: true, ShouldTouch: true,
	})
	fs := f.GetFieldState("a")
	if !fs.IsTouched || !fs.Invalid || fs.Error.Type != reforma.TypeRequired {
		t.Fatalf("field state = %+v", fs)
	}
}

func TestGetFieldStateDirtySubtree(t *testing.T) {
	ctx := context.Background()
	f := reforma.New(reforma.Options{DefaultValues: map[string]any{
		"user": map[string]any{"name": "a", "age": 1},
	}})
	defer f.Close()
	b := f.Register("user.name")
	_ = b.RecordChange(ctx, "b")
	if !f.GetFieldState("user.name").IsDirty {
		t.Errorf("edited leaf not dirty")
	}
	if f.GetFieldState("user.age").IsDirty {
		t.Errorf("sibling leaked dirty state")
	}
	if !f.GetFieldState("user").IsDirty {
		t.Errorf("parent of a dirty leaf must be dirty")
	}
}

func TestCloseMakesEntryPointsNoops(t *testing.T) {
	ctx := context.Background()
	f := reforma.New()
	b := f.Register("a")
	f.Close()
	if err := b.RecordChange(ctx, "x"); err != nil {
		t.Fatalf("RecordChange after Close: %v", err)
	}
	if ok, err := f.Trigger(ctx); !ok || err != nil {
		t.Fatalf("Trigger after Close = %v, %v", ok, err)
	}
	f.Reset(nil) // must not panic
}
