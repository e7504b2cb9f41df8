package reforma

import (
	"sync/atomic"

	"github.com/reforma-go/reforma/internal/subject"
)

// stateBits identifies which FormState fields a delta touches and which
// fields a subscriber has read.
type stateBits uint32

const (
	bitIsDirty stateBits = 1 << iota
	bitDirtyFields
	bitTouchedFields
	bitErrors
	bitIsValid
	bitIsValidating
	bitIsSubmitted
	bitIsSubmitSuccessful
	bitIsSubmitting
	bitSubmitCount
)

// stateData is the raw snapshot behind FormState. Trees are deep copies
// taken at snapshot time.
type stateData struct {
	isDirty            bool
	dirtyFields        map[string]any
	touchedFields      map[string]any
	errors             ErrorTree
	isValid            bool
	isValidating       bool
	isSubmitted        bool
	isSubmitSuccessful bool
	isSubmitting       bool
	submitCount        int
}

// stateDelta is the state-channel payload: the snapshot plus which fields
// changed since the previous publish.
type stateDelta struct {
	bits stateBits
	snap stateData
}

// FormState is the externally observable snapshot. Its getters record
// read-set membership when the snapshot is bound to a subscription: a
// subscriber is only woken up for fields it has actually read.
type FormState struct {
	d     stateData
	reads *atomic.Uint32
}

func (s FormState) mark(b stateBits) {
	if s.reads != nil {
		// atomic OR via CAS loop; Uint32.Or needs Go 1.23+.
		for {
			old := s.reads.Load()
			if old&uint32(b) == uint32(b) || s.reads.CompareAndSwap(old, old|uint32(b)) {
				return
			}
		}
	}
}

// IsDirty reports whether any tracked field differs from its default.
func (s FormState) IsDirty() bool { s.mark(bitIsDirty); return s.d.isDirty }

// DirtyFields returns the sparse dirty mirror.
func (s FormState) DirtyFields() map[string]any {
	s.mark(bitDirtyFields)
	return s.d.dirtyFields
}

// TouchedFields returns the sparse touched mirror.
func (s FormState) TouchedFields() map[string]any {
	s.mark(bitTouchedFields)
	return s.d.touchedFields
}

// Errors returns the active error tree.
func (s FormState) Errors() ErrorTree { s.mark(bitErrors); return s.d.errors }

// IsValid reports whether the last committed validation left no errors.
func (s FormState) IsValid() bool { s.mark(bitIsValid); return s.d.isValid }

// IsValidating reports whether any validation pass is in flight.
func (s FormState) IsValidating() bool { s.mark(bitIsValidating); return s.d.isValidating }

// IsSubmitted reports whether a submit has completed at least once.
func (s FormState) IsSubmitted() bool { s.mark(bitIsSubmitted); return s.d.isSubmitted }

// IsSubmitSuccessful reports whether the last submit validated cleanly and
// its success callback did not fail.
func (s FormState) IsSubmitSuccessful() bool {
	s.mark(bitIsSubmitSuccessful)
	return s.d.isSubmitSuccessful
}

// IsSubmitting reports whether a submit is currently running.
func (s FormState) IsSubmitting() bool { s.mark(bitIsSubmitting); return s.d.isSubmitting }

// SubmitCount counts completed submits, successful or not.
func (s FormState) SubmitCount() int { s.mark(bitSubmitCount); return s.d.submitCount }

// snapshotLocked deep-copies the current state. Callers hold f.mu.
func (f *Form) snapshotLocked() stateData {
	s := f.state
	s.dirtyFields = cloneTree(f.dirty)
	s.touchedFields = cloneTree(f.touched)
	s.errors = f.errors.clone()
	return s
}

// stateDeltaLocked builds a dispatch closure publishing the given change
// bits. Callers hold f.mu; the closure runs after unlock. Returns nil when
// nobody listens.
func (f *Form) stateDeltaLocked(bits stateBits) func() {
	if f.stateCh.Len() == 0 || bits == 0 {
		return nil
	}
	d := stateDelta{bits: bits, snap: f.snapshotLocked()}
	return func() { f.stateCh.Next(d) }
}

// StateSubscribeOpts configures a state-channel subscription.
type StateSubscribeOpts struct {
	// All delivers every delta regardless of the recorded read-set.
	All bool
}

// StateSubscription is a live state-channel subscription carrying its own
// read-set. Reading a field on any FormState obtained through it opts the
// subscription into deltas for that field.
type StateSubscription struct {
	f     *Form
	sub   *subject.Subscription
	reads atomic.Uint32
	all   bool
}

// SubscribeState attaches fn to the state channel. Until fn (or Snapshot)
// reads a FormState field, a non-All subscription receives nothing.
func (f *Form) SubscribeState(fn func(FormState), opts ...StateSubscribeOpts) *StateSubscription {
	var o StateSubscribeOpts
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	ss := &StateSubscription{f: f, all: o.All}
	ss.sub = f.stateCh.Subscribe(func(d stateDelta) {
		if !ss.all && uint32(d.bits)&ss.reads.Load() == 0 {
			return
		}
		fn(FormState{d: d.snap, reads: &ss.reads})
	})
	return ss
}

// Snapshot returns the current state bound to this subscription's
// read-set.
func (s *StateSubscription) Snapshot() FormState {
	s.f.mu.Lock()
	d := s.f.snapshotLocked()
	s.f.mu.Unlock()
	return FormState{d: d, reads: &s.reads}
}

// Unsubscribe detaches the observer.
func (s *StateSubscription) Unsubscribe() { s.sub.Unsubscribe() }

// GetFormState returns the current state unbound to any subscription; its
// getters do not gate anything.
func (f *Form) GetFormState() FormState {
	f.mu.Lock()
	d := f.snapshotLocked()
	f.mu.Unlock()
	return FormState{d: d}
}
