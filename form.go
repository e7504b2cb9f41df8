// Package reforma is a client-side form-state engine: a path-addressed
// field registry over a single nested value tree, with dirty/touched
// tracking, native-rule or resolver-driven validation, stable-identity
// field arrays, and three independent notification channels so observers
// wake up only for the state they actually read.
//
// Design policy:
//   - Keep only public APIs in the root package; put detailed
//     implementations under internal/.
//   - The Form owns every mutable tree. Callers receive deep copies and
//     mutate only through the entry points returned by Register.
//   - Prefer black-box testing against public APIs.
package reforma

import (
	"strconv"
	"sync"
	"time"

	"github.com/reforma-go/reforma/internal/mirror"
	"github.com/reforma-go/reforma/internal/paths"
	"github.com/reforma-go/reforma/internal/subject"
)

// fieldNode is the registry record for one registered path.
type fieldNode struct {
	opts    RegisterOpts
	ref     any
	mounted bool
	isArray bool
}

// nameSets tracks which paths are mounted, pending cleanup, array-typed,
// or watched, plus the single focus target.
type nameSets struct {
	mount    map[string]struct{}
	unMount  map[string]struct{}
	array    map[string]struct{}
	watch    map[string]int // refcount per subscribed path
	watchAll int            // refcount of unfiltered watchers
	focus    string
}

// Form is one form instance: the single owner of the value tree, the
// dirty/touched mirrors, the error tree, and the subscription bus.
type Form struct {
	mu   sync.Mutex
	opts Options

	values   map[string]any
	defaults map[string]any

	fields map[string]*fieldNode
	order  []string
	names  nameSets

	dirty   map[string]any // sparse boolean mirror, keyed per top-level field
	touched map[string]any
	errors  ErrorTree

	state stateData

	watchCh subject.Subject[WatchEvent]
	arrayCh subject.Subject[ArrayEvent]
	stateCh subject.Subject[stateDelta]

	generation map[string]uint64
	inFlight   int
	delayed    map[string]*delayedError

	arrayIDs map[string][]string
	idSeq    uint64

	closed bool
}

// New creates a Form. Options are variadic with last-wins semantics; the
// zero Options is a valid configuration.
func New(opts ...Options) *Form {
	var o Options
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	if o.ReValidateMode == ModeOnSubmit {
		// onSubmit is not meaningful for re-validation.
		o.ReValidateMode = ModeOnChange
	}
	f := &Form{
		opts:     o,
		defaults: cloneTree(o.DefaultValues),
		fields:   map[string]*fieldNode{},
		names: nameSets{
			mount:   map[string]struct{}{},
			unMount: map[string]struct{}{},
			array:   map[string]struct{}{},
			watch:   map[string]int{},
		},
		dirty:      map[string]any{},
		touched:    map[string]any{},
		errors:     ErrorTree{},
		generation: map[string]uint64{},
		delayed:    map[string]*delayedError{},
		arrayIDs:   map[string][]string{},
	}
	f.values = cloneTree(f.defaults)
	f.state.isValid = true
	return f
}

// Close tears the form down: every observer is detached, pending delayed
// errors are cancelled, and any in-flight validation result arriving later
// is discarded.
func (f *Form) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	for _, d := range f.delayed {
		d.cancel()
	}
	f.delayed = map[string]*delayedError{}
	f.mu.Unlock()
	f.watchCh.Close()
	f.arrayCh.Close()
	f.stateCh.Close()
}

// nextIDLocked generates a form-instance-unique identity string.
func (f *Form) nextIDLocked() string {
	f.idSeq++
	return "k" + strconv.FormatUint(f.idSeq, 36)
}

// recomputeDirtyLocked re-diffs the top-level field containing path against
// the defaults baseline and refreshes the aggregate isDirty. Only the
// changed field's subtree is walked; other fields keep their cached entry.
func (f *Form) recomputeDirtyLocked(path string) {
	segs := paths.Split(path)
	if len(segs) == 0 {
		return
	}
	top := segs[0]
	if d := mirror.Diff(f.values[top], f.defaults[top]); d != nil {
		f.dirty[top] = d
	} else {
		delete(f.dirty, top)
	}
	f.state.isDirty = len(f.dirty) > 0
}

// flushUnmountedLocked performs the deferred cleanup of fields whose
// bindings reported Unmount. A field is removed when the form-level
// ShouldUnregister applies (and the field does not opt out) or the field
// itself opted in via UnregisterOnUnmount.
func (f *Form) flushUnmountedLocked() {
	for path := range f.names.unMount {
		delete(f.names.unMount, path)
		node := f.fields[path]
		if node == nil {
			continue
		}
		remove := node.opts.UnregisterOnUnmount ||
			(f.opts.ShouldUnregister && !node.opts.KeepOnUnmount)
		if !remove {
			node.mounted = false
			delete(f.names.mount, path)
			continue
		}
		f.unregisterLocked(path, KeepState{})
	}
}

// requestFocus invokes the focus collaborator outside the lock. Best
// effort: a panicking callback is swallowed.
func (f *Form) requestFocus(path string) {
	cb := f.opts.RequestFocus
	if cb == nil || path == "" {
		return
	}
	defer func() { _ = recover() }()
	cb(path)
}

// run executes queued dispatch closures. Dispatches always happen after
// the form lock is released so observers may call back into the Form.
func run(dispatch []func()) {
	for _, fn := range dispatch {
		if fn != nil {
			fn()
		}
	}
}

// delayedError is a pending, cancellable error commit (Options.DelayError).
type delayedError struct {
	timer *time.Timer
	err   *FieldError
}

func (d *delayedError) cancel() {
	if d != nil && d.timer != nil {
		d.timer.Stop()
	}
}

// cancelDelayedLocked drops any pending delayed error for path.
func (f *Form) cancelDelayedLocked(path string) {
	if d, ok := f.delayed[path]; ok {
		d.cancel()
		delete(f.delayed, path)
	}
}
