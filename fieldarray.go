package reforma

import (
	"context"
	"slices"
	"sort"
	"strconv"

	"github.com/reforma-go/reforma/internal/paths"
)

// ArrayOpts configures a FieldArray handle.
type ArrayOpts struct {
	// ShouldFocus requests focus on the first newly inserted element.
	ShouldFocus bool
	// SkipValidation suppresses the mode-driven validation pass that
	// structural changes would otherwise trigger.
	SkipValidation bool
}

// FieldArray is the mutation handle for one array-valued field. Every
// element carries a form-instance-unique identity string generated at
// insertion time; edits never change it, only removal or a whole-array
// reset does.
type FieldArray struct {
	f    *Form
	path string
	opts ArrayOpts
}

// FieldArray returns the handle for the array field at path, registering
// the path as array-typed.
func (f *Form) FieldArray(path string, opts ...ArrayOpts) *FieldArray {
	var o ArrayOpts
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	f.mu.Lock()
	f.names.array[path] = struct{}{}
	node := f.fields[path]
	if node == nil {
		node = &fieldNode{}
		f.fields[path] = node
		f.order = append(f.order, path)
	}
	node.isArray = true
	node.mounted = true
	f.names.mount[path] = struct{}{}
	f.mu.Unlock()
	return &FieldArray{f: f, path: path, opts: o}
}

// IDs returns the current element identities, index-aligned with the
// array's values.
func (a *FieldArray) IDs() []string {
	a.f.mu.Lock()
	defer a.f.mu.Unlock()
	a.f.syncIDsLocked(a.path)
	return append([]string(nil), a.f.arrayIDs[a.path]...)
}

// Len returns the current element count.
func (a *FieldArray) Len() int {
	a.f.mu.Lock()
	defer a.f.mu.Unlock()
	return len(sliceAt(a.f.values, a.path))
}

// opKind enumerates the structural operations.
type opKind int

const (
	opInsert opKind = iota
	opRemove
	opSwap
	opMove
	opReplace
	opUpdate
)

type arrayOp struct {
	kind    opKind
	index   int // -1 on insert means append
	index2  int
	indexes []int
	values  []any
}

// Append inserts values at the end of the array.
func (a *FieldArray) Append(ctx context.Context, values ...any) error {
	return a.mutate(ctx, arrayOp{kind: opInsert, index: -1, values: values})
}

// Prepend inserts values at the front of the array.
func (a *FieldArray) Prepend(ctx context.Context, values ...any) error {
	return a.mutate(ctx, arrayOp{kind: opInsert, index: 0, values: values})
}

// Insert inserts values at index.
func (a *FieldArray) Insert(ctx context.Context, index int, values ...any) error {
	return a.mutate(ctx, arrayOp{kind: opInsert, index: index, values: values})
}

// Remove deletes the elements at the given indexes.
func (a *FieldArray) Remove(ctx context.Context, indexes ...int) error {
	return a.mutate(ctx, arrayOp{kind: opRemove, indexes: indexes})
}

// Swap exchanges the elements (and their identities) at i and j.
func (a *FieldArray) Swap(ctx context.Context, i, j int) error {
	return a.mutate(ctx, arrayOp{kind: opSwap, index: i, index2: j})
}

// Move relocates the element at from to position to.
func (a *FieldArray) Move(ctx context.Context, from, to int) error {
	return a.mutate(ctx, arrayOp{kind: opMove, index: from, index2: to})
}

// Replace substitutes the element at index with a new element: a fresh
// identity is generated and the old element's error and touched state are
// dropped.
func (a *FieldArray) Replace(ctx context.Context, index int, value any) error {
	return a.mutate(ctx, arrayOp{kind: opReplace, index: index, values: []any{value}})
}

// Update edits the value at index in place; identity and touched state are
// preserved.
func (a *FieldArray) Update(ctx context.Context, index int, value any) error {
	return a.mutate(ctx, arrayOp{kind: opUpdate, index: index, values: []any{value}})
}

// ArrayBatch queues structural operations for a single apply: one dirty
// recompute, one publish, one validation pass.
type ArrayBatch struct {
	ops []arrayOp
}

func (b *ArrayBatch) Append(values ...any) {
	b.ops = append(b.ops, arrayOp{kind: opInsert, index: -1, values: values})
}
func (b *ArrayBatch) Prepend(values ...any) {
	b.ops = append(b.ops, arrayOp{kind: opInsert, index: 0, values: values})
}
func (b *ArrayBatch) Insert(index int, values ...any) {
	b.ops = append(b.ops, arrayOp{kind: opInsert, index: index, values: values})
}
func (b *ArrayBatch) Remove(indexes ...int) {
	b.ops = append(b.ops, arrayOp{kind: opRemove, indexes: indexes})
}
func (b *ArrayBatch) Swap(i, j int) {
	b.ops = append(b.ops, arrayOp{kind: opSwap, index: i, index2: j})
}
func (b *ArrayBatch) Move(from, to int) {
	b.ops = append(b.ops, arrayOp{kind: opMove, index: from, index2: to})
}
func (b *ArrayBatch) Replace(index int, value any) {
	b.ops = append(b.ops, arrayOp{kind: opReplace, index: index, values: []any{value}})
}
func (b *ArrayBatch) Update(index int, value any) {
	b.ops = append(b.ops, arrayOp{kind: opUpdate, index: index, values: []any{value}})
}

// Batch applies every operation queued by fn atomically.
func (a *FieldArray) Batch(ctx context.Context, fn func(*ArrayBatch)) error {
	var b ArrayBatch
	fn(&b)
	return a.mutate(ctx, b.ops...)
}

// mutate applies the structural operations, keeps the mirrors and error
// tree index-aligned, and publishes once.
func (a *FieldArray) mutate(ctx context.Context, ops ...arrayOp) error {
	f := a.f
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.flushUnmountedLocked()
	firstInserted := -1
	for _, op := range ops {
		if at := f.applyArrayOpLocked(a.path, op); at >= 0 && firstInserted < 0 {
			firstInserted = at
		}
	}
	f.recomputeDirtyLocked(a.path)
	f.state.isValid = len(f.errors) == 0 && len(f.delayed) == 0
	var dispatch []func()
	dispatch = append(dispatch, f.watchEventLocked(a.path, EventArray))
	if f.arrayCh.Len() > 0 {
		ev := ArrayEvent{Path: a.path}
		dispatch = append(dispatch, func() { f.arrayCh.Next(ev) })
	}
	dispatch = append(dispatch,
		f.stateDeltaLocked(bitDirtyFields|bitIsDirty|bitTouchedFields|bitErrors|bitIsValid))
	shouldValidate := f.shouldValidateOnChangeLocked(a.path) && !a.opts.SkipValidation
	f.mu.Unlock()
	run(dispatch)
	if a.opts.ShouldFocus && firstInserted >= 0 {
		f.requestFocus(a.path + "." + strconv.Itoa(firstInserted))
	}
	if !shouldValidate {
		return nil
	}
	_, err := f.validateNames(ctx, []string{a.path}, validatePass{})
	return err
}

// syncIDsLocked pads or trims the identity list to the current element
// count, generating identities for elements that never got one.
func (f *Form) syncIDsLocked(path string) {
	n := len(sliceAt(f.values, path))
	ids := f.arrayIDs[path]
	for len(ids) < n {
		ids = append(ids, f.nextIDLocked())
	}
	f.arrayIDs[path] = ids[:n]
}

// sliceAt reads the []any at path, or nil.
func sliceAt(tree map[string]any, path string) []any {
	v, ok := paths.Get(tree, path)
	if !ok {
		return nil
	}
	sl, _ := v.([]any)
	return sl
}

// applyArrayOpLocked interprets one structural op against the value tree,
// the identity list, the touched mirror, and the error tree. Out-of-range
// indexes are no-ops. Returns the first inserted index, or -1.
func (f *Form) applyArrayOpLocked(path string, op arrayOp) int {
	vals := sliceAt(f.values, path)
	f.syncIDsLocked(path)
	ids := f.arrayIDs[path]
	touched := sliceAt(f.touched, path)
	hasTouched := touched != nil
	inserted := -1

	switch op.kind {
	case opInsert:
		i := op.index
		if i < 0 || i > len(vals) {
			i = len(vals)
		}
		vals = insertAt(vals, i, op.values...)
		fresh := make([]string, len(op.values))
		for k := range fresh {
			fresh[k] = f.nextIDLocked()
		}
		ids = insertAt(ids, i, fresh...)
		if hasTouched {
			touched = insertAt(touched, i, make([]any, len(op.values))...)
		}
		n := len(op.values)
		f.reindexArrayErrorsLocked(path, func(x int) (int, bool) {
			if x >= i {
				return x + n, true
			}
			return x, true
		})
		inserted = i
	case opRemove:
		idxs := append([]int(nil), op.indexes...)
		sort.Sort(sort.Reverse(sort.IntSlice(idxs)))
		prev := -1
		for _, r := range idxs {
			if r == prev || r < 0 || r >= len(vals) {
				continue
			}
			prev = r
			vals = slices.Delete(vals, r, r+1)
			ids = slices.Delete(ids, r, r+1)
			if hasTouched && r < len(touched) {
				touched = slices.Delete(touched, r, r+1)
			}
			rr := r
			f.reindexArrayErrorsLocked(path, func(x int) (int, bool) {
				switch {
				case x == rr:
					return 0, false
				case x > rr:
					return x - 1, true
				default:
					return x, true
				}
			})
		}
	case opSwap:
		i, j := op.index, op.index2
		if i < 0 || j < 0 || i >= len(vals) || j >= len(vals) || i == j {
			break
		}
		vals[i], vals[j] = vals[j], vals[i]
		ids[i], ids[j] = ids[j], ids[i]
		if hasTouched {
			touched = growTo(touched, len(vals))
			touched[i], touched[j] = touched[j], touched[i]
		}
		f.reindexArrayErrorsLocked(path, func(x int) (int, bool) {
			switch x {
			case i:
				return j, true
			case j:
				return i, true
			default:
				return x, true
			}
		})
	case opMove:
		from, to := op.index, op.index2
		if from < 0 || from >= len(vals) || to < 0 || to >= len(vals) || from == to {
			break
		}
		vals = moveAt(vals, from, to)
		ids = moveAt(ids, from, to)
		if hasTouched {
			touched = moveAt(growTo(touched, len(vals)), from, to)
		}
		f.reindexArrayErrorsLocked(path, func(x int) (int, bool) {
			switch {
			case x == from:
				return to, true
			case from < to && x > from && x <= to:
				return x - 1, true
			case to < from && x >= to && x < from:
				return x + 1, true
			default:
				return x, true
			}
		})
	case opReplace:
		i := op.index
		if i < 0 || i >= len(vals) {
			break
		}
		vals[i] = op.values[0]
		ids[i] = f.nextIDLocked()
		if hasTouched && i < len(touched) {
			touched[i] = nil
		}
		f.reindexArrayErrorsLocked(path, func(x int) (int, bool) {
			if x == i {
				return 0, false
			}
			return x, true
		})
	case opUpdate:
		i := op.index
		if i < 0 || i >= len(vals) {
			break
		}
		vals[i] = op.values[0]
	}

	paths.Set(f.values, path, vals)
	f.arrayIDs[path] = ids
	if hasTouched {
		paths.Set(f.touched, path, touched)
	}
	return inserted
}

// reindexArrayErrorsLocked rewrites error-tree keys indexed under path
// through the mapping m(oldIndex) -> (newIndex, keep).
func (f *Form) reindexArrayErrorsLocked(path string, m func(int) (int, bool)) {
	prefix := paths.Split(path)
	moved := map[string]*FieldError{}
	for k, e := range f.errors {
		segs := paths.Split(k)
		if len(segs) <= len(prefix) || !paths.HasPrefix(k, path) {
			continue
		}
		idx, ok := paths.Index(segs[len(prefix)])
		if !ok {
			continue
		}
		ni, keep := m(idx)
		delete(f.errors, k)
		f.cancelDelayedLocked(k)
		if keep {
			segs[len(prefix)] = strconv.Itoa(ni)
			moved[paths.Join(segs)] = e
		}
	}
	for k, e := range moved {
		f.errors[k] = e
	}
}

// ---- slice helpers ----

func insertAt[T any](sl []T, i int, vals ...T) []T {
	for len(sl) < i {
		var zero T
		sl = append(sl, zero)
	}
	return slices.Insert(sl, i, vals...)
}

func moveAt[T any](sl []T, from, to int) []T {
	v := sl[from]
	sl = slices.Delete(sl, from, from+1)
	return slices.Insert(sl, to, v)
}

func growTo(sl []any, n int) []any {
	for len(sl) < n {
		sl = append(sl, nil)
	}
	return sl
}
