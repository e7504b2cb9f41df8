package reforma

import (
	"github.com/reforma-go/reforma/internal/paths"
	"github.com/reforma-go/reforma/internal/subject"
)

// Subscription detaches one observer from its channel; see
// internal/subject. Unsubscribing is safe mid-dispatch.
type Subscription = subject.Subscription

// Watch subscribes fn to value changes. With no names, every change is
// delivered; with names, an event is delivered when its path and any
// requested name are segment-prefix related ("test" matches "test.sub" but
// never "test1"). Events without a path (whole-form reset) always deliver.
func (f *Form) Watch(fn func(WatchEvent), names ...string) *Subscription {
	f.mu.Lock()
	if len(names) == 0 {
		f.names.watchAll++
	} else {
		for _, n := range names {
			f.names.watch[n]++
		}
	}
	f.mu.Unlock()

	filter := append([]string(nil), names...)
	sub := f.watchCh.Subscribe(func(ev WatchEvent) {
		if len(filter) > 0 && ev.Name != "" {
			match := false
			for _, n := range filter {
				if paths.Related(ev.Name, n) {
					match = true
					break
				}
			}
			if !match {
				return
			}
		}
		fn(ev)
	})
	return wrapUnsub(sub, func() {
		f.mu.Lock()
		if len(filter) == 0 {
			if f.names.watchAll > 0 {
				f.names.watchAll--
			}
		} else {
			for _, n := range filter {
				if f.names.watch[n]--; f.names.watch[n] <= 0 {
					delete(f.names.watch, n)
				}
			}
		}
		f.mu.Unlock()
	})
}

// wrapUnsub chains name-set pruning onto a subscription's teardown.
func wrapUnsub(sub *Subscription, after func()) *Subscription {
	return subject.Wrap(func() {
		sub.Unsubscribe()
		after()
	})
}

// SubscribeArrays subscribes fn to structural field-array events.
func (f *Form) SubscribeArrays(fn func(ArrayEvent)) *Subscription {
	return f.arrayCh.Subscribe(fn)
}

// watchEventLocked builds a watch-channel dispatch closure, or nil when the
// change is not observable (no subscriber, and no watched name related to
// path). Callers hold f.mu.
func (f *Form) watchEventLocked(path string, typ EventType) func() {
	if f.watchCh.Len() == 0 {
		return nil
	}
	if f.names.watchAll == 0 && path != "" {
		observed := false
		for n := range f.names.watch {
			if paths.Related(path, n) {
				observed = true
				break
			}
		}
		if !observed {
			return nil
		}
	}
	ev := WatchEvent{Name: path, Type: typ, Values: cloneTree(f.values)}
	return func() { f.watchCh.Next(ev) }
}
