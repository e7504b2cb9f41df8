// Package paths implements get/set/unset over nested any-typed value trees
// addressed by dotted paths. Numeric segments address slice indices, all
// other segments address map keys. Malformed paths are silent: Get reports
// not-found and Unset is a no-op.
package paths

import (
	"strconv"
	"strings"
)

// Split breaks a path like "a.b[0].c" into segments ["a","b","0","c"].
// Empty segments produced by stray separators are dropped.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	var segs []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			segs = append(segs, b.String())
			b.Reset()
		}
	}
	for _, r := range path {
		switch r {
		case '.', '[':
			flush()
		case ']':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return segs
}

// Index reports whether seg is a slice index and returns it.
func Index(seg string) (int, bool) {
	n, err := strconv.Atoi(seg)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Join renders segments back into a dotted path. Indices are rendered in
// dotted form ("list.0.value"), which Split round-trips.
func Join(segs []string) string {
	return strings.Join(segs, ".")
}

// Get returns the value at path inside tree, or (nil, false) when any
// segment is missing or addresses the wrong container kind.
func Get(tree any, path string) (any, bool) {
	return GetSegs(tree, Split(path))
}

// GetSegs is Get over pre-split segments.
func GetSegs(tree any, segs []string) (any, bool) {
	cur := tree
	for _, seg := range segs {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, ok := Index(seg)
			if !ok || i >= len(c) {
				return nil, false
			}
			cur = c[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Set writes v at path inside tree, creating intermediate containers as
// needed. A numeric next segment materializes a slice, anything else a map.
// Setting an index beyond the current slice length grows the slice, filling
// intermediate slots with nil. Existing containers of the wrong kind are
// replaced.
func Set(tree map[string]any, path string, v any) {
	segs := Split(path)
	if len(segs) == 0 {
		return
	}
	setSegs(tree, segs, v)
}

func setSegs(container any, segs []string, v any) any {
	seg := segs[0]
	if i, ok := Index(seg); ok {
		sl, _ := container.([]any)
		for len(sl) <= i {
			sl = append(sl, nil)
		}
		if len(segs) == 1 {
			sl[i] = v
		} else {
			sl[i] = setSegs(childFor(sl[i], segs[1]), segs[1:], v)
		}
		return sl
	}
	m, ok := container.(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	if len(segs) == 1 {
		m[seg] = v
	} else {
		m[seg] = setSegs(childFor(m[seg], segs[1]), segs[1:], v)
	}
	return m
}

// childFor returns the existing child when its kind matches the next
// segment, or nil so the caller materializes the right container.
func childFor(child any, nextSeg string) any {
	if _, isIdx := Index(nextSeg); isIdx {
		if sl, ok := child.([]any); ok {
			return sl
		}
		return []any(nil)
	}
	if m, ok := child.(map[string]any); ok {
		return m
	}
	return nil
}

// Unset removes the leaf at path and prunes any now-empty ancestor
// container. Slice elements are cleared to nil rather than shifted; a slice
// whose slots are all nil is pruned like an empty map.
func Unset(tree map[string]any, path string) {
	segs := Split(path)
	if len(segs) == 0 {
		return
	}
	unsetSegs(tree, segs)
}

// unsetSegs reports whether the container is empty after removal so the
// parent can prune it.
func unsetSegs(container any, segs []string) bool {
	seg := segs[0]
	switch c := container.(type) {
	case map[string]any:
		child, ok := c[seg]
		if !ok {
			return emptyContainer(c)
		}
		if len(segs) == 1 {
			delete(c, seg)
		} else if unsetSegs(child, segs[1:]) {
			delete(c, seg)
		}
		return emptyContainer(c)
	case []any:
		i, ok := Index(seg)
		if !ok || i >= len(c) {
			return emptyContainer(c)
		}
		if len(segs) == 1 {
			c[i] = nil
		} else if unsetSegs(c[i], segs[1:]) {
			c[i] = nil
		}
		return emptyContainer(c)
	default:
		return false
	}
}

func emptyContainer(v any) bool {
	switch c := v.(type) {
	case map[string]any:
		return len(c) == 0
	case []any:
		for _, e := range c {
			if e != nil {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// HasPrefix reports whether path is equal to or a descendant of prefix,
// comparing whole segments so "test1" never matches a prefix of "test".
func HasPrefix(path, prefix string) bool {
	ps := Split(path)
	qs := Split(prefix)
	if len(qs) > len(ps) {
		return false
	}
	for i, q := range qs {
		if ps[i] != q {
			return false
		}
	}
	return true
}

// Related reports whether either path is a segment-prefix of the other.
// Watch subscriptions use this so a watcher of a parent sees descendant
// changes and a watcher of a leaf sees whole-subtree replacement.
func Related(a, b string) bool {
	return HasPrefix(a, b) || HasPrefix(b, a)
}
