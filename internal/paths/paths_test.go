package paths

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a.b.c", []string{"a", "b", "c"}},
		{"a[0].b", []string{"a", "0", "b"}},
		{"a.0.b", []string{"a", "0", "b"}},
		{"a..b", []string{"a", "b"}},
		{"list[2][3]", []string{"list", "2", "3"}},
	}
	for _, c := range cases {
		if got := Split(c.in); !reflect.DeepEqual(got, c.want) {
			t.Errorf("Split(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	tree := map[string]any{}
	for _, p := range []string{"a", "a", "x.y.z", "list.0.value", "list.2.value", "deep.0.1.k"} {
		Set(tree, p, "v:"+p)
		got, ok := Get(tree, p)
		if !ok || got != "v:"+p {
			t.Fatalf("Get(Set(%q)) = %v, %v", p, got, ok)
		}
	}
}

func TestSetGrowsArray(t *testing.T) {
	tree := map[string]any{}
	Set(tree, "list.3", "x")
	sl, ok := tree["list"].([]any)
	if !ok {
		t.Fatalf("list is %T, want []any", tree["list"])
	}
	if len(sl) != 4 {
		t.Fatalf("len = %d, want 4", len(sl))
	}
	for i := 0; i < 3; i++ {
		if sl[i] != nil {
			t.Errorf("slot %d = %v, want nil", i, sl[i])
		}
	}
	if sl[3] != "x" {
		t.Errorf("slot 3 = %v, want x", sl[3])
	}
}

func TestSetReplacesWrongKind(t *testing.T) {
	tree := map[string]any{"a": "scalar"}
	Set(tree, "a.b", 1)
	if v, ok := Get(tree, "a.b"); !ok || v != 1 {
		t.Fatalf("a.b = %v, %v", v, ok)
	}
}

func TestGetMissing(t *testing.T) {
	tree := map[string]any{"a": map[string]any{"b": 1}, "list": []any{1}}
	for _, p := range []string{"a.c", "a.b.c", "list.5", "list.x", "nope"} {
		if _, ok := Get(tree, p); ok {
			t.Errorf("Get(%q) unexpectedly ok", p)
		}
	}
}

func TestUnsetPrunesEmptyAncestors(t *testing.T) {
	tree := map[string]any{}
	Set(tree, "a.b.c", 1)
	Set(tree, "a.keep", 2)
	Unset(tree, "a.b.c")
	if _, ok := Get(tree, "a.b"); ok {
		t.Fatalf("a.b should be pruned")
	}
	if v, ok := Get(tree, "a.keep"); !ok || v != 2 {
		t.Fatalf("a.keep lost: %v, %v", v, ok)
	}
	Unset(tree, "a.keep")
	if _, ok := tree["a"]; ok {
		t.Fatalf("a should be pruned after last child removed")
	}
}

func TestUnsetArraySlots(t *testing.T) {
	tree := map[string]any{}
	Set(tree, "list.0", "a")
	Set(tree, "list.1", "b")
	Unset(tree, "list.0")
	sl := tree["list"].([]any)
	if sl[0] != nil || sl[1] != "b" {
		t.Fatalf("slots = %v", sl)
	}
	Unset(tree, "list.1")
	if _, ok := tree["list"]; ok {
		t.Fatalf("all-nil array should be pruned")
	}
}

func TestUnsetMalformedIsNoop(t *testing.T) {
	tree := map[string]any{"a": 1}
	Unset(tree, "")
	Unset(tree, "b.c.d")
	if tree["a"] != 1 {
		t.Fatalf("tree mutated by malformed unset")
	}
}

func TestHasPrefixSegments(t *testing.T) {
	cases := []struct {
		path, prefix string
		want         bool
	}{
		{"test.sub", "test", true},
		{"test", "test", true},
		{"test1", "test", false},
		{"test", "test.sub", false},
		{"list.0.value", "list", true},
		{"list.0.value", "list.0", true},
	}
	for _, c := range cases {
		if got := HasPrefix(c.path, c.prefix); got != c.want {
			t.Errorf("HasPrefix(%q, %q) = %v, want %v", c.path, c.prefix, got, c.want)
		}
	}
	if !Related("test", "test.sub") || !Related("test.sub", "test") || Related("test", "test1") {
		t.Errorf("Related symmetry broken")
	}
}
