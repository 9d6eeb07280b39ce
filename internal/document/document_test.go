package document

import (
	"encoding/json"
	"testing"
)

func TestParsePreservesKeyOrder(t *testing.T) {
	src := `{"zeta": 1, "alpha": {"b": 2, "a": 3}, "mid": [1, 2]}`
	obj, err := ParseObject([]byte(src))
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}

	want := []string{"zeta", "alpha", "mid"}
	got := obj.Keys()
	if len(got) != len(want) {
		t.Fatalf("key count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	nested, _ := obj.Get("alpha")
	nestedObj, ok := nested.(*Object)
	if !ok {
		t.Fatalf("alpha is %T, want *Object", nested)
	}
	if keys := nestedObj.Keys(); keys[0] != "b" || keys[1] != "a" {
		t.Errorf("nested keys = %v, want [b a]", keys)
	}
}

func TestParseRejectsTrailingContent(t *testing.T) {
	if _, err := Parse([]byte(`{"a": 1} {"b": 2}`)); err == nil {
		t.Fatal("expected error for trailing content")
	}
}

func TestParseObjectRejectsNonObject(t *testing.T) {
	for _, src := range []string{`[1, 2]`, `"text"`, `42`, `null`} {
		if _, err := ParseObject([]byte(src)); err == nil {
			t.Errorf("ParseObject(%s) succeeded, want error", src)
		}
	}
}

func TestParseKeepsNumberSpelling(t *testing.T) {
	obj, err := ParseObject([]byte(`{"a": 1.50, "b": 3}`))
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}
	a, _ := obj.Get("a")
	if n, ok := a.(json.Number); !ok || n.String() != "1.50" {
		t.Errorf("a = %v (%T), want json.Number 1.50", a, a)
	}
}

func TestEncodePrettyShape(t *testing.T) {
	obj, err := ParseObject([]byte(`{"name":"pkg","deps":{"a":"1"},"tags":["x","y"],"empty":{}}`))
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}
	want := `{
  "name": "pkg",
  "deps": {
    "a": "1"
  },
  "tags": [
    "x",
    "y"
  ],
  "empty": {}
}`
	if got := EncodePretty(obj); got != want {
		t.Errorf("EncodePretty mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	src := `{
  "name": "demo",
  "version": "1.0.0",
  "scripts": {
    "build": "make",
    "test": "make test"
  },
  "count": 3,
  "flag": true,
  "nothing": null
}`
	v, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := EncodePretty(v); got != src {
		t.Errorf("round trip mismatch:\ngot:\n%s\nwant:\n%s", got, src)
	}
}

func TestSetAndDelete(t *testing.T) {
	obj := NewObject()
	obj.Set("a", "1")
	obj.Set("b", "2")
	obj.Set("a", "3") // existing key keeps its slot

	if keys := obj.Keys(); keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("keys = %v, want [a b]", keys)
	}
	if v, _ := obj.Get("a"); v != "3" {
		t.Errorf("a = %v, want 3", v)
	}

	if !obj.Delete("a") {
		t.Fatal("Delete(a) = false, want true")
	}
	if obj.Delete("missing") {
		t.Error("Delete(missing) = true, want false")
	}
	if obj.Has("a") || obj.Len() != 1 {
		t.Errorf("after delete: Has(a)=%v Len=%d", obj.Has("a"), obj.Len())
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig, _ := ParseObject([]byte(`{"outer": {"inner": "x"}, "arr": [1]}`))
	clone := Clone(orig).(*Object)

	inner, _ := GetPath(clone, "outer")
	inner.(*Object).Set("inner", "mutated")

	v, _ := GetPath(orig, "outer.inner")
	if v != "x" {
		t.Errorf("original mutated through clone: %v", v)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"same", `{"a":1,"b":2}`, `{"a":1,"b":2}`, true},
		{"order ignored", `{"a":1,"b":2}`, `{"b":2,"a":1}`, true},
		{"numeric forms", `{"a":1.0}`, `{"a":1}`, true},
		{"different value", `{"a":1}`, `{"a":2}`, false},
		{"extra key", `{"a":1}`, `{"a":1,"b":2}`, false},
		{"array order matters", `{"a":[1,2]}`, `{"a":[2,1]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := Parse([]byte(tt.a))
			b, _ := Parse([]byte(tt.b))
			if got := Equal(a, b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPathOperations(t *testing.T) {
	obj, _ := ParseObject([]byte(`{"pkg": {"meta": {"name": "demo"}}}`))

	if v, ok := GetPath(obj, "pkg.meta.name"); !ok || v != "demo" {
		t.Errorf("GetPath = %v, %v", v, ok)
	}
	if v, ok := GetPath(obj, "$.pkg.meta.name"); !ok || v != "demo" {
		t.Errorf("GetPath with $. prefix = %v, %v", v, ok)
	}
	if _, ok := GetPath(obj, "pkg.missing.name"); ok {
		t.Error("GetPath resolved through missing segment")
	}
	if _, ok := GetPath(obj, "pkg.meta.name.deeper"); ok {
		t.Error("GetPath resolved through a string")
	}

	SetPath(obj, "pkg.meta.version", "1.0")
	if v, _ := GetPath(obj, "pkg.meta.version"); v != "1.0" {
		t.Errorf("SetPath result = %v", v)
	}

	SetPath(obj, "new.branch.leaf", true)
	if v, ok := GetPath(obj, "new.branch.leaf"); !ok || v != true {
		t.Errorf("SetPath with intermediates = %v, %v", v, ok)
	}

	// Non-object in the middle aborts without panicking.
	SetPath(obj, "pkg.meta.name.sub", "x")
	if v, _ := GetPath(obj, "pkg.meta.name"); v != "demo" {
		t.Errorf("SetPath through scalar changed value: %v", v)
	}

	RemovePath(obj, "pkg.meta.name")
	if _, ok := GetPath(obj, "pkg.meta.name"); ok {
		t.Error("RemovePath left the member in place")
	}
	RemovePath(obj, "pkg.missing.deep") // no-op
}
