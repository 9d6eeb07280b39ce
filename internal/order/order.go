// Package order implements the top-level key-order normalizer.
package order

import (
	"sort"

	"github.com/nazahex/rigra/internal/document"
	"github.com/nazahex/rigra/internal/policy"
)

// Normalize builds a new object with keys arranged per spec: top groups in
// declared order, then sub groups, then all remaining keys sorted
// lexicographically. The input object is not modified. changed is true iff
// at least one declared key was present; a key claimed by more than one
// group stays where the first group put it.
//
// Sub groups are visited in sorted group-name order so repeated runs agree;
// their order relative to each other is otherwise not a contract and
// policies must not depend on it. Nested objects are left untouched.
func Normalize(obj *document.Object, spec *policy.OrderSpec) (*document.Object, bool) {
	out := document.NewObject()
	taken := make(map[string]bool)
	changed := false

	move := func(key string) {
		if taken[key] {
			return
		}
		if v, ok := obj.Get(key); ok {
			out.Set(key, v)
			taken[key] = true
			changed = true
		}
	}

	for _, group := range spec.Top {
		for _, key := range group {
			move(key)
		}
	}

	subNames := make([]string, 0, len(spec.Sub))
	for name := range spec.Sub {
		subNames = append(subNames, name)
	}
	sort.Strings(subNames)
	for _, name := range subNames {
		for _, key := range spec.Sub[name] {
			move(key)
		}
	}

	var rest []string
	for _, key := range obj.Keys() {
		if !taken[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		v, _ := obj.Get(key)
		out.Set(key, v)
	}

	return out, changed
}

// Conforms reports whether obj's key sequence already matches what Normalize
// would produce. Used by lint for order-conformance without mutation.
func Conforms(obj *document.Object, spec *policy.OrderSpec) bool {
	normalized, _ := Normalize(obj, spec)
	actual := obj.Keys()
	expected := normalized.Keys()
	if len(actual) != len(expected) {
		return false
	}
	for i := range actual {
		if actual[i] != expected[i] {
			return false
		}
	}
	return true
}
