// Package document provides an order-preserving JSON document model.
//
// encoding/json's map type cannot express member order, which is the whole
// point of a key-order policy, so parsing goes through the token decoder and
// objects are kept as an insertion-ordered key list alongside the value map.
// Scalars are held as string, json.Number, bool, or nil; numbers keep their
// source spelling so re-encoding never rewrites untouched values.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Object is a JSON object that remembers member order.
type Object struct {
	keys   []string
	values map[string]interface{}
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{values: make(map[string]interface{})}
}

// Len returns the number of members.
func (o *Object) Len() int { return len(o.keys) }

// Keys returns the member names in order. The slice is a copy.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Get returns the value for key and whether it exists.
func (o *Object) Get(key string) (interface{}, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key exists.
func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Set assigns key to v. New keys are appended; existing keys keep their slot.
func (o *Object) Set(key string, v interface{}) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Delete removes key, reporting whether it existed.
func (o *Object) Delete(key string) bool {
	if _, ok := o.values[key]; !ok {
		return false
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Parse decodes data into an order-preserving value tree.
func Parse(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected content after top-level value")
	}
	return v, nil
}

// ParseObject decodes data and requires the top-level value to be an object.
func ParseObject(data []byte) (*Object, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("top-level value is not an object")
	}
	return obj, nil
}

func parseValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string")
				}
				val, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []interface{}{}
			for dec.More() {
				val, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	default:
		// string, json.Number, bool, or nil
		return tok, nil
	}
}

// EncodePretty renders v with two-space indentation and one member per line,
// the exact shape the line-break passes scan for.
func EncodePretty(v interface{}) string {
	var b strings.Builder
	encode(&b, v, 0)
	return b.String()
}

func encode(b *strings.Builder, v interface{}, depth int) {
	switch t := v.(type) {
	case *Object:
		if t.Len() == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{\n")
		for i, k := range t.keys {
			b.WriteString(strings.Repeat("  ", depth+1))
			b.WriteString(encodeString(k))
			b.WriteString(": ")
			encode(b, t.values[k], depth+1)
			if i < len(t.keys)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("}")
	case []interface{}:
		if len(t) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[\n")
		for i, e := range t {
			b.WriteString(strings.Repeat("  ", depth+1))
			encode(b, e, depth+1)
			if i < len(t)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("]")
	case string:
		b.WriteString(encodeString(t))
	case json.Number:
		b.WriteString(t.String())
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case nil:
		b.WriteString("null")
	default:
		// Programmatically constructed scalar; fall back to encoding/json.
		raw, err := json.Marshal(t)
		if err != nil {
			b.WriteString("null")
			return
		}
		b.Write(raw)
	}
}

func encodeString(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

// Clone deep-copies a value tree.
func Clone(v interface{}) interface{} {
	switch t := v.(type) {
	case *Object:
		out := NewObject()
		for _, k := range t.keys {
			out.Set(k, Clone(t.values[k]))
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	default:
		return t
	}
}

// Equal reports deep value equality. Object comparison ignores member order;
// numbers compare numerically so 1.0 and 1 are the same value.
func Equal(a, b interface{}) bool {
	switch ta := a.(type) {
	case *Object:
		tb, ok := b.(*Object)
		if !ok || ta.Len() != tb.Len() {
			return false
		}
		for _, k := range ta.keys {
			bv, ok := tb.Get(k)
			if !ok || !Equal(ta.values[k], bv) {
				return false
			}
		}
		return true
	case []interface{}:
		tb, ok := b.([]interface{})
		if !ok || len(ta) != len(tb) {
			return false
		}
		for i := range ta {
			if !Equal(ta[i], tb[i]) {
				return false
			}
		}
		return true
	case json.Number:
		tb, ok := b.(json.Number)
		if !ok {
			return false
		}
		if ta.String() == tb.String() {
			return true
		}
		fa, errA := ta.Float64()
		fb, errB := tb.Float64()
		return errA == nil && errB == nil && fa == fb
	default:
		return a == b
	}
}

// splitPath normalizes a dotted path, tolerating a "$." prefix.
func splitPath(path string) []string {
	p := strings.TrimSpace(path)
	p = strings.TrimPrefix(p, "$")
	p = strings.TrimPrefix(p, ".")
	var segs []string
	for _, s := range strings.Split(p, ".") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// GetPath resolves a dotted key path from root, returning the value and
// whether every segment resolved through object contexts.
func GetPath(root interface{}, path string) (interface{}, bool) {
	cur := root
	for _, seg := range splitPath(path) {
		obj, ok := cur.(*Object)
		if !ok {
			return nil, false
		}
		v, ok := obj.Get(seg)
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// SetPath assigns val at a dotted path, creating intermediate objects as
// needed. A segment that resolves to a non-object aborts silently; path
// shapes are policy input, not runtime failures.
func SetPath(root interface{}, path string, val interface{}) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return
	}
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		obj, ok := cur.(*Object)
		if !ok {
			return
		}
		next, ok := obj.Get(seg)
		if !ok {
			next = NewObject()
			obj.Set(seg, next)
		}
		cur = next
	}
	if obj, ok := cur.(*Object); ok {
		obj.Set(segs[len(segs)-1], val)
	}
}

// RemovePath deletes the member at a dotted path when it resolves.
func RemovePath(root interface{}, path string) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return
	}
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		obj, ok := cur.(*Object)
		if !ok {
			return
		}
		next, ok := obj.Get(seg)
		if !ok {
			return
		}
		cur = next
	}
	if obj, ok := cur.(*Object); ok {
		obj.Delete(segs[len(segs)-1])
	}
}

// SortedKeys returns keys sorted lexicographically ascending.
func SortedKeys(keys []string) []string {
	out := make([]string, len(keys))
	copy(out, keys)
	sort.Strings(out)
	return out
}
