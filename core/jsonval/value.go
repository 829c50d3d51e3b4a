// Package jsonval provides a typed JSON tree for structural comparison
// and validation. Parsing untyped documents into a closed set of node
// kinds lets callers switch exhaustively instead of probing interface{}.
package jsonval

import (
	"bytes"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
)

// Kind identifies the JSON node type
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is one node of a parsed JSON document
type Value struct {
	kind Kind
	obj  map[string]*Value
	arr  []*Value
	str  string
	num  string
	boo  bool
}

// Null returns the null value
func Null() *Value {
	return &Value{kind: KindNull}
}

// Bool returns a boolean value
func Bool(b bool) *Value {
	return &Value{kind: KindBool, boo: b}
}

// Number returns a numeric value from its literal text
func Number(literal string) *Value {
	return &Value{kind: KindNumber, num: literal}
}

// String returns a string value
func String(s string) *Value {
	return &Value{kind: KindString, str: s}
}

// Array returns an array value
func Array(items ...*Value) *Value {
	return &Value{kind: KindArray, arr: items}
}

// Object returns an object value
func Object(fields map[string]*Value) *Value {
	if fields == nil {
		fields = make(map[string]*Value)
	}
	return &Value{kind: KindObject, obj: fields}
}

// Kind returns the node type
func (v *Value) Kind() Kind {
	return v.kind
}

// Keys returns object keys in sorted order
func (v *Value) Keys() []string {
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Field returns the named object field
func (v *Value) Field(key string) (*Value, bool) {
	child, ok := v.obj[key]
	return child, ok
}

// Items returns array elements in document order
func (v *Value) Items() []*Value {
	return v.arr
}

// Len returns the element count for objects and arrays
func (v *Value) Len() int {
	if v.kind == KindObject {
		return len(v.obj)
	}
	return len(v.arr)
}

// Str returns the string content
func (v *Value) Str() string {
	return v.str
}

// NumberLiteral returns the exact numeric literal as it appeared
func (v *Value) NumberLiteral() string {
	return v.num
}

// BoolVal returns the boolean content
func (v *Value) BoolVal() bool {
	return v.boo
}

// Parse decodes a JSON document into a Value tree. Numeric literals are
// preserved exactly so re-serialization does not reformat them.
func Parse(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Parsing("invalid JSON document", err)
	}

	var trailing interface{}
	if err := dec.Decode(&trailing); err == nil {
		return nil, errors.Parsing("trailing content after JSON document", nil)
	}

	return fromAny(raw), nil
}

func fromAny(raw interface{}) *Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case json.Number:
		return Number(t.String())
	case string:
		return String(t)
	case []interface{}:
		items := make([]*Value, len(t))
		for i, item := range t {
			items[i] = fromAny(item)
		}
		return Array(items...)
	case map[string]interface{}:
		fields := make(map[string]*Value, len(t))
		for k, item := range t {
			fields[k] = fromAny(item)
		}
		return Object(fields)
	default:
		return Null()
	}
}

// Equal reports whether two values are structurally identical
func Equal(a, b *Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.boo == b.boo
	case KindNumber:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.obj) != len(b.obj) {
			return false
		}
		for k, av := range a.obj {
			bv, ok := b.obj[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
