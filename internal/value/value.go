// Package value implements the opaque JSON value tree the core depends on.
//
// It provides the capability set get_type, get_string, get_number,
// get_boolean, object_get/set/delete/keys, array_add/get/size, parse,
// stringify, as a tagged variant backed by encoding/json. The request-handling
// path does not go through it: internal/mcp and internal/dispatcher decode and
// encode JSON-RPC payloads with encoding/json directly.
package value

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Type enumerates the JSON value kinds a Value can hold.
type Type int

const (
	TypeNull Type = iota
	TypeString
	TypeNumber
	TypeBool
	TypeObject
	TypeArray
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value wraps a decoded JSON value and exposes the capability set described
// in the package doc. The zero Value is null.
type Value struct {
	v any
}

// Of wraps an already-decoded Go value (string, float64, bool, nil,
// map[string]any, or []any) as a Value without re-parsing.
func Of(v any) Value {
	return Value{v: normalize(v)}
}

// normalize unwraps a Value passed to Of so its underlying decoded value is
// stored. Any other value, maps and slices included, is stored as given;
// nested elements are not walked or converted.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case []any:
		return t
	case Value:
		return t.v
	default:
		return v
	}
}

// Parse decodes raw JSON bytes into a Value tree.
func Parse(raw []byte) (Value, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Value{}, fmt.Errorf("value: parse: %w", err)
	}
	return Value{v: v}, nil
}

// Stringify serializes a Value back to compact JSON.
func Stringify(v Value) ([]byte, error) {
	return json.Marshal(v.v)
}

// NewObject returns an empty object Value.
func NewObject() Value {
	return Value{v: map[string]any{}}
}

// NewArray returns an empty array Value.
func NewArray() Value {
	return Value{v: []any{}}
}

// GetType reports the JSON kind currently held.
func (v Value) GetType() Type {
	switch v.v.(type) {
	case nil:
		return TypeNull
	case string:
		return TypeString
	case float64, int, int64:
		return TypeNumber
	case bool:
		return TypeBool
	case map[string]any:
		return TypeObject
	case []any:
		return TypeArray
	default:
		return TypeNull
	}
}

// GetString returns the string value and whether v actually holds a string.
func (v Value) GetString() (string, bool) {
	s, ok := v.v.(string)
	return s, ok
}

// GetNumber returns the numeric value and whether v actually holds a number.
func (v Value) GetNumber() (float64, bool) {
	switch n := v.v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// GetBoolean returns the boolean value and whether v actually holds a bool.
func (v Value) GetBoolean() (bool, bool) {
	b, ok := v.v.(bool)
	return b, ok
}

// IsNull reports whether v holds JSON null (or the zero Value).
func (v Value) IsNull() bool {
	return v.v == nil
}

// ObjectGet looks up key in an object Value. Returns the zero Value and
// false if v is not an object or the key is absent.
func (v Value) ObjectGet(key string) (Value, bool) {
	obj, ok := v.v.(map[string]any)
	if !ok {
		return Value{}, false
	}
	raw, ok := obj[key]
	if !ok {
		return Value{}, false
	}
	return Value{v: raw}, true
}

// ObjectSet sets key to val on an object Value, returning the updated Value.
// If v does not currently hold an object, it is replaced with a fresh one.
func (v Value) ObjectSet(key string, val Value) Value {
	obj, ok := v.v.(map[string]any)
	if !ok {
		obj = map[string]any{}
	}
	obj[key] = val.v
	return Value{v: obj}
}

// ObjectDelete removes key from an object Value, returning the updated Value.
func (v Value) ObjectDelete(key string) Value {
	obj, ok := v.v.(map[string]any)
	if !ok {
		return v
	}
	delete(obj, key)
	return Value{v: obj}
}

// ObjectKeys returns an object's keys in sorted order for deterministic
// iteration. Returns nil if v is not an object.
func (v Value) ObjectKeys() []string {
	obj, ok := v.v.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ArrayGet returns the element at index i. Returns the zero Value and false
// if v is not an array or i is out of range.
func (v Value) ArrayGet(i int) (Value, bool) {
	arr, ok := v.v.([]any)
	if !ok || i < 0 || i >= len(arr) {
		return Value{}, false
	}
	return Value{v: arr[i]}, true
}

// ArraySize returns the number of elements in an array Value, or 0 if v is
// not an array.
func (v Value) ArraySize() int {
	arr, ok := v.v.([]any)
	if !ok {
		return 0
	}
	return len(arr)
}

// ArrayAdd appends val to an array Value, returning the updated Value. If v
// does not currently hold an array, it is replaced with a fresh one.
func (v Value) ArrayAdd(val Value) Value {
	arr, ok := v.v.([]any)
	if !ok {
		arr = []any{}
	}
	arr = append(arr, val.v)
	return Value{v: arr}
}

// Raw exposes the underlying decoded value for callers that need to hand it
// to encoding/json directly (e.g. re-marshaling into a typed struct).
func (v Value) Raw() any {
	return v.v
}
