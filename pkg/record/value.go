package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the JSON shape of a Value.
type Kind int

// Value kinds. KindAbsent is the zero value and means the member did not
// exist at all, which is distinct from an explicit JSON null.
const (
	KindAbsent Kind = iota
	KindNull
	KindString
	KindNumber
	KindBool
	KindMap
	KindList
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return "absent"
	}
}

// Value is a decoded JSON datum whose shape is fixed when the record is read.
// Detectors switch on Kind (or use the typed accessors) instead of probing
// interface{} values.
//
// The zero Value is absent.
type Value struct {
	kind Kind
	str  string // string contents, or the literal text of a number
	b    bool
	m    map[string]Value
	list []Value
}

// ValueOf converts a decoded Go value (as produced by encoding/json with
// UseNumber, or written by hand in tests) into a Value. Unsupported types
// become null.
func ValueOf(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{kind: KindNull}
	case Value:
		return t
	case string:
		return Value{kind: KindString, str: t}
	case json.Number:
		return Value{kind: KindNumber, str: t.String()}
	case float64:
		return Value{kind: KindNumber, str: strconv.FormatFloat(t, 'f', -1, 64)}
	case int:
		return Value{kind: KindNumber, str: strconv.Itoa(t)}
	case int64:
		return Value{kind: KindNumber, str: strconv.FormatInt(t, 10)}
	case bool:
		return Value{kind: KindBool, b: t}
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, x := range t {
			m[k] = ValueOf(x)
		}
		return Value{kind: KindMap, m: m}
	case []any:
		list := make([]Value, len(t))
		for i, x := range t {
			list[i] = ValueOf(x)
		}
		return Value{kind: KindList, list: list}
	case []string:
		list := make([]Value, len(t))
		for i, x := range t {
			list[i] = Value{kind: KindString, str: x}
		}
		return Value{kind: KindList, list: list}
	default:
		return Value{kind: KindNull}
	}
}

// String wraps s as a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Kind returns the shape of v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the member did not exist.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsNull reports whether the member was an explicit JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string contents when v is a string.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Map returns the members of v when it is an object.
func (v Value) Map() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// List returns the elements of v when it is an array.
func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// Field returns member key of an object. Any other shape, or a missing
// member, yields an absent Value.
func (v Value) Field(key string) Value {
	if v.kind != KindMap {
		return Value{}
	}
	return v.m[key]
}

// Has reports whether v is an object containing key.
func (v Value) Has(key string) bool {
	if v.kind != KindMap {
		return false
	}
	_, ok := v.m[key]
	return ok
}

// Len returns the number of elements of a list or members of a map, and 0
// for every other kind.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.m)
	}
	return 0
}

// Truthy reports whether v would be considered a non-empty value: a
// non-empty string, a non-zero number, true, or a non-empty container.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindString:
		return v.str != ""
	case KindNumber:
		return strings.Trim(v.str, "0.-") != ""
	case KindBool:
		return v.b
	case KindMap, KindList:
		return v.Len() > 0
	}
	return false
}

// Text renders v as plain text. Strings are returned verbatim, numbers and
// booleans in their JSON spelling, containers as compact JSON, and absent or
// null values as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindString, KindNumber:
		return v.str
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindMap, KindList:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
	return ""
}

// Interface converts v back to plain Go values.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return json.Number(v.str)
	case KindBool:
		return v.b
	case KindMap:
		m := make(map[string]any, len(v.m))
		for k, x := range v.m {
			m[k] = x.Interface()
		}
		return m
	case KindList:
		list := make([]any, len(v.list))
		for i, x := range v.list {
			list[i] = x.Interface()
		}
		return list
	}
	return nil
}

// MarshalJSON encodes v as the JSON it was decoded from. Map members are
// written in sorted key order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := v.m[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, x := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			xb, err := x.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(xb)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindAbsent, KindNull:
		return []byte("null"), nil
	}
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes exactly one JSON document into v. Anything but
// whitespace after it is an error.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("unexpected data after JSON value at offset %d", dec.InputOffset())
	}
	*v = ValueOf(raw)
	return nil
}
