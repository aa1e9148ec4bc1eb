// Package payload decodes listing responses into an ordered tree of tagged
// values and walks it for product records.
package payload

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	List
	Map
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case List:
		return "list"
	case Map:
		return "map"
	default:
		return "unknown"
	}
}

// Member is one key/value pair of a Map, kept in document order.
type Member struct {
	Key   string
	Value *Value
}

// Value is a node of a decoded document. Only the field matching Kind is set.
type Value struct {
	Kind    Kind
	boolean bool
	number  json.Number
	str     string
	items   []*Value
	members []Member
}

// NewNull returns a null value.
func NewNull() *Value { return &Value{Kind: Null} }

// NewBool returns a boolean value.
func NewBool(b bool) *Value { return &Value{Kind: Bool, boolean: b} }

// NewNumber returns a numeric value from its literal text.
func NewNumber(n json.Number) *Value { return &Value{Kind: Number, number: n} }

// NewString returns a string value.
func NewString(s string) *Value { return &Value{Kind: String, str: s} }

// NewList returns a list value.
func NewList(items ...*Value) *Value { return &Value{Kind: List, items: items} }

// NewMap returns a map value with members in the given order.
func NewMap(members ...Member) *Value { return &Value{Kind: Map, members: members} }

func (v *Value) IsNull() bool { return v == nil || v.Kind == Null }
func (v *Value) IsMap() bool  { return v != nil && v.Kind == Map }
func (v *Value) IsList() bool { return v != nil && v.Kind == List }

// Items returns the elements of a list, or nil.
func (v *Value) Items() []*Value {
	if !v.IsList() {
		return nil
	}
	return v.items
}

// Members returns the members of a map in document order, or nil.
func (v *Value) Members() []Member {
	if !v.IsMap() {
		return nil
	}
	return v.members
}

// Get returns the member value for key, or nil when absent or v is not a map.
func (v *Value) Get(key string) *Value {
	for _, m := range v.Members() {
		if m.Key == key {
			return m.Value
		}
	}
	return nil
}

// Path follows nested map keys and returns nil as soon as one is missing.
func (v *Value) Path(keys ...string) *Value {
	cur := v
	for _, k := range keys {
		cur = cur.Get(k)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// First returns the first member of keys that is present and truthy.
func (v *Value) First(keys ...string) *Value {
	for _, k := range keys {
		if c := v.Get(k); c.Truthy() {
			return c
		}
	}
	return nil
}

// FirstString returns the first non-empty string found under keys.
func (v *Value) FirstString(keys ...string) string {
	for _, k := range keys {
		if s := v.Get(k).Str(); s != "" {
			return s
		}
	}
	return ""
}

// Truthy reports whether the value is present and non-empty.
func (v *Value) Truthy() bool {
	if v == nil {
		return false
	}
	switch v.Kind {
	case Bool:
		return v.boolean
	case Number:
		f, err := v.number.Float64()
		return err != nil || f != 0
	case String:
		return v.str != ""
	case List:
		return len(v.items) > 0
	case Map:
		return len(v.members) > 0
	default:
		return false
	}
}

// Str returns the string content, or "" for any other kind.
func (v *Value) Str() string {
	if v == nil || v.Kind != String {
		return ""
	}
	return v.str
}

// BoolValue reports whether v is the boolean true.
func (v *Value) BoolValue() bool {
	return v != nil && v.Kind == Bool && v.boolean
}

// Num returns the literal text of a number.
func (v *Value) Num() (json.Number, bool) {
	if v == nil || v.Kind != Number {
		return "", false
	}
	return v.number, true
}

// Int returns the value as an integer when it is an integral number.
func (v *Value) Int() (int, bool) {
	n, ok := v.Num()
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(n.String()))
	if err != nil {
		return 0, false
	}
	return i, true
}
