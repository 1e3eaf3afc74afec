// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package document

import (
	"sort"
)

// Kind - type tag of a Value
type Kind uint8

// value kinds
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

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
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value - one node of a document tree
//
// nodes are mutable so reference rewriting can replace leaves in place
type Value struct {
	kind    Kind
	boolean bool
	number  float64
	text    string
	items   []*Value
	fields  map[string]*Value
}

// Null - a null leaf
func Null() *Value { return &Value{kind: KindNull} }

// Bool - a boolean leaf
func Bool(b bool) *Value { return &Value{kind: KindBool, boolean: b} }

// Number - a numeric leaf
func Number(n float64) *Value { return &Value{kind: KindNumber, number: n} }

// String - a text leaf
func String(s string) *Value { return &Value{kind: KindString, text: s} }

// List - a list node
func List(items ...*Value) *Value {
	if nil == items {
		items = []*Value{}
	}
	return &Value{kind: KindList, items: items}
}

// Map - an empty map node
func Map() *Value {
	return &Value{kind: KindMap, fields: make(map[string]*Value)}
}

// Kind - the type tag
func (v *Value) Kind() Kind {
	if nil == v {
		return KindNull
	}
	return v.kind
}

// IsNull - true for null or a nil pointer
func (v *Value) IsNull() bool { return KindNull == v.Kind() }

// AsBool - the boolean and whether the value is one
func (v *Value) AsBool() (bool, bool) {
	if KindBool != v.Kind() {
		return false, false
	}
	return v.boolean, true
}

// AsNumber - the number and whether the value is one
func (v *Value) AsNumber() (float64, bool) {
	if KindNumber != v.Kind() {
		return 0, false
	}
	return v.number, true
}

// AsString - the text and whether the value is one
func (v *Value) AsString() (string, bool) {
	if KindString != v.Kind() {
		return "", false
	}
	return v.text, true
}

// Items - list elements, nil for any other kind
func (v *Value) Items() []*Value {
	if KindList != v.Kind() {
		return nil
	}
	return v.items
}

// Append - add to a list
func (v *Value) Append(item *Value) *Value {
	if KindList == v.Kind() {
		v.items = append(v.items, item)
	}
	return v
}

// Field - a map member
func (v *Value) Field(name string) (*Value, bool) {
	if KindMap != v.Kind() {
		return nil, false
	}
	f, ok := v.fields[name]
	return f, ok
}

// Set - add or replace a map member, returns the map for chaining
func (v *Value) Set(name string, field *Value) *Value {
	if KindMap == v.Kind() {
		v.fields[name] = field
	}
	return v
}

// Delete - remove a map member
func (v *Value) Delete(name string) {
	if KindMap == v.Kind() {
		delete(v.fields, name)
	}
}

// Keys - map member names in ascending order
func (v *Value) Keys() []string {
	if KindMap != v.Kind() {
		return nil
	}
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len - number of list items or map members
func (v *Value) Len() int {
	switch v.Kind() {
	case KindList:
		return len(v.items)
	case KindMap:
		return len(v.fields)
	}
	return 0
}

// Replace - overwrite this node with a copy of another
func (v *Value) Replace(other *Value) {
	if nil == other {
		other = Null()
	}
	*v = *other.Clone()
}

// Clone - deep copy
func (v *Value) Clone() *Value {
	if nil == v {
		return Null()
	}
	c := *v
	switch v.kind {
	case KindList:
		c.items = make([]*Value, len(v.items))
		for i, item := range v.items {
			c.items[i] = item.Clone()
		}
	case KindMap:
		c.fields = make(map[string]*Value, len(v.fields))
		for k, f := range v.fields {
			c.fields[k] = f.Clone()
		}
	}
	return &c
}

// Equal - deep structural equality
func (v *Value) Equal(other *Value) bool {
	if v.Kind() != other.Kind() {
		return false
	}
	switch v.Kind() {
	case KindNull:
		return true
	case KindBool:
		return v.boolean == other.boolean
	case KindNumber:
		return v.number == other.number
	case KindString:
		return v.text == other.text
	case KindList:
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.fields) != len(other.fields) {
			return false
		}
		for k, f := range v.fields {
			g, ok := other.fields[k]
			if !ok || !f.Equal(g) {
				return false
			}
		}
		return true
	}
	return false
}

// Depth - maximum nesting, a leaf is depth 1
func (v *Value) Depth() int {
	depth := 0
	switch v.Kind() {
	case KindList:
		for _, item := range v.items {
			if d := item.Depth(); d > depth {
				depth = d
			}
		}
	case KindMap:
		for _, f := range v.fields {
			if d := f.Depth(); d > depth {
				depth = d
			}
		}
	}
	return depth + 1
}
