// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package document

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"

	"github.com/kayyagari/ra/fault"
)

// MaximumDepth - deepest tree accepted from JSON or a stored record
const MaximumDepth = 256

// FromJSON - parse a JSON text into a tree
func FromJSON(data []byte) (*Value, error) {
	if !gjson.ValidBytes(data) {
		return nil, fault.InvalidError("invalid JSON")
	}
	return fromResult(gjson.ParseBytes(data), 1)
}

func fromResult(r gjson.Result, depth int) (*Value, error) {
	if depth > MaximumDepth {
		return nil, fault.ErrNestingTooDeep
	}

	switch r.Type {
	case gjson.Null:
		return Null(), nil
	case gjson.False:
		return Bool(false), nil
	case gjson.True:
		return Bool(true), nil
	case gjson.Number:
		return Number(r.Num), nil
	case gjson.String:
		return String(r.Str), nil
	}

	var err error
	if r.IsArray() {
		list := List()
		r.ForEach(func(_, item gjson.Result) bool {
			var v *Value
			v, err = fromResult(item, depth+1)
			if nil != err {
				return false
			}
			list.Append(v)
			return true
		})
		return list, err
	}

	m := Map()
	r.ForEach(func(key, field gjson.Result) bool {
		var v *Value
		v, err = fromResult(field, depth+1)
		if nil != err {
			return false
		}
		m.Set(key.Str, v)
		return true
	})
	return m, err
}

// UnmarshalJSON - so a Value can sit inside a decoded struct
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if nil != err {
		return err
	}
	*v = *parsed
	return nil
}

// MarshalJSON - canonical JSON, map members in key order
func (v *Value) MarshalJSON() ([]byte, error) {
	stream := jsoniter.ConfigDefault.BorrowStream(nil)
	defer jsoniter.ConfigDefault.ReturnStream(stream)

	v.writeTo(stream)
	if nil != stream.Error {
		return nil, stream.Error
	}
	buffer := stream.Buffer()
	result := make([]byte, len(buffer))
	copy(result, buffer)
	return result, nil
}

func (v *Value) writeTo(stream *jsoniter.Stream) {
	switch v.Kind() {
	case KindNull:
		stream.WriteNil()
	case KindBool:
		stream.WriteBool(v.boolean)
	case KindNumber:
		stream.WriteFloat64(v.number)
	case KindString:
		stream.WriteString(v.text)
	case KindList:
		stream.WriteArrayStart()
		for i, item := range v.items {
			if i > 0 {
				stream.WriteMore()
			}
			item.writeTo(stream)
		}
		stream.WriteArrayEnd()
	case KindMap:
		stream.WriteObjectStart()
		for i, k := range v.Keys() {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(k)
			v.fields[k].writeTo(stream)
		}
		stream.WriteObjectEnd()
	}
}
