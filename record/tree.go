// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"encoding/binary"
	"math"

	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/util"
)

// TagType - type code of a tree node
type TagType byte

// tree node tags
const (
	NullTag   TagType = iota
	FalseTag  TagType = iota
	TrueTag   TagType = iota
	NumberTag TagType = iota
	StringTag TagType = iota
	ListTag   TagType = iota
	MapTag    TagType = iota

	// this item must be last
	InvalidTag TagType = iota
)

// maximum bytes in one string or map key
const maximumStringLength = 1 << 24

func packTree(buffer []byte, v *document.Value, depth int) ([]byte, error) {
	if depth > document.MaximumDepth {
		return nil, fault.ErrNestingTooDeep
	}

	switch v.Kind() {
	case document.KindNull:
		return append(buffer, byte(NullTag)), nil

	case document.KindBool:
		if b, _ := v.AsBool(); b {
			return append(buffer, byte(TrueTag)), nil
		}
		return append(buffer, byte(FalseTag)), nil

	case document.KindNumber:
		n, _ := v.AsNumber()
		buffer = append(buffer, byte(NumberTag))
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(n))
		return append(buffer, b[:]...), nil

	case document.KindString:
		s, _ := v.AsString()
		if len(s) > maximumStringLength {
			return nil, fault.ErrStringTooLong
		}
		buffer = append(buffer, byte(StringTag))
		return util.AppendBytes(buffer, []byte(s)), nil

	case document.KindList:
		items := v.Items()
		buffer = append(buffer, byte(ListTag))
		buffer = util.AppendVarint64(buffer, uint64(len(items)))
		var err error
		for _, item := range items {
			buffer, err = packTree(buffer, item, depth+1)
			if nil != err {
				return nil, err
			}
		}
		return buffer, nil

	case document.KindMap:
		keys := v.Keys()
		buffer = append(buffer, byte(MapTag))
		buffer = util.AppendVarint64(buffer, uint64(len(keys)))
		var err error
		for _, k := range keys {
			if len(k) > maximumStringLength {
				return nil, fault.ErrStringTooLong
			}
			buffer = util.AppendBytes(buffer, []byte(k))
			field, _ := v.Field(k)
			buffer, err = packTree(buffer, field, depth+1)
			if nil != err {
				return nil, err
			}
		}
		return buffer, nil
	}
	return nil, fault.ErrUnknownValueTag
}

// returns the node and the number of bytes used
func unpackTree(buffer []byte, depth int) (*document.Value, int, error) {
	if depth > document.MaximumDepth {
		return nil, 0, fault.ErrNestingTooDeep
	}
	if 0 == len(buffer) {
		return nil, 0, fault.ErrRecordIsTruncated
	}

	n := 1
	switch TagType(buffer[0]) {
	case NullTag:
		return document.Null(), n, nil

	case FalseTag:
		return document.Bool(false), n, nil

	case TrueTag:
		return document.Bool(true), n, nil

	case NumberTag:
		if len(buffer) < n+8 {
			return nil, 0, fault.ErrRecordIsTruncated
		}
		bits := binary.BigEndian.Uint64(buffer[n : n+8])
		return document.Number(math.Float64frombits(bits)), n + 8, nil

	case StringTag:
		s, sn, err := util.ReadBytes(buffer[n:], maximumStringLength)
		if nil != err {
			return nil, 0, err
		}
		return document.String(string(s)), n + sn, nil

	case ListTag:
		count, cn := util.FromVarint64(buffer[n:])
		if 0 == cn {
			return nil, 0, fault.ErrRecordIsTruncated
		}
		n += cn

		// every item needs at least its tag byte
		if count > uint64(len(buffer)-n) {
			return nil, 0, fault.ErrRecordIsTruncated
		}
		items := make([]*document.Value, 0, count)
		for i := uint64(0); i < count; i += 1 {
			item, itemLength, err := unpackTree(buffer[n:], depth+1)
			if nil != err {
				return nil, 0, err
			}
			items = append(items, item)
			n += itemLength
		}
		return document.List(items...), n, nil

	case MapTag:
		count, cn := util.FromVarint64(buffer[n:])
		if 0 == cn {
			return nil, 0, fault.ErrRecordIsTruncated
		}
		n += cn

		// every member needs at least a key length and a tag byte
		if count > uint64(len(buffer)-n)/2 {
			return nil, 0, fault.ErrRecordIsTruncated
		}
		m := document.Map()
		for i := uint64(0); i < count; i += 1 {
			k, kn, err := util.ReadBytes(buffer[n:], maximumStringLength)
			if nil != err {
				return nil, 0, err
			}
			n += kn
			field, fieldLength, err := unpackTree(buffer[n:], depth+1)
			if nil != err {
				return nil, 0, err
			}
			m.Set(string(k), field)
			n += fieldLength
		}
		return m, n, nil
	}
	return nil, 0, fault.ErrUnknownValueTag
}
