// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"github.com/kayyagari/ra/fault"
)

// Varint64MaximumBytes - maximum possible number of bytes in Varint64
const Varint64MaximumBytes = 9

// AppendVarint64 - append the Varint64 form of a value to a buffer
//
// seven bits per byte, least significant group first, high bit set
// while more bytes follow; the ninth byte carries a full eight bits
func AppendVarint64(buffer []byte, value uint64) []byte {
	for n := 1; n < Varint64MaximumBytes; n += 1 {
		if value < 0x80 {
			return append(buffer, byte(value))
		}
		buffer = append(buffer, byte(value)|0x80)
		value >>= 7
	}
	return append(buffer, byte(value))
}

// ToVarint64 - convert a 64 bit unsigned integer to Varint64
func ToVarint64(value uint64) []byte {
	return AppendVarint64(make([]byte, 0, Varint64MaximumBytes), value)
}

// FromVarint64 - decode a Varint64 from the start of a buffer
//
// returns the value and the number of bytes consumed
// returns 0, 0 if the buffer is truncated
func FromVarint64(buffer []byte) (uint64, int) {
	value := uint64(0)
	shift := uint(0)
	for i, b := range buffer {
		if i == Varint64MaximumBytes-1 {
			return value | uint64(b)<<shift, i + 1
		}
		value |= uint64(b&0x7f) << shift
		if 0 == b&0x80 {
			return value, i + 1
		}
		shift += 7
	}
	return 0, 0
}

// AppendBytes - append a Varint64 length then the data
func AppendBytes(buffer []byte, data []byte) []byte {
	buffer = AppendVarint64(buffer, uint64(len(data)))
	return append(buffer, data...)
}

// ReadBytes - split a length prefixed item from the start of a buffer
//
// the item is a sub-slice of the buffer, not a copy
func ReadBytes(buffer []byte, maximum int) ([]byte, int, error) {
	length, n := FromVarint64(buffer)
	if 0 == n {
		return nil, 0, fault.ErrRecordIsTruncated
	}
	if length > uint64(maximum) {
		return nil, 0, fault.ErrStringTooLong
	}
	end := n + int(length)
	if end > len(buffer) {
		return nil, 0, fault.ErrRecordIsTruncated
	}
	return buffer[n:end], end, nil
}
