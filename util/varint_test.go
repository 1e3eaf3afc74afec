// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/util"
)

var varint64Tests = []struct {
	value   uint64
	encoded []byte
}{
	{0, []byte{0x00}},
	{1, []byte{0x01}},
	{127, []byte{0x7f}},
	{128, []byte{0x80, 0x01}},
	{300, []byte{0xac, 0x02}},
	{16383, []byte{0xff, 0x7f}},
	{16384, []byte{0x80, 0x80, 0x01}},
	{0x7fffffffffffffff, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}},
	{0x8000000000000000, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}},
	{0xffffffffffffffff, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
}

func TestVarint64(t *testing.T) {
	for i, item := range varint64Tests {
		encoded := util.ToVarint64(item.value)
		if !bytes.Equal(encoded, item.encoded) {
			t.Errorf("%d: ToVarint64(%x) -> %x  expected: %x", i, item.value, encoded, item.encoded)
		}

		suffix := []byte{0xff, 0x97, 0x23}
		b := append(append([]byte{}, item.encoded...), suffix...)
		value, count := util.FromVarint64(b)
		if value != item.value || count != len(item.encoded) {
			t.Errorf("%d: FromVarint64(%x) -> %d, %d  expected: %d", i, b, value, count, item.value)
		}
		if !bytes.Equal(suffix, b[count:]) {
			t.Errorf("%d: suffix: %x  expected: %x", i, b[count:], suffix)
		}
	}
}

func TestVarint64Truncated(t *testing.T) {
	truncated := [][]byte{
		{},
		{0x80},
		{0xff, 0xff},
		{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
	}
	for i, b := range truncated {
		value, count := util.FromVarint64(b)
		if 0 != value || 0 != count {
			t.Errorf("%d: FromVarint64(%x) -> %d, %d  expected: 0, 0", i, b, value, count)
		}
	}
}

func TestReadBytes(t *testing.T) {
	b := util.AppendBytes(nil, []byte("Patient"))
	b = util.AppendBytes(b, []byte{})

	item, n, err := util.ReadBytes(b, 64)
	assert.Nil(t, err, "first read")
	assert.Equal(t, []byte("Patient"), item, "first item")

	item, m, err := util.ReadBytes(b[n:], 64)
	assert.Nil(t, err, "second read")
	assert.Equal(t, 0, len(item), "second item")
	assert.Equal(t, len(b), n+m, "consumed")

	_, _, err = util.ReadBytes(b[:4], 64)
	assert.Equal(t, fault.ErrRecordIsTruncated, err, "truncated")

	_, _, err = util.ReadBytes(b, 3)
	assert.Equal(t, fault.ErrStringTooLong, err, "too long")
}
