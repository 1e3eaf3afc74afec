// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package versionid

import (
	"bytes"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/kayyagari/ra/fault"
)

// Length - bytes in an ID
const Length = 20

// ID - a version identifier
type ID [Length]byte

// Nil - the zero ID, never allocated
var Nil ID

// FromBytes - an ID from exactly Length bytes
func FromBytes(b []byte) (ID, error) {
	k, err := ksuid.FromBytes(b)
	if nil != err {
		return Nil, fault.ErrInvalidVersionId
	}
	return ID(k), nil
}

// FromString - an ID from its base62 text form
func FromString(s string) (ID, error) {
	k, err := ksuid.Parse(s)
	if nil != err {
		return Nil, fault.ErrInvalidVersionId
	}
	return ID(k), nil
}

// String - base62 text form, sorts the same as the bytes
func (id ID) String() string {
	return ksuid.KSUID(id).String()
}

// Bytes - a copy of the raw bytes
func (id ID) Bytes() []byte {
	return ksuid.KSUID(id).Bytes()
}

// Time - the second the ID was allocated in
func (id ID) Time() time.Time {
	return ksuid.KSUID(id).Time()
}

// IsNil - true for the zero ID
func (id ID) IsNil() bool {
	return id == Nil
}

// Compare - -1, 0 or +1 as id is before, equal to or after other
func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

// Inverted - complemented bytes, so ascending key order lists
// the newest version first
func (id ID) Inverted() []byte {
	b := make([]byte, Length)
	for i := range id {
		b[i] = ^id[i]
	}
	return b
}

// FromInverted - undo Inverted
func FromInverted(b []byte) (ID, error) {
	if Length != len(b) {
		return Nil, fault.ErrInvalidVersionId
	}
	var id ID
	for i := range id {
		id[i] = ^b[i]
	}
	return id, nil
}

// MarshalText - for JSON
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText - for JSON
func (id *ID) UnmarshalText(s []byte) error {
	v, err := FromString(string(s))
	if nil != err {
		return err
	}
	*id = v
	return nil
}

// NewIdentifier - a fresh document id, base62 text
func NewIdentifier() string {
	return ksuid.New().String()
}
