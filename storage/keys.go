// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/util"
	"github.com/kayyagari/ra/versionid"
)

// pointer states
const (
	stateLive    = 0x00
	stateDeleted = 0x01
)

// Pointer - the current version of a logical key
type Pointer struct {
	Version versionid.ID
	Deleted bool
}

// length prefixed parts so no key is a prefix of another
func packKey(k document.LogicalKey) []byte {
	buffer := make([]byte, 0, len(k.ResourceType)+len(k.ID)+2)
	buffer = util.AppendBytes(buffer, []byte(k.ResourceType))
	return util.AppendBytes(buffer, []byte(k.ID))
}

// returns the key and the bytes consumed
func unpackKey(buffer []byte) (document.LogicalKey, int, error) {
	resourceType, rn, err := util.ReadBytes(buffer, document.MaximumResourceTypeLength)
	if nil != err {
		return document.LogicalKey{}, 0, fault.ErrIndexIsCorrupt
	}
	id, in, err := util.ReadBytes(buffer[rn:], document.MaximumIDLength)
	if nil != err {
		return document.LogicalKey{}, 0, fault.ErrIndexIsCorrupt
	}
	k := document.LogicalKey{
		ResourceType: string(resourceType),
		ID:           string(id),
	}
	return k, rn + in, nil
}

func recordKey(k document.LogicalKey, version versionid.ID) []byte {
	return append(packKey(k), version.Inverted()...)
}

func (p Pointer) pack() []byte {
	buffer := make([]byte, 0, 1+versionid.Length)
	if p.Deleted {
		buffer = append(buffer, stateDeleted)
	} else {
		buffer = append(buffer, stateLive)
	}
	return append(buffer, p.Version[:]...)
}

func unpackPointer(buffer []byte) (*Pointer, error) {
	if 1+versionid.Length != len(buffer) {
		return nil, fault.ErrIndexIsCorrupt
	}
	p := &Pointer{}
	switch buffer[0] {
	case stateLive:
	case stateDeleted:
		p.Deleted = true
	default:
		return nil, fault.ErrIndexIsCorrupt
	}
	copy(p.Version[:], buffer[1:])
	return p, nil
}

// S pool prefix for a search; value may be empty only for a full code scan
func searchPrefix(resourceType string, code string, value string) []byte {
	buffer := util.AppendBytes(nil, []byte(resourceType))
	buffer = util.AppendBytes(buffer, []byte(code))
	return util.AppendBytes(buffer, []byte(value))
}

func searchRowKey(k document.LogicalKey, code string, value string) []byte {
	buffer := packKey(k)
	buffer = util.AppendBytes(buffer, []byte(code))
	return util.AppendBytes(buffer, []byte(value))
}
