// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"encoding/binary"
	"time"

	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/util"
	"github.com/kayyagari/ra/versionid"
)

// Header - the fixed part of a packed record
type Header struct {
	Key      document.LogicalKey
	Version  versionid.ID
	Length   uint32
	Checksum uint32
}

// Header - split the header from a packed record
//
// returns the header and the offset of the payload
func (record Packed) Header() (*Header, int, error) {
	n := 0

	resourceType, rn, err := util.ReadBytes(record[n:], document.MaximumResourceTypeLength)
	if nil != err {
		return nil, 0, err
	}
	n += rn

	id, in, err := util.ReadBytes(record[n:], document.MaximumIDLength)
	if nil != err {
		return nil, 0, err
	}
	n += in

	if len(record) < n+versionid.Length+lengthSize+checksumSize {
		return nil, 0, fault.ErrRecordIsTruncated
	}
	h := &Header{
		Key: document.LogicalKey{
			ResourceType: string(resourceType),
			ID:           string(id),
		},
	}
	copy(h.Version[:], record[n:n+versionid.Length])
	n += versionid.Length
	h.Length = binary.BigEndian.Uint32(record[n:])
	n += lengthSize
	h.Checksum = binary.BigEndian.Uint32(record[n:])
	n += checksumSize

	return h, n, nil
}

// Verify - check the header and checksum without decoding the tree
func (record Packed) Verify() (*Header, Payload, error) {
	h, n, err := record.Header()
	if nil != err {
		return nil, nil, err
	}

	payload := record[n:]
	if uint64(len(payload)) < uint64(h.Length) {
		return nil, nil, fault.ErrRecordIsTruncated
	}
	if uint64(len(payload)) > uint64(h.Length) {
		return nil, nil, fault.ErrRecordHasTrailingData
	}

	computed := Checksum(payload)
	if computed != h.Checksum {
		return nil, nil, &fault.ChecksumMismatchError{
			Key:      h.Key.String(),
			Version:  h.Version.String(),
			Stored:   h.Checksum,
			Computed: computed,
		}
	}
	return h, Payload(payload), nil
}

// Unpack - verify and decode a complete record
func (record Packed) Unpack() (*document.Document, error) {
	h, payload, err := record.Verify()
	if nil != err {
		return nil, err
	}

	d, err := payload.Decode()
	if nil != err {
		return nil, err
	}
	d.Key = h.Key
	d.Version = h.Version
	return d, nil
}

// Decode - the inverse of Encode, key and version are left empty
func (payload Payload) Decode() (*document.Document, error) {
	if 0 == len(payload) {
		return nil, fault.ErrRecordIsTruncated
	}
	flags := payload[0]
	n := 1

	created, cn := util.FromVarint64(payload[n:])
	if 0 == cn {
		return nil, fault.ErrRecordIsTruncated
	}
	n += cn

	content, tn, err := unpackTree(payload[n:], 1)
	if nil != err {
		return nil, err
	}
	n += tn
	if n != len(payload) {
		return nil, fault.ErrRecordHasTrailingData
	}

	return &document.Document{
		Deleted: 0 != flags&flagDeleted,
		Created: time.Unix(0, int64(created)).UTC(),
		Content: content,
	}, nil
}
