// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"encoding/binary"
	"hash/crc32"
	"math"
	"time"

	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/util"
	"github.com/kayyagari/ra/versionid"
)

// Packed - a complete record as stored
type Packed []byte

// Payload - encoded flags, creation time and tree
type Payload []byte

// payload flag bits
const (
	flagDeleted = 0x01
)

// fixed size parts of the header
const (
	lengthSize   = 4
	checksumSize = 4
)

var crc32Table = crc32.MakeTable(crc32.IEEE)

// created is stored as non-negative unix nanoseconds
var (
	minimumCreated = time.Unix(0, 0)
	maximumCreated = time.Unix(0, math.MaxInt64)
)

// Checksum - CRC-32 IEEE of a payload
func Checksum(payload []byte) uint32 {
	return crc32.Checksum(payload, crc32Table)
}

// Encode - serialise a tree into a payload
//
// identical trees always give identical bytes; created must lie
// between 1970 and 2262
func Encode(content *document.Value, deleted bool, created time.Time) (Payload, error) {
	if created.Before(minimumCreated) || created.After(maximumCreated) {
		return nil, fault.ErrInvalidCreated
	}

	flags := byte(0)
	if deleted {
		flags |= flagDeleted
		content = document.Null()
	}

	buffer := make([]byte, 0, 256)
	buffer = append(buffer, flags)
	buffer = util.AppendVarint64(buffer, uint64(created.UnixNano()))

	buffer, err := packTree(buffer, content, 1)
	if nil != err {
		return nil, err
	}
	return Payload(buffer), nil
}

// Seal - prefix a payload with its header
func Seal(key document.LogicalKey, version versionid.ID, payload Payload) (Packed, error) {
	if !key.Valid() {
		return nil, fault.ErrInvalidKey
	}
	if version.IsNil() {
		return nil, fault.ErrInvalidVersionId
	}
	if uint64(len(payload)) > 0xffffffff {
		return nil, fault.ErrStringTooLong
	}

	buffer := make([]byte, 0, len(key.ResourceType)+len(key.ID)+versionid.Length+lengthSize+checksumSize+len(payload)+2)
	buffer = util.AppendBytes(buffer, []byte(key.ResourceType))
	buffer = util.AppendBytes(buffer, []byte(key.ID))
	buffer = append(buffer, version[:]...)
	buffer = binary.BigEndian.AppendUint32(buffer, uint32(len(payload)))
	buffer = binary.BigEndian.AppendUint32(buffer, Checksum(payload))
	buffer = append(buffer, payload...)
	return Packed(buffer), nil
}

// Pack - Encode then Seal a document
func Pack(d *document.Document) (Packed, error) {
	payload, err := Encode(d.Content, d.Deleted, d.Created)
	if nil != err {
		return nil, err
	}
	return Seal(d.Key, d.Version, payload)
}
