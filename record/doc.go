// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package record - binary storage form of one document version
//
// a packed record is:
//
//   varint length ++ resourceType
//   varint length ++ id
//   version id (20 bytes)
//   payload length (4 bytes, big endian)
//   CRC-32 IEEE of payload (4 bytes, big endian)
//   payload
//
// and a payload is:
//
//   flags (1 byte, bit 0 = tombstone)
//   varint created time in unix nanoseconds
//   tagged tree
//
// tree nodes are a tag byte followed by:
//
//   null, false, true: nothing
//   number:            8 byte big endian IEEE-754
//   string:            varint length ++ UTF-8 bytes
//   list:              varint count ++ items
//   map:               varint count ++ (key string, value) sorted by key
package record
