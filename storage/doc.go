// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - the on-disk document store
//
// maintain separate pools of elements in key->value form inside one
// LevelDB database; each pool is defined by a prefix byte that is
// obtained from the prefix tag in the struct defining the pools
//
// all writes for one bundle go through a single Batch which is
// written atomically, so a bundle is either fully visible or absent
//
// Notes:
// 1. each separate pool has a single byte prefix
// 2. ++      = concatenation of byte data
// 3. key     = varint length ++ resourceType ++ varint length ++ id
// 4. version = 20 byte version id, ^version is its bitwise complement
// 5. str(x)  = varint length ++ x
//
// Documents:
//
//   R ++ key ++ ^version       - every version of a document, newest first
//                                data: packed record
//   C ++ key                   - current version pointer
//                                data: state (0x00 live, 0x01 deleted) ++ version
//
// References:
//
//   F ++ source key ++ target key  - forward references of the current source version
//                                    data: source version
//   V ++ target key ++ source key  - reverse references, for referrer lookup
//                                    data: empty
//
// Search:
//
//   S ++ str(type) ++ str(code) ++ str(value) ++ str(id)  - search index
//                                                          data: version
//   I ++ key ++ str(code) ++ str(value)                   - rows held by a document
//                                                          data: empty
//
// Database version:
//
//   0x00 ++ "VERSION"          - layout version, big endian uint32
package storage
