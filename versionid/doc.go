// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package versionid - fixed width, time ordered version identifiers
//
// an ID is a 20 byte KSUID: a 4 byte big endian second timestamp
// followed by 16 random bytes, so byte order is creation order
//
// an Allocator never hands out the same or a smaller ID twice
package versionid
