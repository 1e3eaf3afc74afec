// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package document - the clinical document model
//
// content is a tagged tree of Values (null, bool, number, string,
// list, map); a Document wraps the tree with its logical key, version
// and tombstone flag
package document
