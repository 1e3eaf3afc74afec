// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package index - secondary index rows derived from document content
//
// search values are normalised before they are stored so a lookup
// ignores case, accents and runs of white space
package index
