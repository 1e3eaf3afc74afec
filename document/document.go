// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package document

import (
	"time"

	"github.com/kayyagari/ra/versionid"
)

// Document - one immutable version of a logical document
//
// a tombstone has Deleted set and null Content
type Document struct {
	Key     LogicalKey
	Version versionid.ID
	Deleted bool
	Created time.Time
	Content *Value
}
