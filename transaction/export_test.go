// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

import (
	"github.com/kayyagari/ra/keylock"
)

// Locks - the ownership token table, for tests
func (c *Coordinator) Locks() *keylock.Table {
	return c.locks
}
