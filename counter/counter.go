// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package counter

import (
	"sync/atomic"
)

// Counter - a gauge that can be changed from many goroutines
//
// e.g. ownership tokens held, bundles in flight
type Counter struct {
	value int64
}

// Increment - add 1, returns new value
func (c *Counter) Increment() int64 {
	return atomic.AddInt64(&c.value, 1)
}

// Decrement - subtract 1, returns new value
func (c *Counter) Decrement() int64 {
	return atomic.AddInt64(&c.value, -1)
}

// Add - add n (may be negative), returns new value
func (c *Counter) Add(n int64) int64 {
	return atomic.AddInt64(&c.value, n)
}

// Int64 - current value
func (c *Counter) Int64() int64 {
	return atomic.LoadInt64(&c.value)
}

// IsZero - check if zero
func (c *Counter) IsZero() bool {
	return 0 == atomic.LoadInt64(&c.value)
}
