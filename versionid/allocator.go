// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package versionid

import (
	"sync"
	"time"

	"github.com/segmentio/ksuid"
)

// Allocator - hands out strictly increasing IDs
type Allocator struct {
	sync.Mutex
	last  ksuid.KSUID
	clock func() time.Time
}

// NewAllocator - allocator on the wall clock
func NewAllocator() *Allocator {
	return &Allocator{
		last:  ksuid.Nil,
		clock: time.Now,
	}
}

// NewAllocatorWithClock - allocator with a supplied time source
func NewAllocatorWithClock(clock func() time.Time) *Allocator {
	return &Allocator{
		last:  ksuid.Nil,
		clock: clock,
	}
}

// Next - the next ID
//
// if the clock has not advanced (or went backwards) the successor of
// the previous ID is used instead of a fresh random one
func (a *Allocator) Next() (ID, error) {
	a.Lock()
	defer a.Unlock()
	return a.next()
}

// NextN - n IDs in increasing order under one lock
func (a *Allocator) NextN(n int) ([]ID, error) {
	a.Lock()
	defer a.Unlock()

	ids := make([]ID, 0, n)
	for i := 0; i < n; i += 1 {
		id, err := a.next()
		if nil != err {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Observe - ensure later IDs sort after one already stored
func (a *Allocator) Observe(id ID) {
	a.Lock()
	defer a.Unlock()
	if k := ksuid.KSUID(id); ksuid.Compare(k, a.last) > 0 {
		a.last = k
	}
}

func (a *Allocator) next() (ID, error) {
	candidate, err := ksuid.NewRandomWithTime(a.clock())
	if nil != err {
		return Nil, err
	}
	if ksuid.Compare(candidate, a.last) <= 0 {
		candidate = a.last.Next()
	}
	a.last = candidate
	return ID(candidate), nil
}
