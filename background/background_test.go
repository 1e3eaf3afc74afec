// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/kayyagari/ra/background"
)

type ticker struct {
	ticks    int64
	finished int32
}

func (state *ticker) Run(args interface{}, shutdown <-chan struct{}) {
	interval := args.(time.Duration)
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-time.After(interval):
			atomic.AddInt64(&state.ticks, 1)
		}
	}
	atomic.StoreInt32(&state.finished, 1)
}

func TestBackground(t *testing.T) {

	proc1 := &ticker{}
	proc2 := &ticker{}

	// list of background processes to start
	processes := background.Processes{
		proc1,
		proc2,
	}

	p := background.Start(processes, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	p.Stop()

	for i, proc := range []*ticker{proc1, proc2} {
		if 1 != atomic.LoadInt32(&proc.finished) {
			t.Errorf("%d: process did not finish before Stop returned", i)
		}
		if 0 == atomic.LoadInt64(&proc.ticks) {
			t.Errorf("%d: process never ran", i)
		}
	}

	// second stop is harmless
	p.Stop()
}
