// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keylock

import (
	"context"
	"errors"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/sync/semaphore"

	"github.com/kayyagari/ra/counter"
	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
)

const shardCount = 32

// how often Drain rechecks the held count
const drainPoll = 10 * time.Millisecond

type entry struct {
	token *semaphore.Weighted
	refs  int
}

type shard struct {
	sync.Mutex
	entries map[document.LogicalKey]*entry
}

// Table - all ownership tokens of one process
type Table struct {
	log     *logger.L
	shards  [shardCount]shard
	closed  bool
	lock    sync.RWMutex
	held    counter.Counter
	pending counter.Counter
	waiting counter.Counter
	onWait  func(time.Duration)
}

// Held - tokens owned by one bundle
type Held struct {
	table *Table
	keys  []document.LogicalKey
	once  sync.Once
}

// New - empty table
//
// onWait, if not nil, sees how long every successful Acquire waited
func New(onWait func(time.Duration)) *Table {
	t := &Table{
		log:    logger.New("keylock"),
		onWait: onWait,
	}
	for i := range t.shards {
		t.shards[i].entries = make(map[document.LogicalKey]*entry)
	}
	return t
}

func (t *Table) shardOf(k document.LogicalKey) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(k.ResourceType))
	_, _ = h.Write([]byte{'/'})
	_, _ = h.Write([]byte(k.ID))
	return &t.shards[h.Sum32()%shardCount]
}

// take a reference so the entry outlives the wait
func (t *Table) ref(k document.LogicalKey) *entry {
	s := t.shardOf(k)
	s.Lock()
	defer s.Unlock()

	e, ok := s.entries[k]
	if !ok {
		e = &entry{token: semaphore.NewWeighted(1)}
		s.entries[k] = e
	}
	e.refs += 1
	return e
}

// drop a reference, the last one removes the entry
func (t *Table) unref(k document.LogicalKey) {
	s := t.shardOf(k)
	s.Lock()
	defer s.Unlock()

	e, ok := s.entries[k]
	if !ok {
		t.log.Criticalf("unref of missing entry: %s", k)
		return
	}
	e.refs -= 1
	if 0 == e.refs {
		delete(s.entries, k)
	}
}

// Acquire - take the token of every key, waiting at most timeout
//
// keys may be unsorted and contain duplicates; on failure nothing is
// held and the error is a TimeoutError or the context's error
func (t *Table) Acquire(ctx context.Context, keys []document.LogicalKey, timeout time.Duration) (*Held, error) {
	// counted before Close can complete so Drain sees this call
	t.lock.RLock()
	if t.closed {
		t.lock.RUnlock()
		return nil, fault.ErrShuttingDown
	}
	t.pending.Increment()
	t.lock.RUnlock()
	defer t.pending.Decrement()

	sorted := sortKeys(keys)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	h := &Held{
		table: t,
		keys:  make([]document.LogicalKey, 0, len(sorted)),
	}

	for _, k := range sorted {
		e := t.ref(k)

		t.waiting.Increment()
		err := e.token.Acquire(ctx, 1)
		t.waiting.Decrement()

		if nil != err {
			t.unref(k)
			h.release()

			waited := time.Since(start)
			if errors.Is(err, context.DeadlineExceeded) {
				t.log.Warnf("timeout: %s after: %s", k, waited)
				return nil, &fault.TimeoutError{Key: k.String(), Waited: waited, Err: err}
			}
			return nil, err
		}
		h.keys = append(h.keys, k)
		t.held.Increment()
	}

	if nil != t.onWait {
		t.onWait(time.Since(start))
	}
	return h, nil
}

// Keys - the keys held, sorted
func (h *Held) Keys() []document.LogicalKey {
	return h.keys
}

// Release - give back every token, safe to call more than once
func (h *Held) Release() {
	if nil == h {
		return
	}
	h.once.Do(h.release)
}

// reverse order of acquisition
func (h *Held) release() {
	for i := len(h.keys) - 1; i >= 0; i -= 1 {
		k := h.keys[i]
		s := h.table.shardOf(k)
		s.Lock()
		e := s.entries[k]
		s.Unlock()

		e.token.Release(1)
		h.table.unref(k)
		h.table.held.Decrement()
	}
	h.keys = h.keys[:0]
}

// Held - number of tokens currently owned
func (t *Table) Held() int64 {
	return t.held.Int64()
}

// Waiting - number of goroutines blocked on a token
func (t *Table) Waiting() int64 {
	return t.waiting.Int64()
}

// Entries - number of keys with a live entry
func (t *Table) Entries() int {
	n := 0
	for i := range t.shards {
		s := &t.shards[i]
		s.Lock()
		n += len(s.entries)
		s.Unlock()
	}
	return n
}

// Close - refuse new acquisitions, current holders are unaffected
func (t *Table) Close() {
	t.lock.Lock()
	t.closed = true
	t.lock.Unlock()
}

// Drain - wait until no token is held and no Acquire is in progress
//
// call after Close, otherwise new acquisitions can keep it waiting
func (t *Table) Drain(ctx context.Context) error {
	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()

	for !t.held.IsZero() || !t.pending.IsZero() {
		select {
		case <-ctx.Done():
			t.log.Warnf("drain abandoned with %d tokens held", t.held.Int64())
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func sortKeys(keys []document.LogicalKey) []document.LogicalKey {
	sorted := make([]document.LogicalKey, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Less(sorted[j])
	})

	unique := sorted[:0]
	for _, k := range sorted {
		if 0 == len(unique) || k != unique[len(unique)-1] {
			unique = append(unique, k)
		}
	}
	return unique
}
