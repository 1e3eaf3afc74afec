// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keylock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/fixtures"
	"github.com/kayyagari/ra/keylock"
)

var (
	keyA = document.LogicalKey{ResourceType: "Patient", ID: "a"}
	keyB = document.LogicalKey{ResourceType: "Patient", ID: "b"}
	keyC = document.LogicalKey{ResourceType: "Encounter", ID: "c"}
)

func TestAcquireSortsAndDeduplicates(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	table := keylock.New(nil)
	h, err := table.Acquire(context.Background(), []document.LogicalKey{keyB, keyA, keyC, keyA}, time.Second)
	assert.Nil(t, err, "acquire")
	assert.Equal(t, []document.LogicalKey{keyC, keyA, keyB}, h.Keys(), "sorted unique keys")
	assert.Equal(t, int64(3), table.Held(), "held")
	assert.Equal(t, 3, table.Entries(), "entries")

	h.Release()
	h.Release()
	assert.Equal(t, int64(0), table.Held(), "held after release")
	assert.Equal(t, 0, table.Entries(), "entries removed when uncontended")
}

func TestTimeoutReleasesEverything(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	table := keylock.New(nil)
	blocker, err := table.Acquire(context.Background(), []document.LogicalKey{keyB}, time.Second)
	assert.Nil(t, err, "blocker")

	start := time.Now()
	_, err = table.Acquire(context.Background(), []document.LogicalKey{keyA, keyB}, 30*time.Millisecond)
	assert.True(t, time.Since(start) >= 30*time.Millisecond, "returned too early")

	var timeout *fault.TimeoutError
	assert.True(t, errors.As(err, &timeout), "expected timeout, got: %v", err)
	assert.Equal(t, keyB.String(), timeout.Key, "timed out key")
	assert.Equal(t, fault.KindTimeout, fault.KindOf(err), "kind")

	// keyA was released on the way out
	assert.Equal(t, int64(1), table.Held(), "only the blocker")
	other, err := table.Acquire(context.Background(), []document.LogicalKey{keyA}, 10*time.Millisecond)
	assert.Nil(t, err, "keyA must be free")
	other.Release()

	blocker.Release()
	assert.Equal(t, 0, table.Entries(), "entries")
}

func TestCancelled(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	table := keylock.New(nil)
	blocker, _ := table.Acquire(context.Background(), []document.LogicalKey{keyA}, 0)
	defer blocker.Release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := table.Acquire(ctx, []document.LogicalKey{keyA}, 0)
	assert.Equal(t, context.Canceled, err, "cancelled")
	assert.Equal(t, fault.KindCancelled, fault.KindOf(err), "kind")
}

func TestFairOrder(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	table := keylock.New(nil)
	first, err := table.Acquire(context.Background(), []document.LogicalKey{keyA}, 0)
	assert.Nil(t, err, "first")

	const waiters = 5
	order := make(chan int, waiters)
	wg := sync.WaitGroup{}
	for i := 0; i < waiters; i += 1 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			h, err := table.Acquire(context.Background(), []document.LogicalKey{keyA}, 5*time.Second)
			if nil != err {
				t.Errorf("waiter %d: %s", n, err)
				return
			}
			order <- n
			h.Release()
		}(i)

		// wait until this goroutine is queued before starting the next
		for table.Waiting() != int64(i+1) {
			time.Sleep(time.Millisecond)
		}
		time.Sleep(5 * time.Millisecond)
	}

	first.Release()
	wg.Wait()
	close(order)

	expected := 0
	for n := range order {
		assert.Equal(t, expected, n, "served out of order")
		expected += 1
	}
	assert.Equal(t, waiters, expected, "all served")
}

func TestNoDeadlockOnOpposingOrder(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	table := keylock.New(nil)
	wg := sync.WaitGroup{}
	for i := 0; i < 20; i += 1 {
		keys := []document.LogicalKey{keyA, keyB}
		if 0 == i%2 {
			keys = []document.LogicalKey{keyB, keyA}
		}
		wg.Add(1)
		go func(keys []document.LogicalKey) {
			defer wg.Done()
			h, err := table.Acquire(context.Background(), keys, 5*time.Second)
			if nil != err {
				t.Errorf("acquire: %s", err)
				return
			}
			time.Sleep(time.Millisecond)
			h.Release()
		}(keys)
	}
	wg.Wait()
	assert.Equal(t, int64(0), table.Held(), "held")
}

func TestCloseAndDrain(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	waits := 0
	table := keylock.New(func(time.Duration) { waits += 1 })
	h, err := table.Acquire(context.Background(), []document.LogicalKey{keyA}, 0)
	assert.Nil(t, err, "acquire")
	assert.Equal(t, 1, waits, "wait observed")

	table.Close()
	_, err = table.Acquire(context.Background(), []document.LogicalKey{keyB}, 0)
	assert.Equal(t, fault.ErrShuttingDown, err, "closed")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Equal(t, context.DeadlineExceeded, table.Drain(ctx), "drain while held")

	go func() {
		time.Sleep(10 * time.Millisecond)
		h.Release()
	}()
	assert.Nil(t, table.Drain(context.Background()), "drain")
}

func TestDrainWaitsForAcquireInProgress(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	table := keylock.New(nil)
	first, err := table.Acquire(context.Background(), []document.LogicalKey{keyA}, 0)
	assert.Nil(t, err, "first")

	acquired := make(chan *keylock.Held, 1)
	go func() {
		h, err := table.Acquire(context.Background(), []document.LogicalKey{keyA}, 5*time.Second)
		assert.Nil(t, err, "second")
		acquired <- h
	}()

	for 0 == table.Waiting() {
		time.Sleep(time.Millisecond)
	}
	table.Close()

	drained := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		drained <- table.Drain(ctx)
	}()

	// the waiter takes over the token, so nothing may drain yet
	first.Release()
	second := <-acquired
	time.Sleep(50 * time.Millisecond)
	select {
	case err := <-drained:
		t.Fatalf("drained while a token is held: %v", err)
	default:
	}

	second.Release()
	assert.Nil(t, <-drained, "drain")
	assert.Equal(t, int64(0), table.Held(), "held")
}
