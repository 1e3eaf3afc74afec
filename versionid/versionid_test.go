// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package versionid_test

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/versionid"
)

func TestAllocatorStrictlyIncreasing(t *testing.T) {
	frozen := time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC)
	a := versionid.NewAllocatorWithClock(func() time.Time { return frozen })

	previous := versionid.Nil
	for i := 0; i < 1000; i += 1 {
		id, err := a.Next()
		assert.Nil(t, err, "next")
		assert.Equal(t, 1, id.Compare(previous), "%d: not increasing", i)
		assert.True(t, id.String() > previous.String() || previous.IsNil(), "%d: text order", i)
		previous = id
	}
}

func TestAllocatorClockGoesBackwards(t *testing.T) {
	now := time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	a := versionid.NewAllocatorWithClock(clock)

	first, err := a.Next()
	assert.Nil(t, err, "first")

	now = now.Add(-time.Hour)
	second, err := a.Next()
	assert.Nil(t, err, "second")
	assert.Equal(t, 1, second.Compare(first), "must still increase")
}

func TestAllocatorObserve(t *testing.T) {
	future, err := versionid.NewAllocatorWithClock(func() time.Time {
		return time.Now().Add(24 * time.Hour)
	}).Next()
	assert.Nil(t, err, "future")

	a := versionid.NewAllocator()
	a.Observe(future)
	id, err := a.Next()
	assert.Nil(t, err, "next")
	assert.Equal(t, 1, id.Compare(future), "must sort after observed")
}

func TestAllocatorConcurrent(t *testing.T) {
	a := versionid.NewAllocator()

	const workers = 8
	const each = 200

	results := make(chan versionid.ID, workers*each)
	wg := sync.WaitGroup{}
	for w := 0; w < workers; w += 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids, err := a.NextN(each)
			assert.Nil(t, err, "nextN")
			for i := 1; i < len(ids); i += 1 {
				assert.Equal(t, 1, ids[i].Compare(ids[i-1]), "batch order")
			}
			for _, id := range ids {
				results <- id
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[versionid.ID]struct{})
	for id := range results {
		_, duplicate := seen[id]
		assert.False(t, duplicate, "duplicate: %s", id)
		seen[id] = struct{}{}
	}
	assert.Equal(t, workers*each, len(seen), "count")
}

func TestTextAndInverted(t *testing.T) {
	a := versionid.NewAllocator()
	ids, err := a.NextN(5)
	assert.Nil(t, err, "nextN")

	inverted := make([]string, 0, len(ids))
	for _, id := range ids {
		s := id.String()
		parsed, err := versionid.FromString(s)
		assert.Nil(t, err, "parse")
		assert.Equal(t, id, parsed, "text")

		raw, err := versionid.FromBytes(id.Bytes())
		assert.Nil(t, err, "bytes")
		assert.Equal(t, id, raw, "bytes")

		inv := id.Inverted()
		back, err := versionid.FromInverted(inv)
		assert.Nil(t, err, "inverted")
		assert.Equal(t, id, back, "inverted")
		inverted = append(inverted, string(inv))
	}

	// ascending inverted order is newest first
	sort.Strings(inverted)
	newest, _ := versionid.FromInverted([]byte(inverted[0]))
	assert.Equal(t, ids[len(ids)-1], newest, "newest first")

	_, err = versionid.FromString("not-a-ksuid")
	assert.Equal(t, fault.ErrInvalidVersionId, err, "bad text")
	_, err = versionid.FromBytes([]byte{1, 2, 3})
	assert.Equal(t, fault.ErrInvalidVersionId, err, "bad bytes")
}

func TestNewIdentifier(t *testing.T) {
	a := versionid.NewIdentifier()
	b := versionid.NewIdentifier()
	assert.NotEqual(t, a, b, "identifiers must differ")
	assert.Equal(t, 27, len(a), "base62 length")
}
