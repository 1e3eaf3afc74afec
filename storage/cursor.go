// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/kayyagari/ra/fault"
)

// FetchCursor - restartable scan over the keys sharing a prefix
type FetchCursor struct {
	pool     *PoolHandle
	strip    int
	maxRange ldb_util.Range
}

// NewFetchCursor - initialise a cursor to the start of a key range
//
// returned element keys have the pool prefix and keyPrefix removed
func (p *PoolHandle) NewFetchCursor(keyPrefix []byte) *FetchCursor {
	r := ldb_util.BytesPrefix(p.prefixKey(keyPrefix))
	return &FetchCursor{
		pool:     p,
		strip:    1 + len(keyPrefix),
		maxRange: *r,
	}
}

// Fetch - return up to count elements and advance past them
func (cursor *FetchCursor) Fetch(count int) ([]Element, error) {
	if nil == cursor {
		return nil, fault.ErrInvalidCursor
	}
	if count <= 0 {
		return nil, fault.ErrInvalidCount
	}
	if nil == cursor.pool.dataAccess {
		return nil, fault.ErrNotOpen
	}

	iter := cursor.pool.dataAccess.Iterator(&cursor.maxRange)

	results := make([]Element, 0, count)
	var lastKey []byte
iterating:
	for iter.Next() {

		// contents of the returned slice must not be modified, and are
		// only valid until the next call to Next
		key := iter.Key()
		value := iter.Value()

		lastKey = append(lastKey[:0], key...)

		dataKey := make([]byte, len(key)-cursor.strip)
		copy(dataKey, key[cursor.strip:])

		dataValue := make([]byte, len(value))
		copy(dataValue, value)

		results = append(results, Element{
			Key:   dataKey,
			Value: dataValue,
		})
		if len(results) >= count {
			break iterating
		}
	}
	iter.Release()
	err := iter.Error()
	if nil != err {
		return nil, &fault.StorageUnavailableError{Op: "scan", Err: err}
	}

	// the smallest key after the last one returned
	if nil != lastKey {
		cursor.maxRange.Start = append(lastKey, 0x00)
	}
	return results, nil
}

// Map - run a function on all remaining elements in the range
func (cursor *FetchCursor) Map(f func(key []byte, value []byte) error) error {
	if nil == cursor {
		return fault.ErrInvalidCursor
	}
	if nil == cursor.pool.dataAccess {
		return fault.ErrNotOpen
	}

	iter := cursor.pool.dataAccess.Iterator(&cursor.maxRange)

	var err error
iterating:
	for iter.Next() {
		key := iter.Key()
		value := iter.Value()

		dataKey := make([]byte, len(key)-cursor.strip)
		copy(dataKey, key[cursor.strip:])

		dataValue := make([]byte, len(value))
		copy(dataValue, value)

		err = f(dataKey, dataValue)
		if nil != err {
			break iterating
		}
	}
	iter.Release()
	if nil == err {
		if e := iter.Error(); nil != e {
			err = &fault.StorageUnavailableError{Op: "scan", Err: e}
		}
	}
	return err
}
