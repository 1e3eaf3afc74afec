// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/kayyagari/ra/fault"
)

// PoolHandle - one prefixed table
type PoolHandle struct {
	prefix     byte
	limit      []byte
	dataAccess DataAccess
}

// Element - a binary data item
type Element struct {
	Key   []byte
	Value []byte
}

// prepend the prefix onto the key
func (p *PoolHandle) prefixKey(key []byte) []byte {
	prefixedKey := make([]byte, 1, len(key)+1)
	prefixedKey[0] = p.prefix
	return append(prefixedKey, key...)
}

// Get - read a value for a given key
//
// nil, nil when the key is absent
func (p *PoolHandle) Get(key []byte) ([]byte, error) {
	if nil == p.dataAccess {
		return nil, fault.ErrNotOpen
	}
	value, err := p.dataAccess.Get(p.prefixKey(key))
	if nil != err {
		return nil, &fault.StorageUnavailableError{Op: "get", Err: err}
	}
	return value, nil
}

// Has - check if a key exists
func (p *PoolHandle) Has(key []byte) (bool, error) {
	if nil == p.dataAccess {
		return false, fault.ErrNotOpen
	}
	found, err := p.dataAccess.Has(p.prefixKey(key))
	if nil != err {
		return false, &fault.StorageUnavailableError{Op: "has", Err: err}
	}
	return found, nil
}
