// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"
)

//go:generate mockgen -destination=mocks/data_access.go -package=mocks github.com/kayyagari/ra/storage DataAccess

// DataAccess - the ordered key-value substrate
type DataAccess interface {
	Get([]byte) ([]byte, error)
	Has([]byte) (bool, error)
	Iterator(*ldb_util.Range) iterator.Iterator
	Write(*leveldb.Batch) error
	Close() error
}

type dataAccess struct {
	db   *leveldb.DB
	sync bool
}

// NewDataAccess - substrate over an open LevelDB
//
// sync forces an fsync on every batch write
func NewDataAccess(db *leveldb.DB, sync bool) DataAccess {
	return &dataAccess{
		db:   db,
		sync: sync,
	}
}

// returns nil, nil when absent
func (d *dataAccess) Get(key []byte) ([]byte, error) {
	value, err := d.db.Get(key, nil)
	if leveldb.ErrNotFound == err {
		return nil, nil
	}
	return value, err
}

func (d *dataAccess) Has(key []byte) (bool, error) {
	return d.db.Has(key, nil)
}

func (d *dataAccess) Iterator(searchRange *ldb_util.Range) iterator.Iterator {
	return d.db.NewIterator(searchRange, nil)
}

func (d *dataAccess) Write(batch *leveldb.Batch) error {
	return d.db.Write(batch, &ldb_opt.WriteOptions{Sync: d.sync})
}

func (d *dataAccess) Close() error {
	return d.db.Close()
}
