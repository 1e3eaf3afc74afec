// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/bitmark-inc/logger"

	"github.com/kayyagari/ra/fault"
)

// the storage pools
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	Versions   *PoolHandle `prefix:"R"`
	Current    *PoolHandle `prefix:"C"`
	Forward    *PoolHandle `prefix:"F"`
	Reverse    *PoolHandle `prefix:"V"`
	Search     *PoolHandle `prefix:"S"`
	SearchRows *PoolHandle `prefix:"I"`
}

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const currentDBVersion = 0x100

// pool access modes
const (
	ReadOnly  = true
	ReadWrite = false
)

// Options - how to open the database
type Options struct {
	ReadOnly    bool
	Sync        bool
	CacheExpiry time.Duration
}

// Engine - one open document database
type Engine struct {
	sync.RWMutex
	log        *logger.L
	dataAccess DataAccess
	pool       pools
	cache      Cache
	readOnly   bool
}

// Open - open or create the database in a directory
func Open(directory string, options Options) (*Engine, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: options.ReadOnly,
		ReadOnly:       options.ReadOnly,
	}

	db, err := leveldb.OpenFile(directory, opt)
	if nil != err {
		return nil, &fault.StorageUnavailableError{Op: "open", Err: err}
	}

	engine, err := New(NewDataAccess(db, options.Sync), options)
	if nil != err {
		db.Close()
		return nil, err
	}
	return engine, nil
}

// New - engine on an already open substrate, checks the layout version
func New(access DataAccess, options Options) (*Engine, error) {
	log := logger.New("storage")

	version, err := getVersion(access)
	if nil != err {
		return nil, err
	}

	// ensure no database downgrade
	if version > currentDBVersion {
		log.Criticalf("database version: %d > current version: %d", version, currentDBVersion)
		return nil, fault.ErrDatabaseIsNewer
	}

	if 0 == version {
		if options.ReadOnly {
			return nil, fmt.Errorf("database is empty: version: %d  current version: %d", version, currentDBVersion)
		}
		err = putVersion(access, currentDBVersion)
		if nil != err {
			return nil, &fault.StorageUnavailableError{Op: "put version", Err: err}
		}
	}

	e := &Engine{
		log:        log,
		dataAccess: access,
		cache:      newCache(options.CacheExpiry),
		readOnly:   options.ReadOnly,
	}

	// this will be a struct type
	poolType := reflect.TypeOf(e.pool)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&e.pool).Elem()

	// scan each field
	for i := 0; i < poolType.NumField(); i += 1 {

		fieldInfo := poolType.Field(i)

		prefixTag := fieldInfo.Tag.Get("prefix")
		if 1 != len(prefixTag) {
			return nil, fmt.Errorf("pool: %v has invalid prefix: %q", fieldInfo, prefixTag)
		}

		prefix := prefixTag[0]
		limit := []byte(nil)
		if prefix < 255 {
			limit = []byte{prefix + 1}
		}

		p := &PoolHandle{
			prefix:     prefix,
			limit:      limit,
			dataAccess: access,
		}
		poolValue.Field(i).Set(reflect.ValueOf(p))
	}

	log.Infof("opened database version: %d  read only: %t", currentDBVersion, options.ReadOnly)
	return e, nil
}

// Close - release the database
func (e *Engine) Close() error {
	e.Lock()
	defer e.Unlock()

	if nil == e.dataAccess {
		return nil
	}
	err := e.dataAccess.Close()
	e.dataAccess = nil
	e.cache.Clear()

	// detach pools so late readers see ErrNotOpen
	e.pool.Versions.dataAccess = nil
	e.pool.Current.dataAccess = nil
	e.pool.Forward.dataAccess = nil
	e.pool.Reverse.dataAccess = nil
	e.pool.Search.dataAccess = nil
	e.pool.SearchRows.dataAccess = nil

	e.log.Info("closed")
	return err
}

func getVersion(access DataAccess) (int, error) {
	versionValue, err := access.Get(versionKey)
	if nil != err {
		return 0, &fault.StorageUnavailableError{Op: "get version", Err: err}
	}
	if nil == versionValue {
		return 0, nil
	}

	if 4 != len(versionValue) {
		return 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}
	return int(binary.BigEndian.Uint32(versionValue)), nil
}

func putVersion(access DataAccess, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	batch := new(leveldb.Batch)
	batch.Put(versionKey, currentVersion)
	return access.Write(batch)
}
