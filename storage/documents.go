// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"errors"

	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/record"
	"github.com/kayyagari/ra/util"
	"github.com/kayyagari/ra/versionid"
)

// Store - document operations the coordinator and readers rely on
type Store interface {
	NewBatch() *Batch
	CommitBatch(*Batch) error
	GetPointer(document.LogicalKey) (*Pointer, error)
	GetCurrent(document.LogicalKey) (*document.Document, error)
	GetVersion(document.LogicalKey, versionid.ID) (*document.Document, error)
	History(document.LogicalKey) *HistoryCursor
	References(document.LogicalKey) ([]document.LogicalKey, error)
	Referrers(document.LogicalKey) ([]document.LogicalKey, error)
	SearchRows(document.LogicalKey) ([]SearchRow, error)
	Search(resourceType string, code string, value string) ([]document.LogicalKey, error)
	LatestVersion() (versionid.ID, error)
}

// CommitBatch - write the whole batch atomically
//
// on error nothing from the batch is visible
func (e *Engine) CommitBatch(b *Batch) error {
	e.RLock()
	defer e.RUnlock()

	if nil == e.dataAccess {
		return &fault.StorageUnavailableError{Op: "commit", Err: fault.ErrNotOpen}
	}
	if e.readOnly {
		return &fault.StorageUnavailableError{Op: "commit", Err: errors.New("database is read only")}
	}
	if 0 == b.Len() {
		return nil
	}

	err := e.dataAccess.Write(b.batch)
	if nil != err {
		e.log.Errorf("commit of %d operations failed: %s", b.Len(), err)
		return &fault.StorageUnavailableError{Op: "commit", Err: err}
	}
	e.log.Debugf("committed %d operations  records: %d", b.Len(), b.Records())
	return nil
}

// GetPointer - the current pointer, nil when the key has no versions
func (e *Engine) GetPointer(k document.LogicalKey) (*Pointer, error) {
	e.RLock()
	defer e.RUnlock()

	buffer, err := e.pool.Current.Get(packKey(k))
	if nil != err {
		return nil, err
	}
	if nil == buffer {
		return nil, nil
	}
	return unpackPointer(buffer)
}

// GetCurrent - the newest version
//
// a tombstoned key gives ErrDocumentDeleted
func (e *Engine) GetCurrent(k document.LogicalKey) (*document.Document, error) {
	p, err := e.GetPointer(k)
	if nil != err {
		return nil, err
	}
	if nil == p {
		return nil, fault.ErrDocumentNotFound
	}
	if p.Deleted {
		return nil, fault.ErrDocumentDeleted
	}
	return e.GetVersion(k, p.Version)
}

// GetVersion - one specific version, tombstones included
func (e *Engine) GetVersion(k document.LogicalKey, version versionid.ID) (*document.Document, error) {
	e.RLock()
	defer e.RUnlock()

	packed, err := e.pool.Versions.Get(recordKey(k, version))
	if nil != err {
		return nil, err
	}
	if nil == packed {
		return nil, fault.ErrDocumentNotFound
	}
	return e.unpack(k, version, record.Packed(packed))
}

// verify every read, decode only on a cache miss
func (e *Engine) unpack(k document.LogicalKey, version versionid.ID, packed record.Packed) (*document.Document, error) {
	h, payload, err := packed.Verify()
	if nil != err {
		var mismatch *fault.ChecksumMismatchError
		if errors.As(err, &mismatch) {
			e.log.Criticalf("checksum mismatch: %s", err)
		}
		return nil, err
	}
	if h.Key != k || h.Version != version {
		e.log.Criticalf("record header: %s@%s  stored under: %s@%s", h.Key, h.Version, k, version)
		return nil, fault.ErrRecordKeyMismatch
	}

	cacheKey := k.String() + "@" + version.String()
	if d, ok := e.cache.Get(cacheKey, h.Checksum); ok {
		return d, nil
	}

	d, err := payload.Decode()
	if nil != err {
		return nil, err
	}
	d.Key = k
	d.Version = version

	e.cache.Set(cacheKey, h.Checksum, d)
	return d, nil
}

// References - targets the current version of source refers to
func (e *Engine) References(source document.LogicalKey) ([]document.LogicalKey, error) {
	e.RLock()
	defer e.RUnlock()
	return scanKeys(e.pool.Forward.NewFetchCursor(packKey(source)))
}

// Referrers - sources whose current version refers to target
func (e *Engine) Referrers(target document.LogicalKey) ([]document.LogicalKey, error) {
	e.RLock()
	defer e.RUnlock()
	return scanKeys(e.pool.Reverse.NewFetchCursor(packKey(target)))
}

func scanKeys(cursor *FetchCursor) ([]document.LogicalKey, error) {
	keys := []document.LogicalKey{}
	err := cursor.Map(func(key []byte, _ []byte) error {
		k, n, err := unpackKey(key)
		if nil != err {
			return err
		}
		if n != len(key) {
			return fault.ErrIndexIsCorrupt
		}
		keys = append(keys, k)
		return nil
	})
	return keys, err
}

// SearchRows - the search index entries a document currently holds
func (e *Engine) SearchRows(k document.LogicalKey) ([]SearchRow, error) {
	e.RLock()
	defer e.RUnlock()

	rows := []SearchRow{}
	err := e.pool.SearchRows.NewFetchCursor(packKey(k)).Map(func(key []byte, _ []byte) error {
		code, cn, err := util.ReadBytes(key, len(key))
		if nil != err {
			return fault.ErrIndexIsCorrupt
		}
		value, vn, err := util.ReadBytes(key[cn:], len(key))
		if nil != err || cn+vn != len(key) {
			return fault.ErrIndexIsCorrupt
		}
		rows = append(rows, SearchRow{Code: string(code), Value: string(value)})
		return nil
	})
	return rows, err
}

// Search - keys of a type indexed under an exact normalised value
func (e *Engine) Search(resourceType string, code string, value string) ([]document.LogicalKey, error) {
	e.RLock()
	defer e.RUnlock()

	keys := []document.LogicalKey{}
	err := e.pool.Search.NewFetchCursor(searchPrefix(resourceType, code, value)).Map(func(key []byte, _ []byte) error {
		id, n, err := util.ReadBytes(key, document.MaximumIDLength)
		if nil != err || n != len(key) {
			return fault.ErrIndexIsCorrupt
		}
		keys = append(keys, document.LogicalKey{ResourceType: resourceType, ID: string(id)})
		return nil
	})
	return keys, err
}

// LatestVersion - highest version held by any current pointer
//
// used to seed the allocator so a restarted process never goes backwards
func (e *Engine) LatestVersion() (versionid.ID, error) {
	e.RLock()
	defer e.RUnlock()

	latest := versionid.Nil
	err := e.pool.Current.NewFetchCursor(nil).Map(func(_ []byte, value []byte) error {
		p, err := unpackPointer(value)
		if nil != err {
			return err
		}
		if p.Version.Compare(latest) > 0 {
			latest = p.Version
		}
		return nil
	})
	return latest, err
}
