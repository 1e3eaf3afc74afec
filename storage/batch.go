// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/record"
	"github.com/kayyagari/ra/util"
	"github.com/kayyagari/ra/versionid"
)

// SearchRow - one search index entry held by a document
type SearchRow struct {
	Code  string
	Value string
}

// Batch - every write of one bundle
//
// nothing is visible until the engine commits the batch
type Batch struct {
	pool    *pools
	batch   *leveldb.Batch
	records int
}

// NewBatch - start an empty batch
func (e *Engine) NewBatch() *Batch {
	return &Batch{
		pool:  &e.pool,
		batch: new(leveldb.Batch),
	}
}

func (b *Batch) put(p *PoolHandle, key []byte, value []byte) {
	b.batch.Put(p.prefixKey(key), value)
}

func (b *Batch) delete(p *PoolHandle, key []byte) {
	b.batch.Delete(p.prefixKey(key))
}

// Len - operations queued
func (b *Batch) Len() int {
	return b.batch.Len()
}

// Records - document versions queued
func (b *Batch) Records() int {
	return b.records
}

// PutVersion - append one sealed version
func (b *Batch) PutVersion(k document.LogicalKey, version versionid.ID, packed record.Packed) {
	b.put(b.pool.Versions, recordKey(k, version), packed)
	b.records += 1
}

// PutPointer - move the current pointer
func (b *Batch) PutPointer(k document.LogicalKey, p Pointer) {
	b.put(b.pool.Current, packKey(k), p.pack())
}

// PutReference - source currently refers to target
func (b *Batch) PutReference(source document.LogicalKey, target document.LogicalKey, version versionid.ID) {
	s := packKey(source)
	t := packKey(target)
	b.put(b.pool.Forward, append(append([]byte{}, s...), t...), version.Bytes())
	b.put(b.pool.Reverse, append(t, s...), []byte{})
}

// DeleteReference - drop both directions of a reference
func (b *Batch) DeleteReference(source document.LogicalKey, target document.LogicalKey) {
	s := packKey(source)
	t := packKey(target)
	b.delete(b.pool.Forward, append(append([]byte{}, s...), t...))
	b.delete(b.pool.Reverse, append(t, s...))
}

// PutSearch - index a document under a normalised value
func (b *Batch) PutSearch(k document.LogicalKey, version versionid.ID, row SearchRow) {
	key := util.AppendBytes(searchPrefix(k.ResourceType, row.Code, row.Value), []byte(k.ID))
	b.put(b.pool.Search, key, version.Bytes())
	b.put(b.pool.SearchRows, searchRowKey(k, row.Code, row.Value), []byte{})
}

// DeleteSearch - remove one index entry
func (b *Batch) DeleteSearch(k document.LogicalKey, row SearchRow) {
	key := util.AppendBytes(searchPrefix(k.ResourceType, row.Code, row.Value), []byte(k.ID))
	b.delete(b.pool.Search, key)
	b.delete(b.pool.SearchRows, searchRowKey(k, row.Code, row.Value))
}
