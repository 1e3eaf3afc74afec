// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/kayyagari/ra/document"
)

// Cache - decoded versions, keyed by storage key
//
// an entry is only used when the checksum of the record just read
// matches the one it was decoded from
type Cache interface {
	Get(string, uint32) (*document.Document, bool)
	Set(string, uint32, *document.Document)
	Clear()
}

const (
	defaultExpiration = 2 * time.Minute
	cleanupInterval   = 1 * time.Minute
)

type dbCache struct {
	cache *cache.Cache
}

type cacheData struct {
	checksum uint32
	doc      *document.Document
}

func newCache(expiration time.Duration) Cache {
	if expiration <= 0 {
		expiration = defaultExpiration
	}
	return &dbCache{
		cache: cache.New(expiration, cleanupInterval),
	}
}

func (c *dbCache) Get(key string, checksum uint32) (*document.Document, bool) {
	obj, found := c.cache.Get(key)
	if !found {
		return nil, false
	}

	data := obj.(cacheData)
	if data.checksum != checksum {
		c.cache.Delete(key)
		return nil, false
	}
	return copyDocument(data.doc), true
}

func (c *dbCache) Set(key string, checksum uint32, doc *document.Document) {
	cached := cacheData{
		checksum: checksum,
		doc:      copyDocument(doc),
	}
	c.cache.SetDefault(key, cached)
}

func (c *dbCache) Clear() {
	c.cache.Flush()
}

// trees are mutable so callers never share one with the cache
func copyDocument(d *document.Document) *document.Document {
	c := *d
	c.Content = d.Content.Clone()
	return &c
}
