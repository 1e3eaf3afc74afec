// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

import (
	"errors"

	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/index"
	"github.com/kayyagari/ra/versionid"
)

// MaximumHistory - most versions returned by one History call
const MaximumHistory = 1000

// Current - the newest version of a key
func (c *Coordinator) Current(k document.LogicalKey) (*document.Document, error) {
	d, err := c.store.GetCurrent(k)
	return d, c.checked(err)
}

// Version - one specific version, which may be a tombstone
func (c *Coordinator) Version(k document.LogicalKey, version versionid.ID) (*document.Document, error) {
	d, err := c.store.GetVersion(k, version)
	return d, c.checked(err)
}

// History - up to count versions, newest first
func (c *Coordinator) History(k document.LogicalKey, count int) ([]*document.Document, error) {
	if count <= 0 || count > MaximumHistory {
		return nil, fault.ErrInvalidCount
	}
	docs, err := c.store.History(k).Fetch(count)
	if nil != err {
		return nil, c.checked(err)
	}
	if 0 == len(docs) {
		return nil, fault.ErrDocumentNotFound
	}
	return docs, nil
}

// Referrers - keys whose current version refers to k
func (c *Coordinator) Referrers(k document.LogicalKey) ([]document.LogicalKey, error) {
	return c.store.Referrers(k)
}

// Search - keys of a type whose search parameter matches value
//
// value is normalised the same way as when it was indexed
func (c *Coordinator) Search(resourceType string, code string, value string) ([]document.LogicalKey, error) {
	return c.store.Search(resourceType, code, index.Normalise(value))
}

// corruption is counted and reported, never retried
func (c *Coordinator) checked(err error) error {
	var mismatch *fault.ChecksumMismatchError
	if errors.As(err, &mismatch) {
		c.metrics.ChecksumFailure()
		c.log.Criticalf("read failed integrity check: %s", err)
	}
	return err
}
