// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/record"
	"github.com/kayyagari/ra/versionid"
)

// VerifyResult - outcome of checking one stored record
type VerifyResult struct {
	Key     document.LogicalKey
	Version versionid.ID
	Err     error
}

// Verify - check the checksum and header of every stored record
//
// f sees every record, failed ones carry Err; returns the counts
func (e *Engine) Verify(f func(VerifyResult)) (total int, failed int, err error) {
	e.RLock()
	defer e.RUnlock()

	err = e.pool.Versions.NewFetchCursor(nil).Map(func(key []byte, value []byte) error {
		total += 1
		result := VerifyResult{}

		k, n, err := unpackKey(key)
		if nil == err {
			result.Key = k
			result.Version, err = versionid.FromInverted(key[n:])
		}
		if nil == err {
			var h *record.Header
			h, _, err = record.Packed(value).Verify()
			if nil == err && (h.Key != result.Key || h.Version != result.Version) {
				err = fault.ErrRecordKeyMismatch
			}
		}

		if nil != err {
			failed += 1
			result.Err = err
		}
		if nil != f {
			f(result)
		}
		return nil
	})
	return total, failed, err
}
