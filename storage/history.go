// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/record"
	"github.com/kayyagari/ra/versionid"
)

// HistoryCursor - every version of one key, newest first
//
// the cursor is lazy: each Fetch reads only the versions it returns
// and the next Fetch continues after them
type HistoryCursor struct {
	engine *Engine
	key    document.LogicalKey
	cursor *FetchCursor
}

// History - cursor at the newest version of a key
func (e *Engine) History(k document.LogicalKey) *HistoryCursor {
	return &HistoryCursor{
		engine: e,
		key:    k,
		cursor: e.pool.Versions.NewFetchCursor(packKey(k)),
	}
}

// Fetch - up to count more versions
func (h *HistoryCursor) Fetch(count int) ([]*document.Document, error) {
	h.engine.RLock()
	elements, err := h.cursor.Fetch(count)
	h.engine.RUnlock()
	if nil != err {
		return nil, err
	}

	docs := make([]*document.Document, 0, len(elements))
	for _, e := range elements {
		d, err := h.decode(e)
		if nil != err {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// Map - run a function on every remaining version
func (h *HistoryCursor) Map(f func(*document.Document) error) error {
	h.engine.RLock()
	defer h.engine.RUnlock()

	return h.cursor.Map(func(key []byte, value []byte) error {
		d, err := h.decode(Element{Key: key, Value: value})
		if nil != err {
			return err
		}
		return f(d)
	})
}

func (h *HistoryCursor) decode(e Element) (*document.Document, error) {
	version, err := versionid.FromInverted(e.Key)
	if nil != err {
		return nil, err
	}
	return h.engine.unpack(h.key, version, record.Packed(e.Value))
}
