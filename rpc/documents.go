// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/tidwall/sjson"

	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/rpc/ratelimit"
	"github.com/kayyagari/ra/versionid"
)

// one entry of a history reply
type historyEntry struct {
	FullURL     string     `json:"fullUrl"`
	VersionID   string     `json:"versionId"`
	LastUpdated string     `json:"lastUpdated"`
	Deleted     bool       `json:"deleted,omitempty"`
	Resource    rawMessage `json:"resource,omitempty"`
}

// rawMessage - pre-encoded JSON copied unchanged into a reply
type rawMessage []byte

// MarshalJSON - the bytes themselves, null when empty
func (m rawMessage) MarshalJSON() ([]byte, error) {
	if 0 == len(m) {
		return []byte("null"), nil
	}
	return m, nil
}

// GET the current version
func (s *Server) current(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	k, ok := s.readKey(w, ps)
	if !ok {
		return
	}

	d, err := s.reader.Current(k)
	if nil != err {
		sendFault(w, err)
		return
	}
	s.sendDocument(w, d)
}

// GET one version
func (s *Server) historyVersion(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	k, ok := s.readKey(w, ps)
	if !ok {
		return
	}

	version, err := versionid.FromString(ps.ByName("vid"))
	if nil != err {
		sendFault(w, fault.ErrInvalidVersionId)
		return
	}

	d, err := s.reader.Version(k, version)
	if nil != err {
		sendFault(w, err)
		return
	}
	if d.Deleted {
		setVersionHeaders(w, d)
		sendFault(w, fault.ErrDocumentDeleted)
		return
	}
	s.sendDocument(w, d)
}

// GET versions newest first
//
// query parameters:
//   count=<int>   [1..1000  default: 10]
func (s *Server) history(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	k, ok := s.readKey(w, ps)
	if !ok {
		return
	}

	count := defaultCount
	if c := r.URL.Query().Get("count"); "" != c {
		n, err := strconv.Atoi(c)
		if nil != err {
			sendFault(w, fault.ErrInvalidCount)
			return
		}
		count = n
	}

	docs, err := s.reader.History(k, count)
	if nil != err {
		sendFault(w, err)
		return
	}

	type theReply struct {
		ResourceType string         `json:"resourceType"`
		Type         string         `json:"type"`
		Total        int            `json:"total"`
		Entry        []historyEntry `json:"entry"`
	}

	reply := theReply{
		ResourceType: "Bundle",
		Type:         "history",
		Total:        len(docs),
		Entry:        make([]historyEntry, 0, len(docs)),
	}
	for _, d := range docs {
		e := historyEntry{
			FullURL:     d.Key.String(),
			VersionID:   d.Version.String(),
			LastUpdated: lastUpdated(d),
			Deleted:     d.Deleted,
		}
		if !d.Deleted {
			body, err := withMeta(d)
			if nil != err {
				s.log.Errorf("history: %s encode error: %s", d.Key, err)
				sendInternalServerError(w)
				return
			}
			e.Resource = body
		}
		reply.Entry = append(reply.Entry, e)
	}

	sendReply(w, reply)
}

// GET keys whose current version refers to this one
func (s *Server) referrers(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	k, ok := s.readKey(w, ps)
	if !ok {
		return
	}

	keys, err := s.reader.Referrers(k)
	if nil != err {
		sendFault(w, err)
		return
	}
	if nil == keys {
		keys = []document.LogicalKey{}
	}

	type theReply struct {
		LogicalKey document.LogicalKey   `json:"logicalKey"`
		Referrers  []document.LogicalKey `json:"referrers"`
	}
	sendReply(w, theReply{LogicalKey: k, Referrers: keys})
}

// GET current keys of a type matching every query parameter
//
// e.g. /fhir/Patient?family=smith&birthdate=1970-01-01
func (s *Server) search(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := ratelimit.Limit(s.limiter, maximumRateWait); nil != err {
		sendFault(w, err)
		return
	}

	resourceType := ps.ByName("type")
	if !document.ValidResourceType(resourceType) {
		sendFault(w, fault.ErrInvalidKey)
		return
	}

	query := r.URL.Query()
	if 0 == len(query) {
		sendFault(w, fault.ErrMissingParameters)
		return
	}

	codes := make([]string, 0, len(query))
	for code := range query {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var matched []document.LogicalKey
	for i, code := range codes {
		keys, err := s.reader.Search(resourceType, code, query.Get(code))
		if nil != err {
			sendFault(w, err)
			return
		}
		if 0 == i {
			matched = keys
		} else {
			matched = intersect(matched, keys)
		}
		if 0 == len(matched) {
			break
		}
	}
	if nil == matched {
		matched = []document.LogicalKey{}
	}

	type theReply struct {
		ResourceType string                `json:"resourceType"`
		Total        int                   `json:"total"`
		Matches      []document.LogicalKey `json:"matches"`
	}
	sendReply(w, theReply{
		ResourceType: resourceType,
		Total:        len(matched),
		Matches:      matched,
	})
}

// keys of a that are also in b, in the order of a
func intersect(a []document.LogicalKey, b []document.LogicalKey) []document.LogicalKey {
	in := make(map[document.LogicalKey]struct{}, len(b))
	for _, k := range b {
		in[k] = struct{}{}
	}
	result := make([]document.LogicalKey, 0, len(a))
	for _, k := range a {
		if _, ok := in[k]; ok {
			result = append(result, k)
		}
	}
	return result
}

// the key of a read route, rate limited
func (s *Server) readKey(w http.ResponseWriter, ps httprouter.Params) (document.LogicalKey, bool) {
	if err := ratelimit.Limit(s.limiter, maximumRateWait); nil != err {
		sendFault(w, err)
		return document.LogicalKey{}, false
	}

	k := document.LogicalKey{
		ResourceType: ps.ByName("type"),
		ID:           ps.ByName("id"),
	}
	if !k.Valid() {
		sendFault(w, fault.ErrInvalidKey)
		return k, false
	}
	return k, true
}

func (s *Server) sendDocument(w http.ResponseWriter, d *document.Document) {
	body, err := withMeta(d)
	if nil != err {
		s.log.Errorf("document: %s encode error: %s", d.Key, err)
		sendInternalServerError(w)
		return
	}
	setVersionHeaders(w, d)
	sendJSON(w, http.StatusOK, body)
}

func setVersionHeaders(w http.ResponseWriter, d *document.Document) {
	w.Header().Set("ETag", `W/"`+d.Version.String()+`"`)
	w.Header().Set("Last-Modified", d.Created.UTC().Format(http.TimeFormat))
}

// stored content with meta.versionId and meta.lastUpdated set
//
// meta is never stored, it always reflects the version record
func withMeta(d *document.Document) ([]byte, error) {
	body, err := d.Content.MarshalJSON()
	if nil != err {
		return nil, err
	}
	body, err = sjson.SetBytes(body, "meta.versionId", d.Version.String())
	if nil != err {
		return nil, err
	}
	return sjson.SetBytes(body, "meta.lastUpdated", lastUpdated(d))
}

func lastUpdated(d *document.Document) string {
	return d.Created.UTC().Format(time.RFC3339Nano)
}
