// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/kayyagari/ra/bundle"
	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/rpc/ratelimit"
)

// maximum entries weighed against the rate limiter, larger bundles
// are rejected by the coordinator's own limits
const maximumRateCount = 1000

// POST a transaction bundle
//
// the body is either form accepted by bundle.FromJSON
func (s *Server) bundle(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.inFlight.Increment()
	defer s.inFlight.Decrement()

	body, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, s.maximumBody))
	if nil != err {
		s.abort(w, 0, &fault.InvalidBundleError{Entry: fault.NoEntry, Reason: err.Error()})
		return
	}

	b, err := bundle.FromJSON(body)
	if nil != err {
		s.abort(w, 0, err)
		return
	}
	count := len(b.Entries)

	err = ratelimit.LimitN(s.limiter, count, maximumRateCount, maximumRateWait)
	if fault.ErrRateLimiting == err {
		s.abort(w, count, err)
		return
	}

	response, err := s.processor.Submit(r.Context(), b)
	if nil != err {
		if nil == response {
			response = bundle.NewAborted(count, err)
		}
		s.log.Debugf("bundle from: %s aborted: %s", r.RemoteAddr, err)
		sendStatus(w, StatusOf(err), response)
		return
	}

	sendReply(w, response)
}

// POST one resource, committed as a single entry create bundle
//
// the server assigns the id; replies 201 with the committed key and version
func (s *Server) create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.inFlight.Increment()
	defer s.inFlight.Decrement()

	if err := ratelimit.Limit(s.limiter, maximumRateWait); nil != err {
		s.abort(w, 1, err)
		return
	}

	resourceType := ps.ByName("type")
	if !document.ValidResourceType(resourceType) {
		s.abort(w, 1, &fault.InvalidBundleError{Entry: 0, Reason: fmt.Sprintf("invalid resource type: %q", resourceType)})
		return
	}

	body, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, s.maximumBody))
	if nil != err {
		s.abort(w, 1, &fault.InvalidBundleError{Entry: 0, Reason: err.Error()})
		return
	}
	content, err := document.FromJSON(body)
	if nil != err {
		s.abort(w, 1, &fault.InvalidBundleError{Entry: 0, Reason: err.Error()})
		return
	}
	if document.KindMap != content.Kind() {
		s.abort(w, 1, &fault.InvalidBundleError{Entry: 0, Reason: "content is not an object"})
		return
	}
	if v, ok := content.Field("resourceType"); ok {
		if rt, _ := v.AsString(); rt != resourceType {
			s.abort(w, 1, &fault.InvalidBundleError{Entry: 0, Reason: fmt.Sprintf("content resourceType: %q does not match: %q", rt, resourceType)})
			return
		}
	} else {
		content.Set("resourceType", document.String(resourceType))
	}

	b := &bundle.Bundle{
		Entries: []*bundle.Entry{
			{
				FullURL:   "urn:uuid:" + uuid.New().String(),
				Operation: bundle.OperationCreate,
				Content:   content,
			},
		},
	}

	response, err := s.processor.Submit(r.Context(), b)
	if nil != err {
		if nil == response {
			response = bundle.NewAborted(1, err)
		}
		s.log.Debugf("create: %s from: %s aborted: %s", resourceType, r.RemoteAddr, err)
		sendStatus(w, StatusOf(err), response)
		return
	}

	result := response.Entries[0]
	if nil != result.LogicalKey {
		w.Header().Set("Location", "/fhir/"+result.LogicalKey.String()+"/_history/"+result.VersionID)
		w.Header().Set("ETag", `W/"`+result.VersionID+`"`)
	}
	sendStatus(w, http.StatusCreated, result)
}

// a bundle refused before it reached the processor
func (s *Server) abort(w http.ResponseWriter, count int, err error) {
	s.log.Debugf("bundle refused: %s", err)
	sendStatus(w, StatusOf(err), bundle.NewAborted(count, err))
}
