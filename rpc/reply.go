// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"errors"
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/kayyagari/ra/fault"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// seconds a client should wait before retrying
const retryAfter = 1

// StatusOf - the HTTP status reporting an error
func StatusOf(err error) int {
	switch {
	case nil == err:
		return http.StatusOK
	case errors.Is(err, fault.ErrRateLimiting):
		return http.StatusTooManyRequests
	case errors.Is(err, fault.ErrQueueFull), errors.Is(err, fault.ErrShuttingDown):
		return http.StatusServiceUnavailable
	case errors.Is(err, fault.ErrDocumentDeleted):
		return http.StatusGone
	}

	switch fault.KindOf(err) {
	case fault.KindInvalidBundle:
		return http.StatusBadRequest
	case fault.KindUnresolvedReference, fault.KindSchemaViolation:
		return http.StatusUnprocessableEntity
	case fault.KindVersionConflict:
		return http.StatusConflict
	case fault.KindNotFound:
		return http.StatusNotFound
	case fault.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	case fault.KindTimeout:
		return http.StatusGatewayTimeout
	case fault.KindCancelled:
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

// send an JSON encoded reply
func sendReply(w http.ResponseWriter, data interface{}) {
	sendStatus(w, http.StatusOK, data)
}

func sendStatus(w http.ResponseWriter, code int, data interface{}) {
	text, err := json.Marshal(data)
	if nil != err {
		sendInternalServerError(w)
		return
	}
	sendJSON(w, code, text)
}

func sendJSON(w http.ResponseWriter, code int, text []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if http.StatusTooManyRequests == code || http.StatusServiceUnavailable == code {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	w.WriteHeader(code)
	_, _ = w.Write(text)
}

// selected errors
func sendNotFound(w http.ResponseWriter, _ *http.Request) {
	sendError(w, "not found", http.StatusNotFound)
}
func sendMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	sendError(w, "method not allowed", http.StatusMethodNotAllowed)
}
func sendForbidden(w http.ResponseWriter) {
	sendError(w, "forbidden", http.StatusForbidden)
}
func sendInternalServerError(w http.ResponseWriter) {
	sendError(w, "internal server error", http.StatusInternalServerError)
}

// report a failed read
func sendFault(w http.ResponseWriter, err error) {
	code := StatusOf(err)
	text, e := json.Marshal(eType{
		Code:      code,
		Error:     err.Error(),
		ErrorKind: fault.KindOf(err),
	})
	if nil != e {
		sendInternalServerError(w)
		return
	}
	sendJSON(w, code, text)
}

// to compose JSON error messages
type eType struct {
	Code      int        `json:"code"`
	Error     string     `json:"error"`
	ErrorKind fault.Kind `json:"errorKind,omitempty"`
}

// output an error with a JSON body
func sendError(w http.ResponseWriter, message string, code int) {
	text, err := json.Marshal(eType{
		Code:  code,
		Error: message,
	})
	if nil != err {
		// manually composed error just incase JSON fails
		http.Error(w, `{"code":500,"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}
	sendJSON(w, code, text)
}
