// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bundle

import (
	"errors"

	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/versionid"
)

// Outcome - what a committed entry did
type Outcome string

// all outcomes
const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeDeleted Outcome = "deleted"
)

// result status
const (
	StatusCommitted = "committed"
	StatusAborted   = "aborted"
)

// Details - why a bundle was aborted
type Details struct {
	Message    string            `json:"message"`
	Entry      *int              `json:"entry,omitempty"`
	Retryable  bool              `json:"retryable"`
	Token      string            `json:"token,omitempty"`
	Path       string            `json:"path,omitempty"`
	Key        string            `json:"logicalKey,omitempty"`
	Expected   string            `json:"expected,omitempty"`
	Actual     string            `json:"actual,omitempty"`
	Violations []fault.Violation `json:"violations,omitempty"`
}

// Result - the outcome of one entry
type Result struct {
	Status     string               `json:"status"`
	LogicalKey *document.LogicalKey `json:"logicalKey,omitempty"`
	VersionID  string               `json:"versionId,omitempty"`
	Outcome    Outcome              `json:"outcome,omitempty"`
	ErrorKind  fault.Kind           `json:"errorKind,omitempty"`
	Details    *Details             `json:"details,omitempty"`
}

// Response - one result per entry in entry order
type Response struct {
	Committed bool     `json:"committed"`
	Entries   []Result `json:"entries"`
}

// Committed - a result for a written entry
func Committed(key document.LogicalKey, version versionid.ID, outcome Outcome) Result {
	return Result{
		Status:     StatusCommitted,
		LogicalKey: &key,
		VersionID:  version.String(),
		Outcome:    outcome,
	}
}

// NewCommitted - the response of a committed bundle
func NewCommitted(results []Result) *Response {
	return &Response{
		Committed: true,
		Entries:   results,
	}
}

// NewAborted - the same abort reason repeated for every entry
func NewAborted(count int, err error) *Response {
	if count < 1 {
		count = 1
	}
	kind := fault.KindOf(err)
	details := DetailsOf(err)

	results := make([]Result, count)
	for i := range results {
		results[i] = Result{
			Status:    StatusAborted,
			ErrorKind: kind,
			Details:   details,
		}
	}
	return &Response{
		Committed: false,
		Entries:   results,
	}
}

// ErrorKind - the common abort kind, empty when committed
func (r *Response) ErrorKind() fault.Kind {
	if r.Committed || 0 == len(r.Entries) {
		return ""
	}
	return r.Entries[0].ErrorKind
}

// DetailsOf - the structured fields of an abort reason
func DetailsOf(err error) *Details {
	if nil == err {
		return nil
	}
	d := &Details{
		Message:   err.Error(),
		Retryable: fault.IsRetryable(err),
	}

	var (
		invalid    *fault.InvalidBundleError
		unresolved *fault.UnresolvedReferenceError
		schema     *fault.SchemaViolationError
		conflict   *fault.VersionConflictError
		missing    *fault.TargetNotFoundError
		checksum   *fault.ChecksumMismatchError
		timeout    *fault.TimeoutError
	)

	switch {
	case errors.As(err, &invalid):
		d.Entry = entryIndex(invalid.Entry)
	case errors.As(err, &unresolved):
		d.Entry = entryIndex(unresolved.Entry)
		d.Token = unresolved.Token
		d.Path = unresolved.Path
	case errors.As(err, &schema):
		d.Entry = entryIndex(schema.Entry)
		d.Path = schema.Path()
		d.Violations = schema.Violations
	case errors.As(err, &conflict):
		d.Key = conflict.Key
		d.Expected = conflict.Expected
		d.Actual = conflict.Actual
	case errors.As(err, &missing):
		d.Key = missing.Key
	case errors.As(err, &checksum):
		d.Key = checksum.Key
		d.Actual = checksum.Version
	case errors.As(err, &timeout):
		d.Key = timeout.Key
	}
	return d
}

func entryIndex(entry int) *int {
	if entry < 0 {
		return nil
	}
	return &entry
}
