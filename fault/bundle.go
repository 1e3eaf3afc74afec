// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind - the errorKind reported for every entry of an aborted bundle
type Kind string

// all reported kinds
const (
	KindInvalidBundle       Kind = "InvalidBundle"
	KindUnresolvedReference Kind = "UnresolvedReference"
	KindSchemaViolation     Kind = "SchemaViolation"
	KindVersionConflict     Kind = "VersionConflict"
	KindNotFound            Kind = "NotFound"
	KindChecksumMismatch    Kind = "ChecksumMismatch"
	KindStorageUnavailable  Kind = "StorageUnavailable"
	KindTimeout             Kind = "Timeout"
	KindCancelled           Kind = "Cancelled"
	KindInternal            Kind = "Internal"
)

// NoEntry - entry index used when a failure is not tied to one entry
const NoEntry = -1

// InvalidBundleError - parse level rejection of a bundle
type InvalidBundleError struct {
	Entry  int
	Reason string
}

func (e *InvalidBundleError) Error() string {
	if NoEntry == e.Entry {
		return "invalid bundle: " + e.Reason
	}
	return fmt.Sprintf("invalid bundle: entry[%d]: %s", e.Entry, e.Reason)
}

// UnresolvedReferenceError - a bundle-local token has no entry
type UnresolvedReferenceError struct {
	Entry int
	Path  string
	Token string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference: %q at entry[%d].%s", e.Token, e.Entry, e.Path)
}

// Violation - a single structural validation failure
type Violation struct {
	ResourceType string `json:"resourceType"`
	Path         string `json:"path"`
	Rule         string `json:"rule"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s.%s: %s", v.ResourceType, v.Path, v.Rule)
}

// SchemaViolationError - every violation found in a bundle
//
// the first violation is the one reported as the abort reason
type SchemaViolationError struct {
	Entry      int
	Violations []Violation
}

func (e *SchemaViolationError) Error() string {
	if 0 == len(e.Violations) {
		return "schema violation"
	}
	if 1 == len(e.Violations) {
		return fmt.Sprintf("schema violation: entry[%d]: %s", e.Entry, e.Violations[0])
	}
	return fmt.Sprintf("schema violation: entry[%d]: %s (and %d more)", e.Entry, e.Violations[0], len(e.Violations)-1)
}

// ResourceType - of the first violation
func (e *SchemaViolationError) ResourceType() string { return e.first().ResourceType }

// Path - of the first violation
func (e *SchemaViolationError) Path() string { return e.first().Path }

// Rule - of the first violation
func (e *SchemaViolationError) Rule() string { return e.first().Rule }

func (e *SchemaViolationError) first() Violation {
	if 0 == len(e.Violations) {
		return Violation{}
	}
	return e.Violations[0]
}

// VersionConflictError - optimistic concurrency precondition failed
type VersionConflictError struct {
	Key      string
	Expected string
	Actual   string
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: %s expected: %q  actual: %q", e.Key, e.Expected, e.Actual)
}

// TargetNotFoundError - update or delete of a key that has no versions
type TargetNotFoundError struct {
	Key string
}

func (e *TargetNotFoundError) Error() string {
	return fmt.Sprintf("target not found: %s", e.Key)
}

// ChecksumMismatchError - a stored record failed its integrity check
type ChecksumMismatchError struct {
	Key      string
	Version  string
	Stored   uint32
	Computed uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: %s version: %s stored: %08x  computed: %08x", e.Key, e.Version, e.Stored, e.Computed)
}

// StorageUnavailableError - the key-value substrate failed
type StorageUnavailableError struct {
	Op  string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable: %s: %v", e.Op, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

// TimeoutError - an ownership token or the bundle deadline expired
type TimeoutError struct {
	Key    string
	Waited time.Duration
	Err    error
}

func (e *TimeoutError) Error() string {
	if "" == e.Key {
		return fmt.Sprintf("timeout after: %s", e.Waited)
	}
	return fmt.Sprintf("timeout waiting for: %s after: %s", e.Key, e.Waited)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// KindOf - classify any error for reporting
func KindOf(err error) Kind {
	if nil == err {
		return ""
	}

	var (
		invalid    *InvalidBundleError
		unresolved *UnresolvedReferenceError
		schema     *SchemaViolationError
		conflict   *VersionConflictError
		missing    *TargetNotFoundError
		checksum   *ChecksumMismatchError
		storage    *StorageUnavailableError
		timeout    *TimeoutError
	)

	switch {
	case errors.As(err, &invalid):
		return KindInvalidBundle
	case errors.As(err, &unresolved):
		return KindUnresolvedReference
	case errors.As(err, &schema):
		return KindSchemaViolation
	case errors.As(err, &conflict):
		return KindVersionConflict
	case errors.As(err, &missing):
		return KindNotFound
	case errors.As(err, &checksum):
		return KindChecksumMismatch
	case errors.As(err, &storage):
		return KindStorageUnavailable
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case IsErrNotFound(err):
		return KindNotFound
	case IsErrInvalid(err), IsErrLength(err):
		return KindInvalidBundle
	}
	return KindInternal
}

// IsRetryable - true when nothing was persisted and the same bundle
// may be submitted again unchanged
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindStorageUnavailable, KindTimeout:
		return true
	}
	return false
}
