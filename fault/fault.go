// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type LengthError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type RecordError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised           = ExistsError("already initialised")
	ErrBundleIsEmpty                = InvalidError("bundle has no entries")
	ErrCertificateFileAlreadyExists = ExistsError("certificate file already exists")
	ErrDatabaseIsNewer              = ProcessError("database layout is newer than this program")
	ErrDocumentDeleted              = NotFoundError("document is deleted")
	ErrDocumentNotFound             = NotFoundError("document not found")
	ErrIndexIsCorrupt               = RecordError("index row is corrupt")
	ErrInvalidCount                 = InvalidError("invalid count")
	ErrInvalidCreated               = InvalidError("created time out of range")
	ErrInvalidCursor                = InvalidError("invalid cursor")
	ErrInvalidKey                   = InvalidError("invalid logical key")
	ErrInvalidReference             = InvalidError("invalid reference")
	ErrInvalidStateChange           = ProcessError("invalid state change")
	ErrInvalidStructPointer         = InvalidError("invalid struct pointer")
	ErrInvalidVersionId             = InvalidError("invalid version id")
	ErrKeyFileAlreadyExists         = ExistsError("key file already exists")
	ErrMissingParameters            = InvalidError("missing parameters")
	ErrNestingTooDeep               = LengthError("document nesting too deep")
	ErrNotInitialised               = NotFoundError("not initialised")
	ErrNotOpen                      = ProcessError("database is not open")
	ErrQueueFull                    = ProcessError("submission queue is full")
	ErrRateLimiting                 = ProcessError("rate limiting")
	ErrRecordHasTrailingData        = RecordError("record has trailing data")
	ErrRecordIsTruncated            = RecordError("record is truncated")
	ErrRecordKeyMismatch            = RecordError("record header does not match its storage key")
	ErrShuttingDown                 = ProcessError("shutting down")
	ErrStringTooLong                = LengthError("string too long")
	ErrUnknownResourceType          = NotFoundError("unknown resource type")
	ErrUnknownValueTag              = RecordError("unknown value tag")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e LengthError) Error() string   { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e RecordError) Error() string   { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool   { var x ExistsError; return errors.As(e, &x) }
func IsErrInvalid(e error) bool  { var x InvalidError; return errors.As(e, &x) }
func IsErrLength(e error) bool   { var x LengthError; return errors.As(e, &x) }
func IsErrNotFound(e error) bool { var x NotFoundError; return errors.As(e, &x) }
func IsErrProcess(e error) bool  { var x ProcessError; return errors.As(e, &x) }
func IsErrRecord(e error) bool   { var x RecordError; return errors.As(e, &x) }
