// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bundle

import (
	"fmt"

	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/versionid"
)

// Operation - what an entry does to its document
type Operation string

// all operations
const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Valid - true for a known operation
func (op Operation) Valid() bool {
	switch op {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// Entry - one operation of a bundle
type Entry struct {
	FullURL         string
	Operation       Operation
	Target          *document.LogicalKey
	ExpectedVersion versionid.ID
	Content         *document.Value
}

// HasPrecondition - true when an expected version was given
func (e *Entry) HasPrecondition() bool {
	return !e.ExpectedVersion.IsNil()
}

// ResourceType - from the target, or from the content of a create
func (e *Entry) ResourceType() string {
	if nil != e.Target {
		return e.Target.ResourceType
	}
	if rt, ok := e.Content.Field("resourceType"); ok {
		s, _ := rt.AsString()
		return s
	}
	return ""
}

// Bundle - entries committed all together or not at all
type Bundle struct {
	Entries []*Entry
}

// Limits - parse level restrictions from the configuration
type Limits struct {
	MaximumEntries      int
	RequirePrecondition bool
}

// Check - everything that can be rejected before resolution
func (b *Bundle) Check(limits Limits) error {
	if nil == b || 0 == len(b.Entries) {
		return &fault.InvalidBundleError{Entry: fault.NoEntry, Reason: fault.ErrBundleIsEmpty.Error()}
	}
	if limits.MaximumEntries > 0 && len(b.Entries) > limits.MaximumEntries {
		return &fault.InvalidBundleError{
			Entry:  fault.NoEntry,
			Reason: fmt.Sprintf("%d entries exceeds maximum: %d", len(b.Entries), limits.MaximumEntries),
		}
	}

	fullURLs := make(map[string]int, len(b.Entries))
	targets := make(map[document.LogicalKey]int, len(b.Entries))

	for i, e := range b.Entries {
		invalid := func(format string, arguments ...interface{}) error {
			return &fault.InvalidBundleError{Entry: i, Reason: fmt.Sprintf(format, arguments...)}
		}

		if nil == e {
			return invalid("missing entry")
		}
		if "" != e.FullURL {
			if j, ok := fullURLs[e.FullURL]; ok {
				return invalid("duplicate fullUrl: %q also at entry[%d]", e.FullURL, j)
			}
			fullURLs[e.FullURL] = i
		}

		if nil != e.Target {
			if !e.Target.Valid() {
				return invalid("invalid target: %q", e.Target)
			}
			if j, ok := targets[*e.Target]; ok {
				return invalid("second write to: %s also at entry[%d]", e.Target, j)
			}
			targets[*e.Target] = i
		}

		switch e.Operation {
		case OperationCreate:
			if e.HasPrecondition() {
				return invalid("create cannot have an expected version")
			}
			if "" == e.FullURL && nil == e.Target {
				return invalid("create needs a fullUrl or a target")
			}
			if err := checkContent(e); nil != err {
				return invalid("%s", err)
			}

		case OperationUpdate:
			if nil == e.Target {
				return invalid("update needs a target")
			}
			if limits.RequirePrecondition && !e.HasPrecondition() {
				return invalid("update of: %s needs an expected version", e.Target)
			}
			if err := checkContent(e); nil != err {
				return invalid("%s", err)
			}

		case OperationDelete:
			if nil == e.Target {
				return invalid("delete needs a target")
			}
			if limits.RequirePrecondition && !e.HasPrecondition() {
				return invalid("delete of: %s needs an expected version", e.Target)
			}
			if nil != e.Content {
				return invalid("delete cannot have content")
			}

		default:
			return invalid("unknown operation: %q", e.Operation)
		}
	}
	return nil
}

// content must be an object whose resourceType and id agree with the target
func checkContent(e *Entry) error {
	if nil == e.Content {
		return fmt.Errorf("%s needs content", e.Operation)
	}
	if document.KindMap != e.Content.Kind() {
		return fmt.Errorf("content is not an object")
	}

	rt := ""
	if v, ok := e.Content.Field("resourceType"); ok {
		rt, _ = v.AsString()
	}
	switch {
	case nil == e.Target && "" == rt:
		return fmt.Errorf("content has no resourceType")
	case nil == e.Target && !document.ValidResourceType(rt):
		return fmt.Errorf("invalid resourceType: %q", rt)
	case nil != e.Target && "" != rt && rt != e.Target.ResourceType:
		return fmt.Errorf("content resourceType: %q does not match target: %s", rt, e.Target)
	}

	if nil != e.Target {
		if v, ok := e.Content.Field("id"); ok {
			if id, _ := v.AsString(); id != e.Target.ID {
				return fmt.Errorf("content id: %q does not match target: %s", id, e.Target)
			}
		}
	}
	return nil
}
