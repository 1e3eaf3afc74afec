// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bundle

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/versionid"
)

// FromJSON - parse either bundle form
//
// the result still needs Check before it is processed
func FromJSON(data []byte) (*Bundle, error) {
	if !gjson.ValidBytes(data) {
		return nil, invalidBundle("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, invalidBundle("bundle is not an object")
	}

	if root.Get("resourceType").Exists() || root.Get("entry").Exists() {
		return fromTransaction(root)
	}
	return fromEntries(root.Get("entries"))
}

func fromEntries(entries gjson.Result) (*Bundle, error) {
	if !entries.IsArray() {
		return nil, invalidBundle("entries must be an array")
	}

	b := &Bundle{}
	for i, item := range entries.Array() {
		if !item.IsObject() {
			return nil, invalidEntry(i, "entry is not an object")
		}

		e := &Entry{}

		fullURL, err := optionalString(item, "fullUrl")
		if nil != err {
			return nil, invalidEntry(i, "%s", err)
		}
		e.FullURL = fullURL

		operation, err := optionalString(item, "operation")
		if nil != err {
			return nil, invalidEntry(i, "%s", err)
		}
		e.Operation = Operation(operation)
		if !e.Operation.Valid() {
			return nil, invalidEntry(i, "unknown operation: %q", operation)
		}

		target, err := optionalString(item, "target")
		if nil != err {
			return nil, invalidEntry(i, "%s", err)
		}
		if "" != target {
			k, err := parseTarget(target)
			if nil != err {
				return nil, invalidEntry(i, "target: %q: %s", target, err)
			}
			e.Target = &k
		}

		expected, err := optionalString(item, "expectedVersion")
		if nil != err {
			return nil, invalidEntry(i, "%s", err)
		}
		if "" != expected {
			e.ExpectedVersion, err = versionid.FromString(expected)
			if nil != err {
				return nil, invalidEntry(i, "expectedVersion: %q: %s", expected, err)
			}
		}

		e.Content, err = optionalContent(item, "content")
		if nil != err {
			return nil, invalidEntry(i, "content: %s", err)
		}

		b.Entries = append(b.Entries, e)
	}
	return b, nil
}

// the resource bundle form: request.method selects the operation
func fromTransaction(root gjson.Result) (*Bundle, error) {
	if rt := root.Get("resourceType").String(); "" != rt && "Bundle" != rt {
		return nil, invalidBundle(fmt.Sprintf("resourceType: %q is not Bundle", rt))
	}
	if t := root.Get("type").String(); "transaction" != t {
		return nil, invalidBundle(fmt.Sprintf("bundle type: %q is not supported", t))
	}

	entries := root.Get("entry")
	if !entries.IsArray() {
		return nil, invalidBundle("entry must be an array")
	}

	b := &Bundle{}
	for i, item := range entries.Array() {
		if !item.IsObject() {
			return nil, invalidEntry(i, "entry is not an object")
		}

		e := &Entry{}

		fullURL, err := optionalString(item, "fullUrl")
		if nil != err {
			return nil, invalidEntry(i, "%s", err)
		}
		e.FullURL = fullURL

		method := item.Get("request.method").String()
		url := strings.Trim(item.Get("request.url").String(), "/")

		switch method {
		case "POST":
			e.Operation = OperationCreate
		case "PUT":
			e.Operation = OperationUpdate
		case "DELETE":
			e.Operation = OperationDelete
		default:
			return nil, invalidEntry(i, "request method: %q is not supported", method)
		}

		if OperationCreate == e.Operation {
			if "" != url && !document.ValidResourceType(url) {
				return nil, invalidEntry(i, "request url: %q is not a resource type", url)
			}
		} else {
			k, err := parseTarget(url)
			if nil != err {
				return nil, invalidEntry(i, "request url: %q: %s", url, err)
			}
			e.Target = &k
		}

		if ifMatch := item.Get("request.ifMatch").String(); "" != ifMatch {
			e.ExpectedVersion, err = versionid.FromString(stripETag(ifMatch))
			if nil != err {
				return nil, invalidEntry(i, "ifMatch: %q: %s", ifMatch, err)
			}
		}

		e.Content, err = optionalContent(item, "resource")
		if nil != err {
			return nil, invalidEntry(i, "resource: %s", err)
		}

		if OperationCreate == e.Operation && "" != url {
			if rt := e.ResourceType(); "" != rt && rt != url {
				return nil, invalidEntry(i, "request url: %q does not match resourceType: %q", url, rt)
			}
		}

		b.Entries = append(b.Entries, e)
	}
	return b, nil
}

// targets are exactly Type/id, never a versioned reference
func parseTarget(s string) (document.LogicalKey, error) {
	if 1 != strings.Count(s, "/") {
		return document.LogicalKey{}, fault.ErrInvalidReference
	}
	return document.ParseReference(s)
}

// W/"abc" or "abc" or abc
func stripETag(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "W/")
	return strings.Trim(s, `"`)
}

func optionalString(item gjson.Result, field string) (string, error) {
	r := item.Get(field)
	switch r.Type {
	case gjson.Null:
		return "", nil
	case gjson.String:
		return r.String(), nil
	}
	return "", fmt.Errorf("%s must be a string", field)
}

func optionalContent(item gjson.Result, field string) (*document.Value, error) {
	r := item.Get(field)
	if !r.Exists() || gjson.Null == r.Type {
		return nil, nil
	}
	return document.FromJSON([]byte(r.Raw))
}

func invalidBundle(reason string) error {
	return &fault.InvalidBundleError{Entry: fault.NoEntry, Reason: reason}
}

func invalidEntry(entry int, format string, arguments ...interface{}) error {
	return &fault.InvalidBundleError{Entry: entry, Reason: fmt.Sprintf(format, arguments...)}
}
