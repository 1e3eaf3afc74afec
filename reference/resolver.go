// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package reference

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kayyagari/ra/bundle"
	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/schema"
	"github.com/kayyagari/ra/versionid"
)

// bundle local token prefixes
const (
	uuidPrefix = "urn:uuid:"
	oidPrefix  = "urn:oid:"
)

// Map - fullUrl to resolved key, valid for one bundle only
type Map map[string]document.LogicalKey

// Resolver - assigns identities and rewrites references
type Resolver struct {
	current func() *schema.Schema
	newID   func() string
}

// New - resolver following the process wide schema, or a fixed one
// when s is not nil
func New(s *schema.Schema) *Resolver {
	current := schema.Get
	if nil != s {
		current = func() *schema.Schema { return s }
	}
	return &Resolver{
		current: current,
		newID:   versionid.NewIdentifier,
	}
}

// NewWithIdentifiers - as New with a custom id source
func NewWithIdentifiers(s *schema.Schema, newID func() string) *Resolver {
	r := New(s)
	r.newID = newID
	return r
}

// Resolve - both passes over the bundle, entries are rewritten in place
//
// on return every entry that writes has a Target
func (r *Resolver) Resolve(b *bundle.Bundle) (Map, error) {
	refs, err := r.assign(b)
	if nil != err {
		return nil, err
	}
	err = r.rewrite(b, refs)
	if nil != err {
		return nil, err
	}
	return refs, nil
}

// pass 1
func (r *Resolver) assign(b *bundle.Bundle) (Map, error) {
	refs := make(Map, len(b.Entries))

	for i, e := range b.Entries {
		if "" != e.FullURL {
			if err := checkToken(e.FullURL); nil != err {
				return nil, &fault.InvalidBundleError{Entry: i, Reason: err.Error()}
			}
			if _, ok := refs[e.FullURL]; ok {
				return nil, &fault.InvalidBundleError{Entry: i, Reason: fmt.Sprintf("duplicate fullUrl: %q", e.FullURL)}
			}
		}

		if bundle.OperationCreate == e.Operation && nil == e.Target {
			k := document.LogicalKey{
				ResourceType: e.ResourceType(),
				ID:           r.newID(),
			}
			e.Target = &k
		}
		if nil == e.Target {
			return nil, &fault.InvalidBundleError{Entry: i, Reason: "entry has no target"}
		}

		if nil != e.Content {
			e.Content.Set("resourceType", document.String(e.Target.ResourceType))
			e.Content.Set("id", document.String(e.Target.ID))
		}

		if "" != e.FullURL {
			refs[e.FullURL] = *e.Target
		}
	}
	return refs, nil
}

// pass 2
func (r *Resolver) rewrite(b *bundle.Bundle, refs Map) error {
	s := r.current()

	for i, e := range b.Entries {
		if nil == e.Content {
			continue
		}
		definition, ok := s.Resource(e.Target.ResourceType)
		if !ok {
			continue
		}
		for _, path := range definition.References {
			err := path.Visit(e.Content, func(node *document.Value) error {
				token, ok := node.AsString()
				if !ok {
					return nil
				}
				if k, ok := refs[token]; ok {
					node.Replace(document.String(k.String()))
					return nil
				}
				if IsLocal(token) {
					return &fault.UnresolvedReferenceError{
						Entry: i,
						Path:  path.String(),
						Token: token,
					}
				}
				return nil
			})
			if nil != err {
				return err
			}
		}
	}
	return nil
}

// IsLocal - true for a token that only has meaning inside a bundle
func IsLocal(s string) bool {
	return strings.HasPrefix(s, uuidPrefix) || strings.HasPrefix(s, oidPrefix)
}

// urn:uuid: tokens must carry a well formed UUID
func checkToken(fullURL string) error {
	if !strings.HasPrefix(fullURL, uuidPrefix) {
		return nil
	}
	_, err := uuid.Parse(strings.TrimPrefix(fullURL, uuidPrefix))
	if nil != err {
		return fmt.Errorf("fullUrl: %q: %s", fullURL, err)
	}
	return nil
}
