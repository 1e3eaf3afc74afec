// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package schema

import (
	"fmt"
	"sort"

	"github.com/kayyagari/ra/configuration"
	"github.com/kayyagari/ra/document"
)

// SearchParameter - one search index derived from a resource
type SearchParameter struct {
	Code       string `gluamapper:"code"`
	Expression string `gluamapper:"expression"`
}

type definition struct {
	Required   []string          `gluamapper:"required"`
	References []string          `gluamapper:"references"`
	Search     []SearchParameter `gluamapper:"search"`
}

type schemaFile struct {
	Resources map[string]definition `gluamapper:"resources"`
}

// Resource - everything known about one resource type
type Resource struct {
	Type       string
	Required   []document.Path
	References []document.Path
	Search     []SearchParameter
}

// Schema - an immutable set of resource definitions
type Schema struct {
	resources map[string]*Resource
}

// Load - read definitions from a Lua file
func Load(fileName string) (*Schema, error) {
	f := schemaFile{}
	err := configuration.ParseConfigurationFile(fileName, &f)
	if nil != err {
		return nil, err
	}
	return build(f)
}

// Parse - read definitions from Lua source
func Parse(source string) (*Schema, error) {
	f := schemaFile{}
	err := configuration.ParseConfigurationString(source, &f)
	if nil != err {
		return nil, err
	}
	return build(f)
}

func build(f schemaFile) (*Schema, error) {
	if 0 == len(f.Resources) {
		return nil, fmt.Errorf("schema defines no resources")
	}

	s := &Schema{
		resources: make(map[string]*Resource, len(f.Resources)),
	}
	for name, d := range f.Resources {
		if !document.ValidResourceType(name) {
			return nil, fmt.Errorf("invalid resource type: %q", name)
		}
		r := &Resource{
			Type: name,
		}
		for _, p := range d.Required {
			r.Required = append(r.Required, document.ParsePath(p))
		}
		for _, p := range d.References {
			r.References = append(r.References, document.ParsePath(p))
		}
		codes := make(map[string]struct{})
		for _, sp := range d.Search {
			if "" == sp.Code || "" == sp.Expression {
				return nil, fmt.Errorf("resource: %s has incomplete search parameter: %+v", name, sp)
			}
			if _, ok := codes[sp.Code]; ok {
				return nil, fmt.Errorf("resource: %s duplicate search code: %q", name, sp.Code)
			}
			codes[sp.Code] = struct{}{}
			r.Search = append(r.Search, sp)
		}
		s.resources[name] = r
	}
	return s, nil
}

// Resource - definition of a type
func (s *Schema) Resource(resourceType string) (*Resource, bool) {
	if nil == s {
		return nil, false
	}
	r, ok := s.resources[resourceType]
	return r, ok
}

// Types - all defined resource types, sorted
func (s *Schema) Types() []string {
	types := make([]string, 0, len(s.resources))
	for t := range s.resources {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
