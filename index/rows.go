// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package index

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/schema"
	"github.com/kayyagari/ra/storage"
)

// Derived - index rows of one document version
type Derived struct {
	Search     []storage.SearchRow
	References []document.LogicalKey
}

// Deriver - computes index rows from the schema definitions
type Deriver struct {
	evaluator Evaluator
	current   func() *schema.Schema
}

// NewDeriver - rows from the process wide schema, or a fixed one
// when s is not nil
func NewDeriver(evaluator Evaluator, s *schema.Schema) *Deriver {
	if nil == evaluator {
		evaluator = PathEvaluator{}
	}
	current := schema.Get
	if nil != s {
		current = func() *schema.Schema { return s }
	}
	return &Deriver{
		evaluator: evaluator,
		current:   current,
	}
}

// Derive - search rows and literal reference targets, both sorted
//
// an unknown type has no rows
func (d *Deriver) Derive(resourceType string, content *document.Value) (*Derived, error) {
	result := &Derived{
		Search:     []storage.SearchRow{},
		References: []document.LogicalKey{},
	}

	definition, ok := d.current().Resource(resourceType)
	if !ok || nil == content {
		return result, nil
	}

	rows := make(map[storage.SearchRow]struct{})
	for _, parameter := range definition.Search {
		values, err := d.evaluator.Evaluate(resourceType, content, parameter.Expression)
		if nil != err {
			return nil, fmt.Errorf("search parameter: %s.%s: %w", resourceType, parameter.Code, err)
		}
		for _, v := range values {
			s, ok := scalar(v)
			if !ok || "" == s {
				continue
			}
			rows[storage.SearchRow{Code: parameter.Code, Value: s}] = struct{}{}
		}
	}
	for row := range rows {
		result.Search = append(result.Search, row)
	}
	sort.Slice(result.Search, func(i, j int) bool {
		a, b := result.Search[i], result.Search[j]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Value < b.Value
	})

	targets := make(map[document.LogicalKey]struct{})
	for _, p := range definition.References {
		for _, node := range p.Collect(content) {
			s, ok := node.AsString()
			if !ok {
				continue
			}
			// absolute and bundle local references are not indexed
			k, err := document.ParseReference(s)
			if nil != err {
				continue
			}
			targets[k] = struct{}{}
		}
	}
	for k := range targets {
		result.References = append(result.References, k)
	}
	sort.Slice(result.References, func(i, j int) bool {
		return result.References[i].Less(result.References[j])
	})

	return result, nil
}

func scalar(v *document.Value) (string, bool) {
	switch v.Kind() {
	case document.KindString:
		s, _ := v.AsString()
		return Normalise(s), true
	case document.KindNumber:
		n, _ := v.AsNumber()
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case document.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b), true
	}
	return "", false
}
