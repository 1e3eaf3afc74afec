// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package schema

import (
	"strings"

	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
)

//go:generate mockgen -destination=mocks/validator.go -package=mocks github.com/kayyagari/ra/schema Validator

// Validator - structural checks on one resolved document
//
// returns every violation found, none means valid
type Validator interface {
	Validate(resourceType string, content *document.Value) []fault.Violation
}

// violation rules
const (
	RuleUnknownType      = "unknown resource type"
	RuleNotObject        = "content must be an object"
	RuleTypeMismatch     = "resourceType does not match"
	RuleInvalidID        = "invalid id"
	RuleRequired         = "required"
	RuleReferenceString  = "reference must be a string"
	RuleInvalidReference = "invalid literal reference"
)

// StructuralValidator - checks documents against the loaded definitions
type StructuralValidator struct {
	current func() *Schema
}

// NewStructuralValidator - validator following the process wide
// definitions, or a fixed set when s is not nil
func NewStructuralValidator(s *Schema) *StructuralValidator {
	current := Get
	if nil != s {
		current = func() *Schema { return s }
	}
	return &StructuralValidator{
		current: current,
	}
}

// Validate - see Validator
func (v *StructuralValidator) Validate(resourceType string, content *document.Value) []fault.Violation {
	violations := []fault.Violation{}
	add := func(path string, rule string) {
		violations = append(violations, fault.Violation{
			ResourceType: resourceType,
			Path:         path,
			Rule:         rule,
		})
	}

	r, ok := v.current().Resource(resourceType)
	if !ok {
		add("", RuleUnknownType)
		return violations
	}

	if document.KindMap != content.Kind() {
		add("", RuleNotObject)
		return violations
	}

	if rt, ok := content.Field("resourceType"); ok {
		if s, _ := rt.AsString(); s != resourceType {
			add("resourceType", RuleTypeMismatch)
		}
	}

	if id, ok := content.Field("id"); ok {
		if s, _ := id.AsString(); !document.ValidID(s) {
			add("id", RuleInvalidID)
		}
	}

	for _, p := range r.Required {
		present := false
		for _, node := range p.Collect(content) {
			if !node.IsNull() {
				present = true
			}
		}
		if !present {
			add(p.String(), RuleRequired)
		}
	}

	for _, p := range r.References {
		for _, node := range p.Collect(content) {
			s, ok := node.AsString()
			if !ok {
				add(p.String(), RuleReferenceString)
				continue
			}
			if !validLiteral(s) {
				add(p.String(), RuleInvalidReference)
			}
		}
	}
	return violations
}

// Type/id or an absolute URL to another server
func validLiteral(s string) bool {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return true
	}
	_, err := document.ParseReference(s)
	return nil == err
}
