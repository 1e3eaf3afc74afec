// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package index

import (
	"fmt"
	"strings"

	"github.com/kayyagari/ra/document"
)

//go:generate mockgen -destination=mocks/evaluator.go -package=mocks github.com/kayyagari/ra/index Evaluator

// Evaluator - values selected from a document by an expression
type Evaluator interface {
	Evaluate(resourceType string, content *document.Value, expression string) ([]*document.Value, error)
}

// PathEvaluator - dotted field paths, optionally prefixed by the
// resource type as in "Patient.name.family"
type PathEvaluator struct{}

// Evaluate - see Evaluator
func (PathEvaluator) Evaluate(resourceType string, content *document.Value, expression string) ([]*document.Value, error) {
	expression = strings.TrimPrefix(strings.TrimSpace(expression), resourceType+".")
	p := document.ParsePath(expression)
	if 0 == len(p) {
		return nil, fmt.Errorf("empty expression for: %s", resourceType)
	}
	return p.Collect(content), nil
}
