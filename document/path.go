// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package document

import (
	"strings"
)

// Path - dotted member path e.g. participant.individual.reference
//
// lists met along the way are fanned out, so one path may address
// many leaves
type Path []string

// ParsePath - split a dotted path, empty segments are dropped
func ParsePath(s string) Path {
	p := Path{}
	for _, segment := range strings.Split(s, ".") {
		if "" != segment {
			p = append(p, segment)
		}
	}
	return p
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

// Visitor - called for every node a path addresses
//
// the node may be modified in place; returning an error stops the walk
type Visitor func(node *Value) error

// Visit - walk the path from root
func (p Path) Visit(root *Value, visitor Visitor) error {
	return visit(root, p, visitor)
}

// Collect - every node the path addresses
func (p Path) Collect(root *Value) []*Value {
	nodes := []*Value{}
	_ = visit(root, p, func(node *Value) error {
		nodes = append(nodes, node)
		return nil
	})
	return nodes
}

func visit(node *Value, p Path, visitor Visitor) error {
	switch node.Kind() {
	case KindList:
		for _, item := range node.items {
			if err := visit(item, p, visitor); nil != err {
				return err
			}
		}
		return nil
	case KindMap:
		if 0 == len(p) {
			return visitor(node)
		}
		next, ok := node.fields[p[0]]
		if !ok {
			return nil
		}
		return visit(next, p[1:], visitor)
	case KindNull:
		return nil
	}

	// scalar
	if 0 != len(p) {
		return nil
	}
	return visitor(node)
}
