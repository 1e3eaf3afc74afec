// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package document

import (
	"strings"

	"github.com/kayyagari/ra/fault"
)

// limits on the parts of a key
const (
	MaximumResourceTypeLength = 64
	MaximumIDLength           = 64
)

// LogicalKey - identity of a document across all of its versions
type LogicalKey struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id"`
}

// String - the literal reference form Type/id
func (k LogicalKey) String() string {
	return k.ResourceType + "/" + k.ID
}

// Less - order by type then id
func (k LogicalKey) Less(other LogicalKey) bool {
	if k.ResourceType != other.ResourceType {
		return k.ResourceType < other.ResourceType
	}
	return k.ID < other.ID
}

// Valid - both parts present and well formed
func (k LogicalKey) Valid() bool {
	return ValidResourceType(k.ResourceType) && ValidID(k.ID)
}

// ParseReference - a literal reference Type/id or Type/id/_history/v
func ParseReference(s string) (LogicalKey, error) {
	parts := strings.Split(s, "/")
	switch len(parts) {
	case 2:
	case 4:
		if "_history" != parts[2] || "" == parts[3] {
			return LogicalKey{}, fault.ErrInvalidReference
		}
	default:
		return LogicalKey{}, fault.ErrInvalidReference
	}
	k := LogicalKey{ResourceType: parts[0], ID: parts[1]}
	if !k.Valid() {
		return LogicalKey{}, fault.ErrInvalidReference
	}
	return k, nil
}

// ValidResourceType - leading upper case letter then letters or digits
func ValidResourceType(s string) bool {
	if 0 == len(s) || len(s) > MaximumResourceTypeLength {
		return false
	}
	if s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 1; i < len(s); i += 1 {
		if !isAlphanumeric(s[i]) {
			return false
		}
	}
	return true
}

// ValidID - letters, digits, '-' and '.'
func ValidID(s string) bool {
	if 0 == len(s) || len(s) > MaximumIDLength {
		return false
	}
	for i := 0; i < len(s); i += 1 {
		c := s[i]
		if !isAlphanumeric(c) && '-' != c && '.' != c {
			return false
		}
	}
	return true
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
