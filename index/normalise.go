// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package index

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalise - compatibility decomposition, combining marks removed,
// case folded and white space collapsed
func Normalise(s string) string {
	// transformers hold state, so one chain per call
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), cases.Fold())
	folded, _, err := transform.String(t, s)
	if nil != err {
		folded = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(folded), " ")
}
