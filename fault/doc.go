// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
// without having to resort to partial string matches.
//
// Bundle-wide failures are structured types carrying the data a
// client needs to correct and resubmit a bundle; KindOf maps any
// error onto the errorKind reported in an aborted response.
package fault
