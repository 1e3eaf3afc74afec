// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package reference - replace bundle local tokens with logical keys
//
// resolution is two passes so entry order never matters:
//
//   1. every entry that names a document gets its logical key and its
//      fullUrl is recorded, creates receive a newly generated id
//   2. the reference paths declared for each resource type are visited
//      and every token found there is replaced by "Type/id"
//
// nothing is persisted; a failure leaves the bundle unusable
package reference
