// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bundle - transaction bundles and their responses
//
// two JSON forms are accepted:
//
//   {"entries": [{"fullUrl": "urn:uuid:...", "operation": "create",
//                 "target": "Patient/1", "expectedVersion": "...",
//                 "content": {...}}]}
//
//   {"resourceType": "Bundle", "type": "transaction",
//    "entry": [{"fullUrl": "urn:uuid:...",
//               "request": {"method": "PUT", "url": "Patient/1", "ifMatch": "W/\"...\""},
//               "resource": {...}}]}
//
// a response always has one result per entry in the original order
package bundle
