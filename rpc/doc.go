// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpc - HTTP transport for bundles and document reads
//
// routes:
//
//   POST /bundle                              submit a transaction bundle
//   POST /fhir/:type                          create one resource, id assigned
//   GET  /fhir/:type?code=value               search current versions
//   GET  /fhir/:type/:id                      current version
//   GET  /fhir/:type/:id/_history?count=N     newest first
//   GET  /fhir/:type/:id/_history/:vid        one version
//   GET  /fhir/:type/:id/_referrers           keys referring to this one
//   GET  /details                             process status
//   GET  /metrics                             prometheus exposition
//
// an aborted bundle is answered with the uniform response where every
// entry carries the same errorKind; the HTTP status follows that kind
package rpc
