// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package schema - resource definitions and structural validation
//
// definitions are read from a Lua file of the form:
//
//   local M = {}
//   M.resources = {
//     Encounter = {
//       required = { "status" },
//       references = { "subject.reference", "participant.individual.reference" },
//       search = {
//         { code = "status", expression = "status" },
//       },
//     },
//   }
//   return M
//
// lists must not be empty tables, leave the member out instead
//
// the loaded definitions are process wide and replaced whenever the
// file changes and still parses
package schema
