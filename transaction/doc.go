// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package transaction - all or nothing commit of a bundle
//
// a bundle moves through these states:
//
//   Received -> Resolving -> Validating -> Encoding -> Committing -> Committed
//
// and may move to Aborted from any state before Committed.  Until
// Committing starts nothing is shared with other bundles and a
// cancelled context aborts at the next state change.  Committing
// takes the ownership tokens of every existing key the bundle writes,
// checks preconditions against the current pointers, allocates
// versions in entry order and issues a single atomic batch.  Once the
// tokens are held cancellation is ignored until the batch returns.
package transaction
