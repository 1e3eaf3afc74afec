// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package keylock - per logical key ownership tokens
//
// a bundle takes the token of every key it will overwrite before it
// reads the current pointers and holds them until its batch is
// written; tokens are taken in sorted key order so two bundles can
// never wait on each other, and waiters on one key are served in
// arrival order
//
// an entry only exists while some goroutine holds or waits for it
package keylock
