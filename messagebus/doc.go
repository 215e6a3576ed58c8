// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package messagebus - ordered delivery of pool events to a consumer
//
// The pool emits events inside the critical section that caused the
// state change, so its sink must be trivially cheap.  A Bus satisfies
// that: it enqueues onto a single buffered channel and returns, and the
// single channel preserves the order in which transitions committed.
// Sends block when the queue is full rather than dropping, dropping
// would break the per-batch ordering guarantee.
//
// Each pool gets its own Bus; there is no process-wide queue, so pools
// in tests cannot observe each other's events.
package messagebus
