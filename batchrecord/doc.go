// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package batchrecord - transaction batches and their signature state
//
// A batch is a non-empty ordered group of transactions that must be
// ordered together.  Its reduced hash identifies the batch over the
// ordered transaction ids, signatures excluded: two batches with equal
// reduced hashes are the same logical batch in different signature
// states.
//
// Batches are shared-reference objects.  The transaction list of a batch
// is never replaced after construction; signature aggregation only adds
// signatures to the transactions in place.  Parsing and cryptographic
// verification of signatures happen upstream; here a signature is an
// opaque pair of hex strings keyed by signer public key.
package batchrecord
