// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package batchset - deduplicated set of batches with a maintained
// transaction count total
//
// The set key is the batch identity: reduced hash plus the fully-signed
// flag, so two independently constructed but logically identical
// fully-signed batches deduplicate.  The transaction total is maintained
// on every mutation, never recomputed in hot paths; CheckCounts is the
// audit that recomputes and compares.
//
// A Set carries no lock of its own, the owning pool serialises access.
package batchset

import (
	"github.com/bitmark-inc/batchpool/batchrecord"
	"github.com/bitmark-inc/batchpool/counter"
	"github.com/bitmark-inc/batchpool/digest"
	"github.com/bitmark-inc/batchpool/fault"
)

// set key: identity of a batch
type identity struct {
	reducedHash digest.Digest
	complete    bool
}

// Set - deduplicated batch set
type Set struct {
	members map[identity]*batchrecord.Batch
	txs     counter.Counter
}

// New - create an empty set
func New() *Set {
	return &Set{
		members: make(map[identity]*batchrecord.Batch),
	}
}

// the map key for a batch
func keyOf(batch *batchrecord.Batch) identity {
	return identity{
		reducedHash: batch.ReducedHash(),
		complete:    batch.HasAllSignatures(),
	}
}

// Insert - add a batch if absent, true iff it was inserted
func (set *Set) Insert(batch *batchrecord.Batch) bool {
	k := keyOf(batch)
	if _, ok := set.members[k]; ok {
		return false
	}
	set.members[k] = batch
	set.txs.Add(uint64(len(batch.Transactions())))
	return true
}

// Remove - drop a batch if present, true iff it was removed
func (set *Set) Remove(batch *batchrecord.Batch) bool {
	k := keyOf(batch)
	if _, ok := set.members[k]; !ok {
		return false
	}
	delete(set.members, k)
	set.txs.Sub(uint64(len(batch.Transactions())))
	return true
}

// Contains - membership test by batch identity
func (set *Set) Contains(batch *batchrecord.Batch) bool {
	_, ok := set.members[keyOf(batch)]
	return ok
}

// Merge - move every batch that is absent from this set across from
// another set
//
// duplicates stay behind, so on return "from" contains only batches this
// set already held; the caller normally expects it to be empty
func (set *Set) Merge(from *Set) {
	for k, batch := range from.members {
		if _, ok := set.members[k]; ok {
			continue
		}
		n := uint64(len(batch.Transactions()))
		delete(from.members, k)
		from.txs.Sub(n)
		set.members[k] = batch
		set.txs.Add(n)
	}
}

// RetainNot - remove every batch matching the predicate
func (set *Set) RetainNot(predicate func(*batchrecord.Batch) bool) {
	for k, batch := range set.members {
		if predicate(batch) {
			delete(set.members, k)
			set.txs.Sub(uint64(len(batch.Transactions())))
		}
	}
}

// Range - iterate members, stop early when f returns false
func (set *Set) Range(f func(*batchrecord.Batch) bool) {
	for _, batch := range set.members {
		if !f(batch) {
			return
		}
	}
}

// TxsCount - maintained total of transactions over all members
func (set *Set) TxsCount() uint64 {
	return set.txs.Uint64()
}

// Size - number of member batches
func (set *Set) Size() int {
	return len(set.members)
}

// IsEmpty - true iff the set has no members
func (set *Set) IsEmpty() bool {
	return 0 == len(set.members)
}

// CheckCounts - audit: recompute the transaction total and compare
func (set *Set) CheckCounts() error {
	total := uint64(0)
	for _, batch := range set.members {
		total += uint64(len(batch.Transactions()))
	}
	if total != set.txs.Uint64() {
		return fault.ErrTxsCountMismatch
	}
	return nil
}
