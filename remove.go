// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package batchpool

import (
	"github.com/bitmark-inc/batchpool/batchrecord"
	"github.com/bitmark-inc/batchpool/digest"
	"github.com/bitmark-inc/batchpool/fault"
)

// Remove - resolve a proposal: prune every batch touching one of the
// given transaction hashes and fold in-flight survivors back into
// available
//
// afterwards the in-flight set is empty and no store holds a batch
// containing a resolved transaction
func (pool *BatchPool) Remove(hashes map[digest.Digest]struct{}) {
	pool.guard()

	// pending first, released before the cache lock is taken
	pool.pending.Lock()
	pruned := pool.pending.PruneIfAnyTx(hashes)
	pool.pending.Unlock()
	if len(pruned) > 0 {
		pool.log.Debugf("remove: pruned %d pending batches", len(pruned))
	}

	pool.Lock()
	defer pool.Unlock()

	// the proposal is resolved either way: survivors must become
	// available again before filtering
	pool.available.Merge(pool.inFlight)
	if !pool.inFlight.IsEmpty() {
		pool.log.Criticalf("remove: %d in-flight batches not drained", pool.inFlight.Size())
		panic(fault.ErrMergeNotDrained)
	}

	pool.available.RetainNot(func(batch *batchrecord.Batch) bool {
		for _, tx := range batch.Transactions() {
			if _, ok := hashes[tx.TxId()]; ok {
				return true
			}
		}
		return false
	})

	if nil != pool.resolved {
		for h := range hashes {
			pool.resolved.Add(h, struct{}{})
		}
	}
}

// ClaimForProposal - move batches from available to in-flight while a
// proposal that snapshots them is outstanding
//
// idempotent: claiming an already claimed batch changes nothing
func (pool *BatchPool) ClaimForProposal(batches []*batchrecord.Batch) {
	pool.guard()
	pool.Lock()
	defer pool.Unlock()

	for _, batch := range batches {
		if nil == batch {
			continue
		}
		pool.available.Remove(batch)
		pool.inFlight.Insert(batch)
	}
}
