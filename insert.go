// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package batchpool

import (
	"github.com/bitmark-inc/batchpool/batchrecord"
	"github.com/bitmark-inc/batchpool/fault"
	"github.com/bitmark-inc/batchpool/pending"
)

// Insert - stage a submitted batch, returns the post-insert count of
// transactions in available batches
//
// a fully signed batch enters available directly, displacing any
// pending entry with the same reduced hash; an incomplete batch is
// merged into pending and promoted if the merge completes it
func (pool *BatchPool) Insert(batch *batchrecord.Batch) (uint64, error) {
	pool.guard()
	if nil == batch || 0 == len(batch.Transactions()) {
		return pool.AvailableTxsCount(), fault.ErrEmptyBatch
	}

	if nil != pool.resolved {
		for _, tx := range batch.Transactions() {
			if pool.resolved.Contains(tx.TxId()) {
				pool.log.Debugf("insert: batch %s dropped: transaction %s already resolved", batch.ReducedHash(), tx.TxId())
				return pool.AvailableTxsCount(), nil
			}
		}
	}

	if batch.HasAllSignatures() {
		return pool.insertComplete(batch)
	}
	return pool.insertPending(batch)
}

// direct entry of a fully signed batch, lock order pending then cache
func (pool *BatchPool) insertComplete(batch *batchrecord.Batch) (uint64, error) {
	pool.pending.Lock()
	defer pool.pending.Unlock()

	// a partially signed twin is superseded by the complete arrival
	if pool.pending.RemoveByHash(batch.ReducedHash()) {
		pool.log.Debugf("insert: batch %s displaced its pending entry", batch.ReducedHash())
	}

	pool.Lock()
	defer pool.Unlock()

	// a batch claimed by a live proposal must not become available again
	if !pool.inFlight.Contains(batch) {
		if pool.available.Insert(batch) {
			pool.log.Infof("insert: batch %s available", batch.ReducedHash())
			pool.notifyPrepared(batch)
		}
	}
	return pool.available.TxsCount(), nil
}

// merge an incomplete batch into pending, promoting on completion
func (pool *BatchPool) insertPending(batch *batchrecord.Batch) (uint64, error) {
	pool.pending.Lock()
	defer pool.pending.Unlock()

	outcome, resident, err := pool.pending.Upsert(batch)
	if nil != err {
		pool.log.Errorf("insert: batch %s rejected: %s", batch.ReducedHash(), err)
		return pool.available.TxsCount(), err
	}

	switch outcome {
	case pending.Inserted, pending.MergedUpdated:
		pool.log.Debugf("insert: batch %s pending (%s)", batch.ReducedHash(), outcome)
		pool.notifyStateUpdated(resident)

	case pending.MergedCompleted:
		pool.Lock()
		defer pool.Unlock()
		pool.available.Insert(resident)
		pool.log.Infof("insert: batch %s completed and available", resident.ReducedHash())
		pool.notifyPrepared(resident)
		return pool.available.TxsCount(), nil

	case pending.MergedNoChange:
		pool.log.Debugf("insert: batch %s brought no new signatures", batch.ReducedHash())
	}

	return pool.available.TxsCount(), nil
}
