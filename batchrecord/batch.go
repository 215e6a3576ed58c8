// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package batchrecord

import (
	"github.com/bitmark-inc/batchpool/digest"
	"github.com/bitmark-inc/batchpool/fault"
)

// Batch - non-empty ordered sequence of transactions
type Batch struct {
	txs         []*Transaction
	reducedHash digest.Digest
}

// NewBatch - create a batch over the given transactions
//
// an empty transaction list is a caller error
func NewBatch(txs ...*Transaction) (*Batch, error) {
	if 0 == len(txs) {
		return nil, fault.ErrEmptyBatch
	}

	// reduced hash over the ordered transaction ids
	packed := make([]byte, 0, len(txs)*digest.Length)
	for _, tx := range txs {
		txId := tx.TxId()
		packed = append(packed, txId[:]...)
	}

	return &Batch{
		txs:         txs,
		reducedHash: digest.NewDigest(packed),
	}, nil
}

// ReducedHash - batch identity over its transactions, signatures excluded
func (batch *Batch) ReducedHash() digest.Digest {
	return batch.reducedHash
}

// Transactions - the ordered transactions
//
// the returned slice is the live list, callers must not modify it
func (batch *Batch) Transactions() []*Transaction {
	return batch.txs
}

// HasAllSignatures - true iff every transaction is fully signed
func (batch *Batch) HasAllSignatures() bool {
	for _, tx := range batch.txs {
		if !tx.IsFullySigned() {
			return false
		}
	}
	return true
}

// OldestTimestamp - the minimum created time over the transactions
func (batch *Batch) OldestTimestamp() uint64 {
	ts := batch.txs[0].CreatedTime()
	for _, tx := range batch.txs[1:] {
		if tx.CreatedTime() < ts {
			ts = tx.CreatedTime()
		}
	}
	return ts
}
