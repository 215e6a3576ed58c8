// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package batchrecord_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/batchpool/batchrecord"
	"github.com/bitmark-inc/batchpool/fault"
)

func TestNewBatchRejectsEmpty(t *testing.T) {
	_, err := batchrecord.NewBatch()
	assert.Equal(t, fault.ErrEmptyBatch, err, "wrong error for empty batch")
}

func TestReducedHashIgnoresSignatures(t *testing.T) {
	one, err := batchrecord.NewBatch(
		batchrecord.NewTransaction([]byte("pay alice"), 10, 2),
	)
	assert.NoError(t, err, "create batch")

	two, err := batchrecord.NewBatch(
		batchrecord.NewTransaction([]byte("pay alice"), 10, 2),
	)
	assert.NoError(t, err, "create batch")

	two.Transactions()[0].AddSignature("aa", "key-1")

	assert.Equal(t, one.ReducedHash(), two.ReducedHash(), "signatures leaked into reduced hash")
}

func TestReducedHashDependsOnOrder(t *testing.T) {
	a := batchrecord.NewTransaction([]byte("a"), 1, 1)
	b := batchrecord.NewTransaction([]byte("b"), 2, 1)

	ab, _ := batchrecord.NewBatch(a, b)
	ba, _ := batchrecord.NewBatch(b, a)

	assert.NotEqual(t, ab.ReducedHash(), ba.ReducedHash(), "transaction order ignored")
}

func TestAddSignature(t *testing.T) {
	tx := batchrecord.NewTransaction([]byte("pay bob"), 42, 2)

	assert.False(t, tx.IsFullySigned(), "unsigned transaction reported complete")
	assert.True(t, tx.AddSignature("aa", "key-1"), "first signature rejected")
	assert.False(t, tx.AddSignature("bb", "key-1"), "duplicate public key accepted")
	assert.False(t, tx.IsFullySigned(), "one of two signatures reported complete")
	assert.True(t, tx.AddSignature("bb", "key-2"), "second signature rejected")
	assert.True(t, tx.IsFullySigned(), "fully signed transaction reported incomplete")

	signatures := tx.Signatures()
	assert.Equal(t, 2, len(signatures), "signature count")
	assert.Equal(t, "key-1", signatures[0].PublicKey, "signature order not preserved")
}

func TestHasAllSignatures(t *testing.T) {
	one := batchrecord.NewTransaction([]byte("one"), 5, 1)
	two := batchrecord.NewTransaction([]byte("two"), 7, 2)

	batch, err := batchrecord.NewBatch(one, two)
	assert.NoError(t, err, "create batch")

	assert.False(t, batch.HasAllSignatures(), "unsigned batch reported complete")

	one.AddSignature("aa", "key-1")
	two.AddSignature("bb", "key-1")
	assert.False(t, batch.HasAllSignatures(), "partially signed batch reported complete")

	two.AddSignature("cc", "key-2")
	assert.True(t, batch.HasAllSignatures(), "fully signed batch reported incomplete")
}

func TestOldestTimestamp(t *testing.T) {
	batch, err := batchrecord.NewBatch(
		batchrecord.NewTransaction([]byte("one"), 30, 1),
		batchrecord.NewTransaction([]byte("two"), 10, 1),
		batchrecord.NewTransaction([]byte("three"), 20, 1),
	)
	assert.NoError(t, err, "create batch")
	assert.Equal(t, uint64(10), batch.OldestTimestamp(), "oldest timestamp")
}

func TestTransactionIdStableAcrossSigning(t *testing.T) {
	tx := batchrecord.NewTransaction([]byte("pay carol"), 9, 1)
	before := tx.TxId()
	tx.AddSignature("aa", "key-1")
	assert.Equal(t, before, tx.TxId(), "transaction id changed by signing")
}
