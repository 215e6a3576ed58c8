// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package batchpool_test

import (
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/batchpool"
	"github.com/bitmark-inc/batchpool/batchrecord"
	"github.com/bitmark-inc/batchpool/batchset"
	"github.com/bitmark-inc/batchpool/digest"
	"github.com/bitmark-inc/batchpool/fault"
	"github.com/bitmark-inc/batchpool/fixtures"
	"github.com/bitmark-inc/batchpool/mocks"
)

// event recorder used as the injected sink
type recorder struct {
	sync.Mutex
	stateUpdated []*batchrecord.Batch
	prepared     []*batchrecord.Batch
}

func (r *recorder) StateUpdated(batch *batchrecord.Batch) {
	r.Lock()
	defer r.Unlock()
	r.stateUpdated = append(r.stateUpdated, batch)
}

func (r *recorder) Prepared(batch *batchrecord.Batch) {
	r.Lock()
	defer r.Unlock()
	r.prepared = append(r.prepared, batch)
}

func (r *recorder) counts() (int, int) {
	r.Lock()
	defer r.Unlock()
	return len(r.stateUpdated), len(r.prepared)
}

// a fully signed single-transaction batch
func completeBatch(t *testing.T, payload string, ts uint64) *batchrecord.Batch {
	tx := batchrecord.NewTransaction([]byte(payload), ts, 1)
	tx.AddSignature("sig", "key-1")
	batch, err := batchrecord.NewBatch(tx)
	assert.NoError(t, err, "create batch")
	return batch
}

// a single-transaction batch needing two signatures, carrying some
func partialBatch(t *testing.T, payload string, ts uint64, keys ...string) *batchrecord.Batch {
	tx := batchrecord.NewTransaction([]byte(payload), ts, 2)
	for _, key := range keys {
		tx.AddSignature("sig-"+key, key)
	}
	batch, err := batchrecord.NewBatch(tx)
	assert.NoError(t, err, "create batch")
	return batch
}

// the tx hash set for remove calls
func hashesOf(batches ...*batchrecord.Batch) map[digest.Digest]struct{} {
	hashes := make(map[digest.Digest]struct{})
	for _, batch := range batches {
		for _, tx := range batch.Transactions() {
			hashes[tx.TxId()] = struct{}{}
		}
	}
	return hashes
}

func setup(t *testing.T, options ...batchpool.Option) (*batchpool.BatchPool, *recorder) {
	fixtures.SetupTestLogger()

	r := &recorder{}
	pool, err := batchpool.New(logger.New(fixtures.LogCategory), r, options...)
	assert.NoError(t, err, "create pool")
	return pool, r
}

func teardown() {
	fixtures.TeardownTestLogger()
}

func TestNewRequiresLogger(t *testing.T) {
	_, err := batchpool.New(nil, nil)
	assert.Equal(t, fault.ErrInvalidLoggerChannel, err, "wrong error for nil logger")
}

func TestInsertCompleteBatch(t *testing.T) {
	pool, r := setup(t)
	defer teardown()

	count, err := pool.Insert(completeBatch(t, "one", 10))
	assert.NoError(t, err, "insert")
	assert.Equal(t, uint64(1), count, "available txs count")
	assert.False(t, pool.IsEmpty(), "pool empty after insert")

	updated, prepared := r.counts()
	assert.Equal(t, 0, updated, "state updates")
	assert.Equal(t, 1, prepared, "prepared events")
	assert.NoError(t, pool.CheckConsistency(), "consistency audit")
}

// inserting the same fully signed batch twice is deduplicated and
// Prepared fires only for the first
func TestInsertCompleteIdempotent(t *testing.T) {
	pool, r := setup(t)
	defer teardown()

	count1, err := pool.Insert(completeBatch(t, "one", 10))
	assert.NoError(t, err, "first insert")
	count2, err := pool.Insert(completeBatch(t, "one", 10))
	assert.NoError(t, err, "second insert")

	assert.Equal(t, count1, count2, "count changed by duplicate")
	_, prepared := r.counts()
	assert.Equal(t, 1, prepared, "prepared fired for the duplicate")
}

func TestInsertNilBatch(t *testing.T) {
	pool, _ := setup(t)
	defer teardown()

	_, err := pool.Insert(nil)
	assert.Equal(t, fault.ErrEmptyBatch, err, "wrong error for nil batch")
}

// a complete arrival supersedes the pending twin
func TestInsertCompleteDisplacesPending(t *testing.T) {
	pool, r := setup(t)
	defer teardown()

	pool.Insert(partialBatch(t, "one", 10, "key-1"))

	// same logical batch, independently constructed and fully signed
	tx := batchrecord.NewTransaction([]byte("one"), 10, 2)
	tx.AddSignature("s1", "key-1")
	tx.AddSignature("s2", "key-2")
	full, err := batchrecord.NewBatch(tx)
	assert.NoError(t, err, "create batch")

	count, err := pool.Insert(full)
	assert.NoError(t, err, "insert")
	assert.Equal(t, uint64(1), count, "available txs count")

	updated, prepared := r.counts()
	assert.Equal(t, 1, updated, "state updates")
	assert.Equal(t, 1, prepared, "prepared events")
	assert.NoError(t, pool.CheckConsistency(), "consistency audit")
}

func TestCounts(t *testing.T) {
	pool, _ := setup(t)
	defer teardown()

	b1 := completeBatch(t, "one", 10)
	b2 := completeBatch(t, "two", 20)
	pool.Insert(b1)
	pool.Insert(b2)

	assert.Equal(t, uint64(2), pool.TxsCount(), "total txs")
	assert.Equal(t, uint64(2), pool.AvailableTxsCount(), "available txs")

	pool.ClaimForProposal([]*batchrecord.Batch{b1})
	assert.Equal(t, uint64(2), pool.TxsCount(), "total txs after claim")
	assert.Equal(t, uint64(1), pool.AvailableTxsCount(), "available txs after claim")
	assert.False(t, pool.IsEmpty(), "pool empty with one available")

	pool.ClaimForProposal([]*batchrecord.Batch{b2})
	assert.True(t, pool.IsEmpty(), "claimed pool not empty")
	assert.Equal(t, uint64(2), pool.TxsCount(), "in-flight txs dropped from total")
}

// claiming twice changes nothing
func TestClaimIdempotent(t *testing.T) {
	pool, _ := setup(t)
	defer teardown()

	b1 := completeBatch(t, "one", 10)
	pool.Insert(b1)

	pool.ClaimForProposal([]*batchrecord.Batch{b1, b1})
	pool.ClaimForProposal([]*batchrecord.Batch{b1})

	assert.Equal(t, uint64(1), pool.TxsCount(), "total txs")
	assert.Equal(t, uint64(0), pool.AvailableTxsCount(), "available txs")
	assert.NoError(t, pool.CheckConsistency(), "consistency audit")
}

// claim followed by an empty resolve is lossless
func TestClaimThenEmptyRemove(t *testing.T) {
	pool, _ := setup(t)
	defer teardown()

	b1 := completeBatch(t, "one", 10)
	b2 := completeBatch(t, "two", 20)
	pool.Insert(b1)
	pool.Insert(b2)

	pool.ClaimForProposal([]*batchrecord.Batch{b1, b2})
	pool.Remove(map[digest.Digest]struct{}{})

	assert.Equal(t, uint64(2), pool.AvailableTxsCount(), "available txs after empty resolve")
	assert.Equal(t, uint64(2), pool.TxsCount(), "total txs after empty resolve")
	assert.NoError(t, pool.CheckConsistency(), "consistency audit")
}

func TestForAvailable(t *testing.T) {
	pool, _ := setup(t)
	defer teardown()

	pool.Insert(completeBatch(t, "one", 10))
	pool.Insert(completeBatch(t, "two", 20))

	seen := 0
	pool.ForAvailable(func(set *batchset.Set) {
		set.Range(func(batch *batchrecord.Batch) bool {
			seen += 1
			return true
		})
	})
	assert.Equal(t, 2, seen, "batches visited")
}

// a sink calling back into the pool must fail loudly, not deadlock
func TestReentrantSinkPanics(t *testing.T) {
	fixtures.SetupTestLogger()
	defer teardown()

	sink := &reentrantSink{}
	pool, err := batchpool.New(logger.New(fixtures.LogCategory), sink)
	assert.NoError(t, err, "create pool")
	sink.pool = pool

	defer func() {
		r := recover()
		assert.Equal(t, fault.ErrReentrantCall, r, "wrong panic value")
	}()
	pool.Insert(completeBatch(t, "one", 10))
	t.Fatal("re-entrant sink did not panic")
}

type reentrantSink struct {
	pool *batchpool.BatchPool
}

func (s *reentrantSink) StateUpdated(batch *batchrecord.Batch) {}

func (s *reentrantSink) Prepared(batch *batchrecord.Batch) {
	s.pool.TxsCount() // forbidden
}

// a callback passed to ForAvailable is under the same restriction
func TestReentrantForAvailablePanics(t *testing.T) {
	pool, _ := setup(t)
	defer teardown()

	pool.Insert(completeBatch(t, "one", 10))

	defer func() {
		r := recover()
		assert.Equal(t, fault.ErrReentrantCall, r, "wrong panic value")
	}()
	pool.ForAvailable(func(set *batchset.Set) {
		pool.IsEmpty()
	})
	t.Fatal("re-entrant callback did not panic")
}

// with the resolved cache on, a batch containing an already resolved
// transaction is silently dropped
func TestResolvedCacheDropsKnownHashes(t *testing.T) {
	pool, r := setup(t, batchpool.WithResolvedCache(16))
	defer teardown()

	b1 := completeBatch(t, "one", 10)
	pool.Insert(b1)
	pool.Remove(hashesOf(b1))
	assert.True(t, pool.IsEmpty(), "pool not empty after remove")

	count, err := pool.Insert(completeBatch(t, "one", 10))
	assert.NoError(t, err, "re-insert")
	assert.Equal(t, uint64(0), count, "resolved batch was staged")

	_, prepared := r.counts()
	assert.Equal(t, 1, prepared, "prepared fired for a resolved batch")
	assert.NoError(t, pool.CheckConsistency(), "consistency audit")
}

// expectations on the sink expressed with gomock
func TestSinkCallOrder(t *testing.T) {
	fixtures.SetupTestLogger()
	defer teardown()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := mocks.NewMockSink(ctrl)
	gomock.InOrder(
		sink.EXPECT().StateUpdated(gomock.Any()),
		sink.EXPECT().Prepared(gomock.Any()),
	)

	pool, err := batchpool.New(logger.New(fixtures.LogCategory), sink)
	assert.NoError(t, err, "create pool")

	pool.Insert(partialBatch(t, "one", 10, "key-1"))
	pool.Insert(partialBatch(t, "one", 10, "key-2"))
}

// concurrent two-party aggregation: every batch completes exactly once
func TestConcurrentAggregation(t *testing.T) {
	pool, r := setup(t)
	defer teardown()

	const batches = 50

	var wg sync.WaitGroup
	for _, key := range []string{"key-1", "key-2"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			for i := 0; i < batches; i += 1 {
				payload := "batch-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
				_, err := pool.Insert(partialBatch(t, payload, uint64(10+i), key))
				if nil != err {
					t.Error(err)
					return
				}
			}
		}(key)
	}
	wg.Wait()

	assert.Equal(t, uint64(batches), pool.AvailableTxsCount(), "available txs")
	updated, prepared := r.counts()
	assert.Equal(t, batches, updated, "state updates")
	assert.Equal(t, batches, prepared, "prepared events")
	assert.NoError(t, pool.CheckConsistency(), "consistency audit")
}
