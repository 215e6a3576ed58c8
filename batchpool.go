// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package batchpool - in-memory staging area for client submitted
// transaction batches awaiting ordering
//
// A batch arriving with all required signatures becomes available
// immediately.  A partially signed batch waits in the pending store,
// where later submissions of the same logical batch are merged by
// identity until the signature set is complete, then it is promoted to
// available.  The ordering service claims available batches into a
// proposal, moving them in-flight; when the proposal resolves the
// resolved transaction hashes prune matching batches everywhere and
// in-flight survivors fold back into available.
//
// Two locks: the embedded readers-writer lock guards the available and
// in-flight sets, the pending store carries its own exclusive lock, so
// signature merging does not block readers of availability counts.
// Lock order is always pending before cache, never the reverse.
//
// Events are delivered to the injected sink inside the critical section
// that caused the transition; a sink must not call back into the pool
// synchronously - such a call is detected and fails loudly instead of
// deadlocking.
package batchpool

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/batchpool/batchrecord"
	"github.com/bitmark-inc/batchpool/batchset"
	"github.com/bitmark-inc/batchpool/digest"
	"github.com/bitmark-inc/batchpool/fault"
	"github.com/bitmark-inc/batchpool/pending"
)

// Sink - receiver of pool state transitions
//
// StateUpdated fires when a batch enters pending or gains signatures
// while remaining incomplete; Prepared fires when a batch becomes fully
// signed and enters the available set.  Both are invoked with locks
// held: implementations must be trivially cheap or hand off
// asynchronously (see the messagebus package), and must not call back
// into the pool.
type Sink interface {
	StateUpdated(batch *batchrecord.Batch)
	Prepared(batch *batchrecord.Batch)
}

// BatchPool - the batch cache instance
type BatchPool struct {
	sync.RWMutex // guards available and inFlight

	log       *logger.L
	sink      Sink
	pending   *pending.Store
	available *batchset.Set
	inFlight  *batchset.Set
	resolved  *lru.Cache // optional memory of resolved tx hashes

	resolvedSize int

	// goroutine currently inside the sink or a ForAvailable callback,
	// zero when none; used to refuse re-entrant calls
	emitter uint64
}

// Option - constructor option
type Option func(*BatchPool)

// WithResolvedCache - remember up to n resolved transaction hashes and
// silently drop later submissions of batches containing one
func WithResolvedCache(n int) Option {
	return func(pool *BatchPool) {
		pool.resolvedSize = n
	}
}

// New - create a pool with an injected event sink
//
// a nil sink disables notifications
func New(log *logger.L, sink Sink, options ...Option) (*BatchPool, error) {
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	pool := &BatchPool{
		log:       log,
		sink:      sink,
		pending:   pending.New(),
		available: batchset.New(),
		inFlight:  batchset.New(),
	}
	for _, option := range options {
		option(pool)
	}

	if pool.resolvedSize > 0 {
		cache, err := lru.New(pool.resolvedSize)
		if nil != err {
			return nil, err
		}
		pool.resolved = cache
	}

	return pool, nil
}

// IsEmpty - true iff the available set is empty
//
// in-flight work is owned by a proposal in progress and not counted
func (pool *BatchPool) IsEmpty() bool {
	pool.guard()
	pool.RLock()
	defer pool.RUnlock()
	return pool.available.IsEmpty()
}

// TxsCount - transactions across available and in-flight batches
func (pool *BatchPool) TxsCount() uint64 {
	pool.guard()
	pool.RLock()
	defer pool.RUnlock()
	return pool.available.TxsCount() + pool.inFlight.TxsCount()
}

// AvailableTxsCount - transactions across available batches only
func (pool *BatchPool) AvailableTxsCount() uint64 {
	pool.guard()
	pool.RLock()
	defer pool.RUnlock()
	return pool.available.TxsCount()
}

// ForAvailable - run f against the live available set
//
// the exclusive lock is held because f may mutate the set; f must not
// call back into the pool
func (pool *BatchPool) ForAvailable(f func(*batchset.Set)) {
	pool.guard()
	pool.Lock()
	defer pool.Unlock()

	atomic.StoreUint64(&pool.emitter, goid())
	defer atomic.StoreUint64(&pool.emitter, 0)
	f(pool.available)
}

// CheckConsistency - audit every maintained invariant
//
// count caches match contents, the pending indices agree, and no batch
// identity appears in more than one store
func (pool *BatchPool) CheckConsistency() error {
	pool.guard()
	pool.pending.Lock()
	defer pool.pending.Unlock()
	pool.Lock()
	defer pool.Unlock()

	if err := pool.available.CheckCounts(); nil != err {
		return err
	}
	if err := pool.inFlight.CheckCounts(); nil != err {
		return err
	}
	if err := pool.pending.CheckConsistency(); nil != err {
		return err
	}

	stores := make(map[digest.Digest]int)
	for _, rh := range pool.pending.Hashes() {
		stores[rh] += 1
	}
	count := func(batch *batchrecord.Batch) bool {
		stores[batch.ReducedHash()] += 1
		return true
	}
	pool.available.Range(count)
	pool.inFlight.Range(count)

	for rh, n := range stores {
		if n > 1 {
			pool.log.Criticalf("consistency: batch %s present in %d stores", rh, n)
			return fault.ErrCrossStoreDuplicate
		}
	}
	return nil
}

// refuse calls from a sink or callback that already holds a lock on
// this goroutine, the alternative is a silent deadlock
func (pool *BatchPool) guard() {
	emitter := atomic.LoadUint64(&pool.emitter)
	if 0 != emitter && goid() == emitter {
		pool.log.Critical("re-entrant call from event sink")
		panic(fault.ErrReentrantCall)
	}
}

// deliver a state update, locks held by the caller
func (pool *BatchPool) notifyStateUpdated(batch *batchrecord.Batch) {
	if nil == pool.sink {
		return
	}
	atomic.StoreUint64(&pool.emitter, goid())
	defer atomic.StoreUint64(&pool.emitter, 0)
	pool.sink.StateUpdated(batch)
}

// deliver a prepared notification, locks held by the caller
func (pool *BatchPool) notifyPrepared(batch *batchrecord.Batch) {
	if nil == pool.sink {
		return
	}
	atomic.StoreUint64(&pool.emitter, goid())
	defer atomic.StoreUint64(&pool.emitter, 0)
	pool.sink.Prepared(batch)
}
