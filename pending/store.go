// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pending - partially signed batches awaiting their remaining
// signatures
//
// Entries are indexed two ways: by reduced hash for signature merging and
// by assigned timestamp for oldest-first expiry.  The pair is
// encapsulated here so no caller can mutate one index without the other.
// Assigned timestamps are unique across the store: a collision on insert
// is resolved by probing upward until a free slot is found, which keeps
// the by-time order total without requiring a monotone clock.
//
// The zero lock discipline of the owning pool: Store embeds the
// exclusive pending lock; callers hold it across every operation and
// across multi-step sequences such as promotion.
package pending

import (
	"sync"

	"github.com/bitmark-inc/batchpool/batchrecord"
	"github.com/bitmark-inc/batchpool/digest"
	"github.com/bitmark-inc/batchpool/fault"
)

// Outcome - result of an upsert
type Outcome int

// possible results of an upsert
const (
	Inserted        Outcome = iota // no entry existed, a new one was created
	MergedNoChange                 // entry existed, donor carried no new signatures
	MergedUpdated                  // new signatures added, still incomplete
	MergedCompleted                // new signatures completed the batch, entry removed
)

func (outcome Outcome) String() string {
	switch outcome {
	case Inserted:
		return "Inserted"
	case MergedNoChange:
		return "MergedNoChange"
	case MergedUpdated:
		return "MergedUpdated"
	case MergedCompleted:
		return "MergedCompleted"
	default:
		return "?"
	}
}

// one pending batch and its assigned timestamp
type entry struct {
	batch     *batchrecord.Batch
	timestamp uint64
}

// Store - partially signed batches indexed by reduced hash and by time
type Store struct {
	sync.Mutex // the exclusive pending lock, held by callers

	byHash map[digest.Digest]*entry
	byTime *timeTree
}

// New - create an empty store
func New() *Store {
	return &Store{
		byHash: make(map[digest.Digest]*entry),
		byTime: newTimeTree(),
	}
}

// merge signatures from a donor batch into the resident batch pairwise
//
// transactions are positionally aligned: equal reduced hashes imply an
// identical transaction order
func mergeSignatures(resident *batchrecord.Batch, donor *batchrecord.Batch) (bool, error) {
	residentTxs := resident.Transactions()
	donorTxs := donor.Transactions()
	if len(residentTxs) != len(donorTxs) {
		return false, fault.ErrBatchLengthMismatch
	}

	addedNew := false
	for i, donorTx := range donorTxs {
		for _, signature := range donorTx.Signatures() {
			if residentTxs[i].AddSignature(signature.Signed, signature.PublicKey) {
				addedNew = true
			}
		}
	}
	return addedNew, nil
}

// Upsert - insert a new entry or merge signatures into the resident one
//
// returns the resident batch: for Inserted this is the argument, for the
// merged outcomes the batch already in the store; on MergedCompleted the
// entry has been removed from both indices and the returned batch is
// ready for promotion
func (store *Store) Upsert(batch *batchrecord.Batch) (Outcome, *batchrecord.Batch, error) {
	rh := batch.ReducedHash()

	item, ok := store.byHash[rh]
	if !ok {
		// probe upward from the oldest transaction timestamp until a
		// free slot preserves the total order
		ts := batch.OldestTimestamp()
		for !store.byTime.insert(ts, rh) {
			ts += 1
		}
		store.byHash[rh] = &entry{
			batch:     batch,
			timestamp: ts,
		}
		return Inserted, batch, nil
	}

	addedNew, err := mergeSignatures(item.batch, batch)
	if nil != err {
		return MergedNoChange, nil, err
	}
	if !addedNew {
		return MergedNoChange, item.batch, nil
	}
	if !item.batch.HasAllSignatures() {
		return MergedUpdated, item.batch, nil
	}

	// complete: drop from both indices, promotion is the caller's move
	store.byTime.remove(item.timestamp)
	delete(store.byHash, rh)
	return MergedCompleted, item.batch, nil
}

// RemoveByHash - drop the entry with this reduced hash, true iff present
func (store *Store) RemoveByHash(rh digest.Digest) bool {
	item, ok := store.byHash[rh]
	if !ok {
		return false
	}
	store.byTime.remove(item.timestamp)
	delete(store.byHash, rh)
	return true
}

// PruneIfAnyTx - remove every entry whose batch contains a transaction
// with a hash in the given set; returns the removed batches
func (store *Store) PruneIfAnyTx(hashes map[digest.Digest]struct{}) []*batchrecord.Batch {
	removed := []*batchrecord.Batch(nil)

scan:
	for rh, item := range store.byHash {
		for _, tx := range item.batch.Transactions() {
			if _, ok := hashes[tx.TxId()]; ok {
				store.byTime.remove(item.timestamp)
				delete(store.byHash, rh)
				removed = append(removed, item.batch)
				continue scan
			}
		}
	}
	return removed
}

// PruneExpired - remove every entry with an assigned timestamp below the
// cutoff, oldest first; returns the removed batches in timestamp order
func (store *Store) PruneExpired(cutoff uint64) []*batchrecord.Batch {
	removed := []*batchrecord.Batch(nil)

	for {
		oldest := store.byTime.first()
		if nil == oldest || oldest.key >= cutoff {
			return removed
		}
		item := store.byHash[oldest.value]
		store.byTime.remove(oldest.key)
		delete(store.byHash, oldest.value)
		removed = append(removed, item.batch)
	}
}

// Timestamp - the assigned timestamp for a reduced hash
func (store *Store) Timestamp(rh digest.Digest) (uint64, bool) {
	item, ok := store.byHash[rh]
	if !ok {
		return 0, false
	}
	return item.timestamp, true
}

// Batch - the resident batch for a reduced hash
func (store *Store) Batch(rh digest.Digest) (*batchrecord.Batch, bool) {
	item, ok := store.byHash[rh]
	if !ok {
		return nil, false
	}
	return item.batch, true
}

// Hashes - reduced hashes of all pending entries, for audits
func (store *Store) Hashes() []digest.Digest {
	hashes := make([]digest.Digest, 0, len(store.byHash))
	for rh := range store.byHash {
		hashes = append(hashes, rh)
	}
	return hashes
}

// Size - number of pending entries
func (store *Store) Size() int {
	return len(store.byHash)
}

// IsEmpty - true iff no entries are pending
func (store *Store) IsEmpty() bool {
	return 0 == len(store.byHash)
}

// CheckConsistency - audit: both indices must describe the same entries
func (store *Store) CheckConsistency() error {
	if len(store.byHash) != store.byTime.size() {
		return fault.ErrIndexSizeMismatch
	}
	for rh, item := range store.byHash {
		indexed, ok := store.byTime.get(item.timestamp)
		if !ok || indexed != rh {
			return fault.ErrTimestampIndexMismatch
		}
	}
	return nil
}
