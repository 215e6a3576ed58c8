// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package batchrecord

import (
	"encoding/binary"

	"github.com/bitmark-inc/batchpool/digest"
)

// Signature - one signer's signature over a transaction
type Signature struct {
	Signed    string // hex encoded signed data
	PublicKey string // hex encoded signer public key
}

// Transaction - a single transaction inside a batch
//
// the id covers payload and created time only, so it is stable while
// signatures are aggregated
type Transaction struct {
	payload     []byte
	createdTime uint64
	required    int
	txId        digest.Digest
	signatures  []Signature
}

// NewTransaction - create a transaction record
//
// requiredSignatures below one is treated as one
func NewTransaction(payload []byte, createdTime uint64, requiredSignatures int) *Transaction {
	if requiredSignatures < 1 {
		requiredSignatures = 1
	}

	// pack payload ‖ created time for the content address
	packed := make([]byte, 0, len(payload)+8)
	packed = append(packed, payload...)
	timestamp := make([]byte, 8)
	binary.BigEndian.PutUint64(timestamp, createdTime)
	packed = append(packed, timestamp...)

	return &Transaction{
		payload:     payload,
		createdTime: createdTime,
		required:    requiredSignatures,
		txId:        digest.NewDigest(packed),
	}
}

// TxId - unique transaction id, signatures excluded
func (tx *Transaction) TxId() digest.Digest {
	return tx.txId
}

// CreatedTime - client supplied creation timestamp
func (tx *Transaction) CreatedTime() uint64 {
	return tx.createdTime
}

// Required - number of signatures needed for the transaction to be complete
func (tx *Transaction) Required() int {
	return tx.required
}

// Signatures - copy of the currently attached signatures in attach order
func (tx *Transaction) Signatures() []Signature {
	signatures := make([]Signature, len(tx.signatures))
	copy(signatures, tx.signatures)
	return signatures
}

// AddSignature - attach a signature, true iff it was not already present
//
// signatures are keyed by public key; a second signature from the same
// key is ignored
func (tx *Transaction) AddSignature(signedHex string, pubkeyHex string) bool {
	for _, signature := range tx.signatures {
		if signature.PublicKey == pubkeyHex {
			return false
		}
	}
	tx.signatures = append(tx.signatures, Signature{
		Signed:    signedHex,
		PublicKey: pubkeyHex,
	})
	return true
}

// IsFullySigned - true iff all required signatures are attached
func (tx *Transaction) IsFullySigned() bool {
	return len(tx.signatures) >= tx.required
}
