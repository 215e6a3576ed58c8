// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type InvariantError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type ReentrantError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised     = ExistsError("already initialised")
	ErrBatchLengthMismatch    = InvalidError("batches with equal reduced hash differ in transaction count")
	ErrCrossStoreDuplicate    = InvariantError("batch is present in more than one store")
	ErrDigestLength           = InvalidError("digest length is invalid")
	ErrEmptyBatch             = InvalidError("batch has no transactions")
	ErrIndexSizeMismatch      = InvariantError("pending by-hash and by-time index sizes differ")
	ErrInvalidLoggerChannel   = InvalidError("invalid logger channel")
	ErrMergeNotDrained        = InvariantError("set merge left non-duplicate entries behind")
	ErrNotInitialised         = NotFoundError("not initialised")
	ErrReentrantCall          = ReentrantError("re-entrant call from event sink while lock is held")
	ErrTimestampIndexMismatch = InvariantError("pending timestamp diverges from by-time index key")
	ErrTxsCountMismatch       = InvariantError("cached transaction count diverges from set contents")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string    { return string(e) }
func (e InvalidError) Error() string   { return string(e) }
func (e InvariantError) Error() string { return string(e) }
func (e NotFoundError) Error() string  { return string(e) }
func (e ProcessError) Error() string   { return string(e) }
func (e ReentrantError) Error() string { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool    { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool   { _, ok := e.(InvalidError); return ok }
func IsErrInvariant(e error) bool { _, ok := e.(InvariantError); return ok }
func IsErrNotFound(e error) bool  { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool   { _, ok := e.(ProcessError); return ok }
func IsErrReentrant(e error) bool { _, ok := e.(ReentrantError); return ok }
