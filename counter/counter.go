// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package counter

import (
	"sync/atomic"
)

// Counter - type to denote a counter that can be synchronously adjusted
// just a 64 bit unsigned integer
//
// batch operations adjust by the batch transaction count, so the step
// is a parameter rather than a fixed one
type Counter uint64

// Add - add n to a counter, returns new value
func (ic *Counter) Add(n uint64) uint64 {
	return atomic.AddUint64((*uint64)(ic), n)
}

// Sub - subtract n from a counter, returns new value
func (ic *Counter) Sub(n uint64) uint64 {
	return atomic.AddUint64((*uint64)(ic), ^(n - 1))
}

// Uint64 - returns current value
func (ic *Counter) Uint64() uint64 {
	return atomic.LoadUint64((*uint64)(ic))
}

// IsZero - check if zero
func (ic *Counter) IsZero() bool {
	return 0 == atomic.LoadUint64((*uint64)(ic))
}
