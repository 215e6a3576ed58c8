// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package batchpool

import (
	"bytes"
	"runtime"
	"strconv"
)

// id of the calling goroutine
//
// the runtime does not expose goroutine ids, so parse the header of a
// stack trace: "goroutine 123 [running]:"; used only to refuse
// re-entrant sink calls, never for logic
func goid() uint64 {
	var buffer [64]byte
	n := runtime.Stack(buffer[:], false)

	fields := bytes.Fields(buffer[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if nil != err {
		return 0
	}
	return id
}
