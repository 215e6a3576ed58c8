// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package messagebus

import (
	"github.com/bitmark-inc/batchpool/batchrecord"
)

// internal constants
const (
	defaultQueueSize = 1000
)

// Kind - which state transition an event reports
type Kind int

// event kinds
const (
	StateUpdated Kind = iota // batch entered pending or gained signatures, still incomplete
	Prepared                 // batch became fully signed and entered the available set
)

func (kind Kind) String() string {
	switch kind {
	case StateUpdated:
		return "StateUpdated"
	case Prepared:
		return "Prepared"
	default:
		return "?"
	}
}

// Event - one committed state transition
type Event struct {
	Kind  Kind
	Batch *batchrecord.Batch
}

// Bus - buffered single-queue event sink
type Bus struct {
	queue chan Event
}

// New - create a bus, size <= 0 selects the default
func New(size int) *Bus {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Bus{
		queue: make(chan Event, size),
	}
}

// StateUpdated - enqueue a state update event
func (bus *Bus) StateUpdated(batch *batchrecord.Batch) {
	bus.queue <- Event{
		Kind:  StateUpdated,
		Batch: batch,
	}
}

// Prepared - enqueue a prepared event
func (bus *Bus) Prepared(batch *batchrecord.Batch) {
	bus.queue <- Event{
		Kind:  Prepared,
		Batch: batch,
	}
}

// Chan - channel to read from
func (bus *Bus) Chan() <-chan Event {
	return bus.queue
}
