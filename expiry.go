// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package batchpool

import (
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/batchpool/background"
	"github.com/bitmark-inc/batchpool/fault"
)

// Expiry - periodic pruning of pending batches whose assigned
// timestamps fell behind the cutoff
//
// the pool itself has no clock: the cutoff function supplies the
// horizon, typically derived from the timestamps of recently ordered
// transactions
type Expiry struct {
	log      *logger.L
	pool     *BatchPool
	cutoff   func() uint64
	interval time.Duration

	background *background.T
}

// NewExpiry - start the background sweep
func NewExpiry(pool *BatchPool, cutoff func() uint64, interval time.Duration) (*Expiry, error) {
	log := logger.New("batchpool-expiry")
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	expiry := &Expiry{
		log:      log,
		pool:     pool,
		cutoff:   cutoff,
		interval: interval,
	}
	expiry.background = background.Start(background.Processes{expiry.run}, nil)

	log.Info("starting…")
	return expiry, nil
}

// Stop - shut down the sweep
func (expiry *Expiry) Stop() {
	expiry.log.Info("shutting down…")
	expiry.background.Stop()
	expiry.log.Flush()
}

// Sweep - one immediate pass, returns how many batches were dropped
func (expiry *Expiry) Sweep() int {
	cutoff := expiry.cutoff()

	expiry.pool.pending.Lock()
	removed := expiry.pool.pending.PruneExpired(cutoff)
	expiry.pool.pending.Unlock()

	if len(removed) > 0 {
		expiry.log.Infof("expired %d pending batches below %d", len(removed), cutoff)
	}
	return len(removed)
}

// the background process
func (expiry *Expiry) run(args interface{}, shutdown <-chan struct{}, done chan<- struct{}) {
	defer close(done)

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-time.After(expiry.interval):
			expiry.Sweep()
		}
	}
}
