// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ratelimit

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/kayyagari/ra/fault"
)

// Limit - limiting for a single request
//
// waits for the reservation unless that would take longer than
// maximumWait, in which case the reservation is returned
func Limit(limiter *rate.Limiter, maximumWait time.Duration) error {
	return reserve(limiter.Reserve(), maximumWait)
}

// LimitN - limiting for a request carrying count items
//
// a count larger than the limiter's burst weighs as a full burst
func LimitN(limiter *rate.Limiter, count int, maximumCount int, maximumWait time.Duration) error {
	// invalid count gets limited as a single request
	if count <= 0 || count > maximumCount {
		if err := reserve(limiter.Reserve(), maximumWait); nil != err {
			return err
		}
		return fault.ErrInvalidCount
	}

	// a weight above the burst could never be reserved
	if burst := limiter.Burst(); count > burst {
		count = burst
	}
	return reserve(limiter.ReserveN(time.Now(), count), maximumWait)
}

func reserve(r *rate.Reservation, maximumWait time.Duration) error {
	if !r.OK() {
		return fault.ErrRateLimiting
	}
	delay := r.Delay()
	if delay > maximumWait {
		r.Cancel()
		return fault.ErrRateLimiting
	}
	time.Sleep(delay)
	return nil
}
