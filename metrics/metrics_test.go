// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/kayyagari/ra/metrics"
)

func TestCollectors(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.Committed([]string{"created", "created", "updated"}, 5*time.Millisecond)
	m.Aborted("VersionConflict")
	m.Aborted("VersionConflict")
	m.Aborted("Timeout")
	m.Queued(7)
	m.ChecksumFailure()
	m.Waited(time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BundlesCommitted), "committed")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EntriesWritten.WithLabelValues("created")), "created")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntriesWritten.WithLabelValues("updated")), "updated")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BundlesAborted.WithLabelValues("VersionConflict")), "conflicts")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BundlesAborted.WithLabelValues("Timeout")), "timeouts")
	assert.Equal(t, 7.0, testutil.ToFloat64(m.QueueDepth), "queue")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChecksumFailures), "checksum")
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics
	m.Committed([]string{"created"}, time.Second)
	m.Aborted("Internal")
	m.Queued(1)
	m.ChecksumFailure()
	m.Waited(time.Second)
}

func TestSeparateRegistries(t *testing.T) {
	// each registry takes its own set without a duplicate registration panic
	a := metrics.New(prometheus.NewRegistry())
	b := metrics.New(prometheus.NewRegistry())
	a.Aborted("Timeout")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.BundlesAborted.WithLabelValues("Timeout")), "independent")
}
