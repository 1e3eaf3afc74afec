// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package metrics - prometheus collectors for bundle processing
//
// all methods accept a nil receiver so collectors are optional
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ra"

// Metrics - every collector of the process
type Metrics struct {
	BundlesCommitted prometheus.Counter
	BundlesAborted   *prometheus.CounterVec
	EntriesWritten   *prometheus.CounterVec
	CommitDuration   prometheus.Histogram
	TokenWait        prometheus.Histogram
	QueueDepth       prometheus.Gauge
	ChecksumFailures prometheus.Counter
}

// New - create and register the collectors
func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		BundlesCommitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bundle",
			Name:      "committed_total",
			Help:      "Bundles committed",
		}),
		BundlesAborted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bundle",
			Name:      "aborted_total",
			Help:      "Bundles aborted by error kind",
		}, []string{"kind"}),
		EntriesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bundle",
			Name:      "entries_written_total",
			Help:      "Document versions written by outcome",
		}, []string{"outcome"}),
		CommitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bundle",
			Name:      "commit_duration_seconds",
			Help:      "Time from receipt to the end of the atomic write",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}),
		TokenWait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "keylock",
			Name:      "wait_duration_seconds",
			Help:      "Time spent waiting for ownership tokens",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "workers",
			Name:      "queue_depth",
			Help:      "Bundles waiting for a worker",
		}),
		ChecksumFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "checksum_failures_total",
			Help:      "Reads rejected by the record checksum",
		}),
	}
}

// Committed - one committed bundle and the outcome of each entry
func (m *Metrics) Committed(outcomes []string, elapsed time.Duration) {
	if nil == m {
		return
	}
	m.BundlesCommitted.Inc()
	for _, outcome := range outcomes {
		m.EntriesWritten.WithLabelValues(outcome).Inc()
	}
	m.CommitDuration.Observe(elapsed.Seconds())
}

// Aborted - one aborted bundle
func (m *Metrics) Aborted(kind string) {
	if nil == m {
		return
	}
	m.BundlesAborted.WithLabelValues(kind).Inc()
}

// Waited - time to acquire ownership tokens
func (m *Metrics) Waited(d time.Duration) {
	if nil == m {
		return
	}
	m.TokenWait.Observe(d.Seconds())
}

// Queued - current submission queue length
func (m *Metrics) Queued(n int) {
	if nil == m {
		return
	}
	m.QueueDepth.Set(float64(n))
}

// ChecksumFailure - a corrupt record was read
func (m *Metrics) ChecksumFailure() {
	if nil == m {
		return
	}
	m.ChecksumFailures.Inc()
}
