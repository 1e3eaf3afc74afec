// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

import (
	"context"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/kayyagari/ra/background"
	"github.com/kayyagari/ra/bundle"
	"github.com/kayyagari/ra/fault"
)

type reply struct {
	response *bundle.Response
	err      error
}

type job struct {
	ctx    context.Context
	bundle *bundle.Bundle
	reply  chan reply
}

// Workers - a fixed pool of goroutines processing queued bundles
type Workers struct {
	sync.RWMutex
	log         *logger.L
	coordinator *Coordinator
	queue       chan *job
	processes   *background.T
	stopped     bool
}

type worker struct {
	id int
}

// NewWorkers - start count workers behind a queue of queueSize
func NewWorkers(c *Coordinator, count int, queueSize int) *Workers {
	if count <= 0 {
		count = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	w := &Workers{
		log:         logger.New("workers"),
		coordinator: c,
		queue:       make(chan *job, queueSize),
	}

	processes := make(background.Processes, count)
	for i := range processes {
		processes[i] = &worker{id: i}
	}
	w.processes = background.Start(processes, w)

	w.log.Infof("started: %d workers  queue: %d", count, queueSize)
	return w
}

// Run - process jobs until shutdown
func (state *worker) Run(args interface{}, shutdown <-chan struct{}) {
	w := args.(*Workers)
	log := w.log

	log.Debugf("worker: %d starting…", state.id)
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case j := <-w.queue:
			w.coordinator.metrics.Queued(len(w.queue))
			response, err := w.coordinator.Process(j.ctx, j.bundle)
			j.reply <- reply{response: response, err: err}
		}
	}
	log.Debugf("worker: %d stopped", state.id)
}

// Submit - queue a bundle and wait for its outcome
//
// a full queue is refused immediately; a context cancelled while
// queued is seen by the worker, which aborts before Committing
func (w *Workers) Submit(ctx context.Context, b *bundle.Bundle) (*bundle.Response, error) {
	j := &job{
		ctx:    ctx,
		bundle: b,
		reply:  make(chan reply, 1),
	}

	w.RLock()
	if w.stopped {
		w.RUnlock()
		return nil, fault.ErrShuttingDown
	}
	select {
	case w.queue <- j:
	default:
		w.RUnlock()
		w.log.Warn("queue full")
		return nil, fault.ErrQueueFull
	}
	w.RUnlock()
	w.coordinator.metrics.Queued(len(w.queue))

	r := <-j.reply
	return r.response, r.err
}

// Stop - finish the current jobs and stop every worker
//
// bundles still queued are aborted as shutting down
func (w *Workers) Stop() {
	w.Lock()
	if w.stopped {
		w.Unlock()
		return
	}
	w.stopped = true
	w.Unlock()

	w.processes.Stop()

	for {
		select {
		case j := <-w.queue:
			count := 0
			if nil != j.bundle {
				count = len(j.bundle.Entries)
			}
			j.reply <- reply{
				response: bundle.NewAborted(count, fault.ErrShuttingDown),
				err:      fault.ErrShuttingDown,
			}
		default:
			w.log.Info("stopped")
			return
		}
	}
}
