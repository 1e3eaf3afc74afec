// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/kayyagari/ra/bundle"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/index"
	"github.com/kayyagari/ra/keylock"
	"github.com/kayyagari/ra/metrics"
	"github.com/kayyagari/ra/reference"
	"github.com/kayyagari/ra/schema"
	"github.com/kayyagari/ra/storage"
	"github.com/kayyagari/ra/versionid"
)

// Options - limits applied to every bundle
type Options struct {
	LockTimeout       time.Duration
	BundleTimeout     time.Duration
	ValidationWorkers int
	Limits            bundle.Limits
}

// Collaborators - replaceable parts, nil selects the default
type Collaborators struct {
	Validator schema.Validator
	Resolver  *reference.Resolver
	Deriver   *index.Deriver
	Metrics   *metrics.Metrics
	Clock     func() time.Time
}

// Coordinator - processes bundles against one store
type Coordinator struct {
	log       *logger.L
	store     storage.Store
	validator schema.Validator
	resolver  *reference.Resolver
	deriver   *index.Deriver
	metrics   *metrics.Metrics
	clock     func() time.Time
	allocator *versionid.Allocator
	locks     *keylock.Table
	options   Options
}

// New - coordinator whose allocator continues after the newest
// version already in the store
func New(store storage.Store, collaborators Collaborators, options Options) (*Coordinator, error) {
	c := &Coordinator{
		log:       logger.New("coordinator"),
		store:     store,
		validator: collaborators.Validator,
		resolver:  collaborators.Resolver,
		deriver:   collaborators.Deriver,
		metrics:   collaborators.Metrics,
		clock:     collaborators.Clock,
		options:   options,
	}
	if nil == c.validator {
		c.validator = schema.NewStructuralValidator(nil)
	}
	if nil == c.resolver {
		c.resolver = reference.New(nil)
	}
	if nil == c.deriver {
		c.deriver = index.NewDeriver(nil, nil)
	}
	if nil == c.clock {
		c.clock = time.Now
	}
	if c.options.ValidationWorkers <= 0 {
		c.options.ValidationWorkers = 4
	}

	c.allocator = versionid.NewAllocatorWithClock(c.clock)
	latest, err := store.LatestVersion()
	if nil != err {
		c.log.Errorf("latest version error: %s", err)
		return nil, err
	}
	c.allocator.Observe(latest)

	c.locks = keylock.New(c.metrics.Waited)

	c.log.Infof("started  latest version: %s", latest)
	return c, nil
}

// Shutdown - refuse new commits and wait for those in progress
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.locks.Close()
	err := c.locks.Drain(ctx)
	c.log.Info("shutdown")
	return err
}

// Process - run one bundle to Committed or Aborted
//
// the response is never nil; on abort every entry carries the same
// reason and the error is that reason
func (c *Coordinator) Process(ctx context.Context, b *bundle.Bundle) (*bundle.Response, error) {
	if c.options.BundleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.options.BundleTimeout)
		defer cancel()
	}

	t := newTxn(c, b)
	response, err := t.run(ctx)
	if nil != err {
		c.aborted(t, err)
		return bundle.NewAborted(t.count(), err), err
	}

	c.metrics.Committed(t.outcomes(), time.Since(t.start))
	c.log.Infof("bundle: %s committed  entries: %d  elapsed: %s", t.id, t.count(), time.Since(t.start))
	return response, nil
}

func (c *Coordinator) aborted(t *txn, err error) {
	kind := fault.KindOf(err)
	c.metrics.Aborted(string(kind))

	switch kind {
	case fault.KindStorageUnavailable, fault.KindInternal:
		c.log.Errorf("bundle: %s aborted in: %s  kind: %s  error: %s", t.id, t.aborting, kind, err)
	case fault.KindChecksumMismatch:
		c.log.Criticalf("bundle: %s aborted in: %s  kind: %s  error: %s", t.id, t.aborting, kind, err)
	default:
		c.log.Warnf("bundle: %s aborted in: %s  kind: %s  error: %s", t.id, t.aborting, kind, err)
	}
}

// a cancelled or expired context stops a bundle before Committing
func interrupted(ctx context.Context, start time.Time) error {
	err := ctx.Err()
	if nil == err {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &fault.TimeoutError{Waited: time.Since(start), Err: err}
	}
	return err
}
