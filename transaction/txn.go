// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kayyagari/ra/bundle"
	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/index"
	"github.com/kayyagari/ra/record"
	"github.com/kayyagari/ra/storage"
	"github.com/kayyagari/ra/versionid"
)

// everything needed to write one entry
type write struct {
	entry    *bundle.Entry
	key      document.LogicalKey
	outcome  bundle.Outcome
	explicit bool
	payload  record.Payload
	derived  *index.Derived
	version  versionid.ID
}

// one bundle in progress
type txn struct {
	c        *Coordinator
	b        *bundle.Bundle
	id       string
	state    State
	aborting State
	start    time.Time
	explicit []bool
	writes   []*write
}

func newTxn(c *Coordinator, b *bundle.Bundle) *txn {
	return &txn{
		c:     c,
		b:     b,
		id:    versionid.NewIdentifier(),
		state: Received,
		start: time.Now(),
	}
}

func (t *txn) count() int {
	if nil == t.b {
		return 0
	}
	return len(t.b.Entries)
}

func (t *txn) run(ctx context.Context) (*bundle.Response, error) {
	steps := []struct {
		next State
		f    func(context.Context) error
	}{
		{Resolving, t.resolve},
		{Validating, t.validate},
		{Encoding, t.encode},
		{Committing, t.commit},
	}

	err := t.received()
	if nil != err {
		return nil, t.abort(err)
	}

	for _, step := range steps {
		if err := interrupted(ctx, t.start); nil != err {
			return nil, t.abort(err)
		}
		if err := t.change(step.next); nil != err {
			return nil, t.abort(err)
		}
		if err := step.f(ctx); nil != err {
			return nil, t.abort(err)
		}
	}

	if err := t.change(Committed); nil != err {
		return nil, t.abort(err)
	}
	return t.response(), nil
}

func (t *txn) change(next State) error {
	if !t.state.CanChangeTo(next) {
		t.c.log.Criticalf("bundle: %s cannot change from: %s  to: %s", t.id, t.state, next)
		return fault.ErrInvalidStateChange
	}
	t.c.log.Debugf("bundle: %s  %s -> %s", t.id, t.state, next)
	t.state = next
	return nil
}

func (t *txn) abort(err error) error {
	t.aborting = t.state
	if t.state.CanChangeTo(Aborted) {
		t.state = Aborted
	}
	return err
}

// parse level checks, and which creates named their own key
func (t *txn) received() error {
	err := t.b.Check(t.c.options.Limits)
	if nil != err {
		return err
	}
	t.explicit = make([]bool, len(t.b.Entries))
	for i, e := range t.b.Entries {
		t.explicit[i] = nil != e.Target
	}
	return nil
}

func (t *txn) resolve(_ context.Context) error {
	_, err := t.c.resolver.Resolve(t.b)
	return err
}

// validation is a global AND: every violation in the bundle is
// collected and the first entry with one is reported
func (t *txn) validate(ctx context.Context) error {
	violations := make([][]fault.Violation, len(t.b.Entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.c.options.ValidationWorkers)

	for i, e := range t.b.Entries {
		if nil == e.Content {
			continue
		}
		i, e := i, e
		g.Go(func() error {
			if err := gctx.Err(); nil != err {
				return err
			}
			violations[i] = t.c.validator.Validate(e.Target.ResourceType, e.Content)
			return nil
		})
	}

	err := g.Wait()
	if nil != err {
		if e := interrupted(ctx, t.start); nil != e {
			return e
		}
		return err
	}

	all := []fault.Violation{}
	first := fault.NoEntry
	for i, v := range violations {
		if 0 == len(v) {
			continue
		}
		if fault.NoEntry == first {
			first = i
		}
		all = append(all, v...)
	}
	if 0 != len(all) {
		return &fault.SchemaViolationError{Entry: first, Violations: all}
	}
	return nil
}

// payloads and index rows, before any token is taken
func (t *txn) encode(_ context.Context) error {
	created := t.c.clock().UTC()

	t.writes = make([]*write, len(t.b.Entries))
	for i, e := range t.b.Entries {
		w := &write{
			entry:    e,
			key:      *e.Target,
			explicit: t.explicit[i],
		}

		deleted := false
		switch e.Operation {
		case bundle.OperationCreate:
			w.outcome = bundle.OutcomeCreated
		case bundle.OperationUpdate:
			w.outcome = bundle.OutcomeUpdated
		case bundle.OperationDelete:
			w.outcome = bundle.OutcomeDeleted
			deleted = true
		}

		payload, err := record.Encode(e.Content, deleted, created)
		if nil != err {
			return fmt.Errorf("entry[%d]: %w", i, err)
		}
		w.payload = payload

		if deleted {
			w.derived = &index.Derived{}
		} else {
			w.derived, err = t.c.deriver.Derive(w.key.ResourceType, e.Content)
			if nil != err {
				return fmt.Errorf("entry[%d]: %w", i, err)
			}
		}
		t.writes[i] = w
	}
	return nil
}

// a write that may find versions already stored
func (w *write) existing() bool {
	return w.explicit || bundle.OperationCreate != w.entry.Operation
}

// tokens, preconditions, versions and the single atomic batch
//
// ctx is only used while waiting for tokens
func (t *txn) commit(ctx context.Context) error {
	keys := make([]document.LogicalKey, 0, len(t.writes))
	for _, w := range t.writes {
		if w.existing() {
			keys = append(keys, w.key)
		}
	}

	held, err := t.c.locks.Acquire(ctx, keys, t.c.options.LockTimeout)
	if nil != err {
		return err
	}
	defer held.Release()

	store := t.c.store
	batch := store.NewBatch()

	for _, w := range t.writes {
		if !w.existing() {
			continue
		}
		p, err := store.GetPointer(w.key)
		if nil != err {
			return err
		}
		err = precondition(w, p)
		if nil != err {
			return err
		}
		if nil == p {
			continue
		}

		// rows held by the superseded version
		rows, err := store.SearchRows(w.key)
		if nil != err {
			return err
		}
		for _, row := range rows {
			batch.DeleteSearch(w.key, row)
		}
		targets, err := store.References(w.key)
		if nil != err {
			return err
		}
		for _, target := range targets {
			batch.DeleteReference(w.key, target)
		}
	}

	versions, err := t.c.allocator.NextN(len(t.writes))
	if nil != err {
		return err
	}

	for i, w := range t.writes {
		w.version = versions[i]

		packed, err := record.Seal(w.key, w.version, w.payload)
		if nil != err {
			return fmt.Errorf("entry[%d]: %w", i, err)
		}
		batch.PutVersion(w.key, w.version, packed)
		batch.PutPointer(w.key, storage.Pointer{
			Version: w.version,
			Deleted: bundle.OperationDelete == w.entry.Operation,
		})
		for _, row := range w.derived.Search {
			batch.PutSearch(w.key, w.version, row)
		}
		for _, target := range w.derived.References {
			batch.PutReference(w.key, target, w.version)
		}
	}

	return store.CommitBatch(batch)
}

// optimistic concurrency against the current pointer
func precondition(w *write, p *storage.Pointer) error {
	e := w.entry
	expected := ""
	if e.HasPrecondition() {
		expected = e.ExpectedVersion.String()
	}

	switch e.Operation {
	case bundle.OperationCreate:
		if nil != p {
			return &fault.VersionConflictError{Key: w.key.String(), Expected: expected, Actual: p.Version.String()}
		}
		return nil

	case bundle.OperationUpdate:
		if nil == p {
			return &fault.TargetNotFoundError{Key: w.key.String()}
		}

	case bundle.OperationDelete:
		if nil == p {
			return &fault.TargetNotFoundError{Key: w.key.String()}
		}
		if p.Deleted {
			return &fault.VersionConflictError{Key: w.key.String(), Expected: expected, Actual: p.Version.String()}
		}
	}

	if e.HasPrecondition() && p.Version != e.ExpectedVersion {
		return &fault.VersionConflictError{Key: w.key.String(), Expected: expected, Actual: p.Version.String()}
	}
	return nil
}

func (t *txn) response() *bundle.Response {
	results := make([]bundle.Result, len(t.writes))
	for i, w := range t.writes {
		results[i] = bundle.Committed(w.key, w.version, w.outcome)
	}
	return bundle.NewCommitted(results)
}

func (t *txn) outcomes() []string {
	outcomes := make([]string, len(t.writes))
	for i, w := range t.writes {
		outcomes[i] = string(w.outcome)
	}
	return outcomes
}
