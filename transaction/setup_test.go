// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kayyagari/ra/bundle"
	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fixtures"
	"github.com/kayyagari/ra/index"
	"github.com/kayyagari/ra/metrics"
	"github.com/kayyagari/ra/reference"
	"github.com/kayyagari/ra/schema"
	"github.com/kayyagari/ra/storage"
	"github.com/kayyagari/ra/transaction"
	"github.com/kayyagari/ra/versionid"
)

type testEnv struct {
	t           *testing.T
	directory   string
	engine      *storage.Engine
	coordinator *transaction.Coordinator
	metrics     *metrics.Metrics
}

func defaultOptions() transaction.Options {
	return transaction.Options{
		LockTimeout:   2 * time.Second,
		BundleTimeout: 10 * time.Second,
		Limits: bundle.Limits{
			MaximumEntries:      100,
			RequirePrecondition: true,
		},
	}
}

func collaborators(t *testing.T, validator schema.Validator, m *metrics.Metrics) transaction.Collaborators {
	s, err := schema.Parse(schema.DefaultSource)
	if nil != err {
		t.Fatalf("schema error: %s", err)
	}
	if nil == validator {
		validator = schema.NewStructuralValidator(s)
	}
	return transaction.Collaborators{
		Validator: validator,
		Resolver:  reference.New(s),
		Deriver:   index.NewDeriver(nil, s),
		Metrics:   m,
	}
}

func setup(t *testing.T, options transaction.Options, validator schema.Validator) *testEnv {
	fixtures.SetupTestLogger()

	directory := filepath.Join(t.TempDir(), "ra.leveldb")
	engine, err := storage.Open(directory, storage.Options{})
	if nil != err {
		t.Fatalf("storage open error: %s", err)
	}

	m := metrics.New(prometheus.NewRegistry())
	c, err := transaction.New(engine, collaborators(t, validator, m), options)
	if nil != err {
		t.Fatalf("coordinator error: %s", err)
	}

	return &testEnv{
		t:           t,
		directory:   directory,
		engine:      engine,
		coordinator: c,
		metrics:     m,
	}
}

func (env *testEnv) teardown() {
	_ = env.engine.Close()
	fixtures.TeardownTestLogger()
}

func (env *testEnv) process(source string) (*bundle.Response, error) {
	return env.processContext(context.Background(), source)
}

func (env *testEnv) processContext(ctx context.Context, source string) (*bundle.Response, error) {
	b, err := bundle.FromJSON([]byte(source))
	if nil != err {
		env.t.Fatalf("bundle parse error: %s", err)
	}
	return env.coordinator.Process(ctx, b)
}

// process a bundle that must commit
func (env *testEnv) commit(source string) *bundle.Response {
	r, err := env.process(source)
	if nil != err {
		env.t.Fatalf("commit error: %s", err)
	}
	if !r.Committed {
		env.t.Fatalf("bundle not committed")
	}
	return r
}

func version(t *testing.T, r bundle.Result) versionid.ID {
	v, err := versionid.FromString(r.VersionID)
	if nil != err {
		t.Fatalf("version: %q error: %s", r.VersionID, err)
	}
	return v
}

func key(s string) document.LogicalKey {
	k, err := document.ParseReference(s)
	if nil != err {
		panic(err)
	}
	return k
}

func field(t *testing.T, v *document.Value, path string) string {
	nodes := document.ParsePath(path).Collect(v)
	if 1 != len(nodes) {
		t.Fatalf("path: %s  found: %d", path, len(nodes))
	}
	s, _ := nodes[0].AsString()
	return s
}

func createBundle(target string, content string) string {
	return fmt.Sprintf(`{"entries": [{"operation": "create", "target": %q, "content": %s}]}`, target, content)
}

func updateBundle(target string, expected string, content string) string {
	return fmt.Sprintf(`{"entries": [{"operation": "update", "target": %q, "expectedVersion": %q, "content": %s}]}`, target, expected, content)
}

func deleteBundle(target string, expected string) string {
	return fmt.Sprintf(`{"entries": [{"operation": "delete", "target": %q, "expectedVersion": %q}]}`, target, expected)
}
