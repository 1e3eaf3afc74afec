// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kayyagari/ra/util"
)

func writeConfiguration(t *testing.T, source string) (string, string) {
	dir := t.TempDir()
	fileName := filepath.Join(dir, "rad.conf")
	err := ioutil.WriteFile(fileName, []byte(source), 0600)
	if nil != err {
		t.Fatalf("write error: %s", err)
	}
	return dir, fileName
}

func TestSampleConfiguration(t *testing.T) {
	sample, err := ioutil.ReadFile("rad.conf.sample")
	assert.Nil(t, err, "read sample")

	dir, fileName := writeConfiguration(t, string(sample))

	c, err := getConfiguration(fileName)
	if !assert.Nil(t, err, "sample configuration") {
		return
	}

	assert.Equal(t, filepath.Clean(dir), c.DataDirectory, "data directory")
	assert.Equal(t, filepath.Join(dir, "data", "ra.leveldb"), c.Database.Name, "database")
	assert.True(t, util.EnsureFileExists(filepath.Join(dir, "data")), "database directory created")
	assert.True(t, util.EnsureFileExists(filepath.Join(dir, "log")), "log directory created")
	assert.Equal(t, "", c.SchemaFile, "built in schema")
	assert.Equal(t, filepath.Join(dir, "rpc.crt"), c.RPC.Certificate, "certificate")
	assert.Equal(t, []string{"127.0.0.1:2180", "[::1]:2180"}, c.RPC.Listen, "listen")
	assert.Equal(t, 2, len(c.RPC.Allow["metrics"]), "allow")
	assert.Equal(t, int64(8388608), c.RPC.MaximumBody, "maximum body")
	assert.Equal(t, "info", c.Logging.Levels["coordinator"], "log level")

	so, err := c.storageOptions()
	assert.Nil(t, err, "storage options")
	assert.Equal(t, 10*time.Minute, so.CacheExpiry, "cache expiry")
	assert.True(t, so.Sync, "sync")

	co, err := c.coordinatorOptions()
	assert.Nil(t, err, "coordinator options")
	assert.Equal(t, 5*time.Second, co.LockTimeout, "lock timeout")
	assert.Equal(t, 30*time.Second, co.BundleTimeout, "bundle timeout")
	assert.Equal(t, 1000, co.Limits.MaximumEntries, "maximum entries")
	assert.True(t, co.Limits.RequirePrecondition, "require precondition")
}

func TestMinimalConfiguration(t *testing.T) {
	dir, fileName := writeConfiguration(t, `return { data_directory = ".", schema_file = "schema.lua", rpc = { certificate = "" } }`)

	c, err := getConfiguration(fileName)
	if !assert.Nil(t, err, "minimal configuration") {
		return
	}
	assert.Equal(t, defaultWorkers, c.Coordinator.Workers, "default workers")
	assert.True(t, c.Coordinator.RequirePrecondition, "preconditions required by default")
	assert.Equal(t, filepath.Join(dir, "schema.lua"), c.SchemaFile, "schema relative to data directory")
	assert.Equal(t, "", c.RPC.Certificate, "plain HTTP")
	assert.Equal(t, 0, len(c.RPC.Listen), "rpc disabled")
}

func TestInvalidConfiguration(t *testing.T) {
	invalid := []struct {
		source  string
		message string
	}{
		{`return { }`, "is not a valid directory"},
		{`return { data_directory = "/nonexistent/ra" }`, "no such file"},
		{`return { data_directory = ".", coordinator = { lock_timeout = "soon" } }`, "coordinator.lock_timeout"},
		{`return { data_directory = ".", coordinator = { bundle_timeout = "x" } }`, "coordinator.bundle_timeout"},
		{`return { data_directory = ".", coordinator = { maximum_entries = 0 } }`, "maximum_entries"},
		{`return { data_directory = ".", database = { cache_expiry = "1 week" } }`, "database.cache_expiry"},
		{`return { data_directory = ".", database = { name = "sub/ra.leveldb" } }`, "is not plain name"},
	}

	for i, item := range invalid {
		_, fileName := writeConfiguration(t, item.source)
		_, err := getConfiguration(fileName)
		if assert.NotNil(t, err, "%d: accepted: %s", i, item.source) {
			assert.True(t, strings.Contains(err.Error(), item.message), "%d: error: %s", i, err)
		}
	}
}

func TestOptionsErrors(t *testing.T) {
	_, fileName := writeConfiguration(t, `return { data_directory = "." }`)
	c, err := getConfiguration(fileName)
	if !assert.Nil(t, err, "configuration") {
		return
	}

	c.Database.CacheExpiry = "later"
	_, err = c.storageOptions()
	assert.NotNil(t, err, "cache expiry accepted")

	c.Coordinator.LockTimeout = "0s"
	_, err = c.coordinatorOptions()
	assert.NotNil(t, err, "zero lock timeout accepted")
}
