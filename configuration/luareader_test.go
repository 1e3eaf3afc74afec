// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kayyagari/ra/configuration"
	"github.com/kayyagari/ra/fault"
)

type sampleConfiguration struct {
	DataDirectory string            `gluamapper:"data_directory"`
	Workers       int               `gluamapper:"workers"`
	Sync          bool              `gluamapper:"sync"`
	Listen        []string          `gluamapper:"listen"`
	Levels        map[string]string `gluamapper:"levels"`
}

const sampleSource = `
local M = {}
M.data_directory = arg[0] ~= "" and "from-file" or "from-string"
M.workers = 2 * 4
M.sync = true
M.listen = { "127.0.0.1:2150", "[::1]:2150" }
M.levels = { DEFAULT = "info", storage = "debug" }
return M
`

func TestParseString(t *testing.T) {
	c := sampleConfiguration{}
	err := configuration.ParseConfigurationString(sampleSource, &c)
	assert.Nil(t, err, "parse")
	assert.Equal(t, "from-string", c.DataDirectory, "data directory")
	assert.Equal(t, 8, c.Workers, "workers")
	assert.True(t, c.Sync, "sync")
	assert.Equal(t, []string{"127.0.0.1:2150", "[::1]:2150"}, c.Listen, "listen")
	assert.Equal(t, "debug", c.Levels["storage"], "levels")
}

func TestParseFile(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "sample.conf")
	err := ioutil.WriteFile(fileName, []byte(sampleSource), 0600)
	assert.Nil(t, err, "write")

	c := sampleConfiguration{}
	err = configuration.ParseConfigurationFile(fileName, &c)
	assert.Nil(t, err, "parse")
	assert.Equal(t, "from-file", c.DataDirectory, "arg[0] is the file name")
}

func TestParseErrors(t *testing.T) {
	c := sampleConfiguration{}
	assert.Equal(t, fault.ErrInvalidStructPointer, configuration.ParseConfigurationString(sampleSource, c), "not a pointer")

	err := configuration.ParseConfigurationString("return 42", &c)
	assert.NotNil(t, err, "not a table")

	err = configuration.ParseConfigurationString("this is not lua", &c)
	assert.NotNil(t, err, "syntax error")

	err = configuration.ParseConfigurationFile("/nonexistent/ra.conf", &c)
	assert.NotNil(t, err, "missing file")
}
