// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package certificate_test

import (
	"crypto/tls"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/sha3"

	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/fixtures"
	"github.com/kayyagari/ra/rpc/certificate"
)

func makePair(t *testing.T) (string, string) {
	dir := t.TempDir()
	cer := filepath.Join(dir, "rpc.crt")
	key := filepath.Join(dir, "rpc.key")

	err := certificate.MakeSelfSigned("test", cer, key, []string{"127.0.0.1"})
	assert.Nil(t, err, "wrong MakeSelfSigned")
	return cer, key
}

func TestGet(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	cerFile, keyFile := makePair(t)
	cer, _ := ioutil.ReadFile(cerFile)
	key, _ := ioutil.ReadFile(keyFile)

	tlsConfig, fingerprint, err := certificate.Get(
		logger.New(fixtures.LogCategory),
		"test",
		string(cer),
		string(key),
	)
	assert.Nil(t, err, "wrong Get")

	pair, _ := tls.X509KeyPair(cer, key)

	assert.Equal(t, certificate.Fingerprint(sha3.Sum256(pair.Certificate[0])), fingerprint, "wrong fingerprint")
	assert.Equal(t, pair, tlsConfig.Certificates[0], "wrong config")
	assert.Equal(t, uint16(tls.VersionTLS12), tlsConfig.MinVersion, "wrong minimum version")
}

func TestLoad(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	log := logger.New(fixtures.LogCategory)
	cer, key := makePair(t)

	_, fingerprint, err := certificate.Load(log, "test", cer, key)
	assert.Nil(t, err, "wrong Load")
	assert.NotEqual(t, certificate.Fingerprint{}, fingerprint, "empty fingerprint")

	_, _, err = certificate.Load(log, "test", cer+".missing", key)
	assert.NotNil(t, err, "missing certificate accepted")

	_, _, err = certificate.Load(log, "test", key, cer)
	assert.NotNil(t, err, "swapped files accepted")
}

func TestMakeSelfSignedNeverOverwrites(t *testing.T) {
	cer, key := makePair(t)

	err := certificate.MakeSelfSigned("test", cer, key+".new", nil)
	assert.Equal(t, fault.ErrCertificateFileAlreadyExists, err, "certificate overwritten")

	err = certificate.MakeSelfSigned("test", cer+".new", key, nil)
	assert.Equal(t, fault.ErrKeyFileAlreadyExists, err, "key overwritten")
}
